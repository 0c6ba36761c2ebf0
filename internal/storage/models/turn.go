package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const SenderUnknown = "unknown"

// Turn is one prior message of a conversation, resent by the caller on
// every request.
type Turn struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts a turn object with missing or oddly typed fields, a
// bare string, or any other JSON value. Missing senders become "unknown";
// anything that is not an object becomes the turn's text.
func (t *Turn) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Turn{Sender: SenderUnknown}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decode turn: %w", err)
		}
		if raw, ok := fields["sender"]; ok {
			if s := looseString(raw); s != "" {
				t.Sender = s
			}
		}
		if raw, ok := fields["text"]; ok {
			t.Text = looseString(raw)
		}
		if raw, ok := fields["timestamp"]; ok {
			var ts json.Number
			if err := json.Unmarshal(raw, &ts); err == nil {
				if n, err := ts.Int64(); err == nil {
					t.Timestamp = n
				} else if f, err := ts.Float64(); err == nil {
					t.Timestamp = int64(f)
				}
			}
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode turn: %w", err)
		}
		t.Text = s
	default:
		t.Text = string(data)
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
