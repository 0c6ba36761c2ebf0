package transcription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVTT(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{
			name: "basic vtt",
			content: `WEBVTT

00:00:01.000 --> 00:00:04.000
Hello, this is the first subtitle

00:00:04.100 --> 00:00:08.000
This is the second subtitle`,
			want: 2,
		},
		{
			name: "multi-line subtitle",
			content: `WEBVTT

00:00:01.000 --> 00:00:04.000
Hello, this is
a multi-line subtitle

00:00:04.100 --> 00:00:08.000
Second entry`,
			want: 2,
		},
		{
			name:    "invalid header",
			content: "NOT A VTT FILE",
			wantErr: true,
		},
		{
			name:    "header prefix only",
			content: "WEBVTTX\n\n00:00:01.000 --> 00:00:02.000\nhi",
			wantErr: true,
		},
		{
			name: "empty lines between entries",
			content: `WEBVTT


00:00:01.000 --> 00:00:04.000
First entry


00:00:04.100 --> 00:00:08.000
Second entry`,
			want: 2,
		},
		{
			name: "youtube header metadata and cue settings",
			content: `WEBVTT
Kind: captions
Language: en

00:00:00.160 --> 00:00:02.869 align:start position:0%
so<00:00:00.400><c> today</c><00:00:00.640><c> we</c>

00:00:02.869 --> 00:00:02.879 align:start position:0%
so today we
 `,
			want: 2,
		},
		{
			name:    "cue identifiers and notes",
			content: "WEBVTT\r\n\r\nNOTE written by hand\r\n\r\nintro\r\n00:01.000 --> 00:02.000\r\nFirst\r\n\r\n2\r\n00:02.000 --> 00:03.000\r\nSecond",
			want:    2,
		},
		{
			name: "bad timestamp",
			content: `WEBVTT

00:00:01 --> 00:00:04.000
broken`,
			wantErr: true,
		},
		{
			name:    "quoted literal",
			content: `"WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nquoted"`,
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cues, err := ParseVTT(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, cues, tt.want)
		})
	}
}

func TestParseVTTCueContent(t *testing.T) {
	content := `WEBVTT
Kind: captions

1
00:00:01.000 --> 00:00:04.000 line:0
<v Roger>Fish &amp; chips</v>
are   great

00:00:04.100 --> 00:00:08.000
second`

	cues, err := ParseVTT(content)
	require.NoError(t, err)
	require.Len(t, cues, 2)

	assert.Equal(t, 1, cues[0].Number)
	assert.Equal(t, time.Second, cues[0].Start)
	assert.Equal(t, 4*time.Second, cues[0].End)
	assert.Equal(t, []string{"Fish & chips", "are great"}, cues[0].Lines)
	assert.Equal(t, "Fish & chips are great", cues[0].Text())
	assert.Equal(t, 2, cues[1].Number)
}

func TestPlainText(t *testing.T) {
	cues := []Cue{
		{Lines: []string{"so today we"}},
		{Lines: []string{"so today we", "are talking about"}},
		{Lines: []string{"are talking about", "go"}},
	}
	assert.Equal(t, "so today we are talking about go", PlainText(cues))
	assert.Empty(t, PlainText(nil))
}

func TestParseVTTTimestamp(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		want      time.Duration
		wantErr   bool
	}{
		{name: "zero timestamp", timestamp: "00:00:00.000", want: 0},
		{name: "one second", timestamp: "00:00:01.000", want: time.Second},
		{name: "with hours", timestamp: "01:00:00.000", want: time.Hour},
		{name: "with milliseconds", timestamp: "00:00:00.500", want: 500 * time.Millisecond},
		{
			name:      "complex time",
			timestamp: "01:23:45.678",
			want:      1*time.Hour + 23*time.Minute + 45*time.Second + 678*time.Millisecond,
		},
		{name: "short form", timestamp: "02:03.250", want: 2*time.Minute + 3*time.Second + 250*time.Millisecond},
		{name: "long hours", timestamp: "100:00:00.000", want: 100 * time.Hour},
		{name: "invalid format", timestamp: "1:23:45.678", wantErr: true},
		{name: "missing milliseconds", timestamp: "00:00:01", wantErr: true},
		{name: "short milliseconds", timestamp: "00:00:01.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVTTTimestamp(tt.timestamp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
