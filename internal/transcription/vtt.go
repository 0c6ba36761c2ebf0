package transcription

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cue is a single timed caption block.
type Cue struct {
	Number int
	Start  time.Duration
	End    time.Duration
	Lines  []string
}

// Text returns the cue's lines joined by single spaces.
func (c Cue) Text() string {
	return strings.Join(c.Lines, " ")
}

var (
	blankLines = regexp.MustCompile(`\n{2,}`)
	cueTags    = regexp.MustCompile(`<[^>]*>`)
)

// ParseVTT parses WebVTT content into cues. Header metadata, NOTE, STYLE
// and REGION blocks are skipped, as are cue identifiers and cue settings.
func ParseVTT(content string) ([]Cue, error) {
	// Stored captions are sometimes a JSON string literal.
	if strings.HasPrefix(content, `"WEBVTT`) {
		if unquoted, err := strconv.Unquote(content); err == nil {
			content = unquoted
		}
	}
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	if !isVTTHeader(content) {
		return nil, fmt.Errorf("invalid VTT format: missing WEBVTT header")
	}

	blocks := blankLines.Split(strings.TrimSpace(content), -1)
	cues := []Cue{}

	// blocks[0] is the header and its metadata lines.
	for _, block := range blocks[1:] {
		lines := strings.Split(block, "\n")

		timing := 0
		if !strings.Contains(lines[0], "-->") {
			if len(lines) < 2 || !strings.Contains(lines[1], "-->") {
				continue
			}
			timing = 1
		}

		start, end, err := parseTimingLine(lines[timing])
		if err != nil {
			return nil, err
		}

		var text []string
		for _, line := range lines[timing+1:] {
			if cleaned := cleanCueLine(line); cleaned != "" {
				text = append(text, cleaned)
			}
		}
		if len(text) == 0 {
			continue
		}

		cues = append(cues, Cue{
			Number: len(cues) + 1,
			Start:  start,
			End:    end,
			Lines:  text,
		})
	}

	return cues, nil
}

// PlainText joins cue lines with single spaces. Rolling auto-generated
// captions repeat the previous line at the top of each cue, so a line equal
// to the one emitted just before it is dropped.
func PlainText(cues []Cue) string {
	var sb strings.Builder
	last := ""
	for _, cue := range cues {
		for _, line := range cue.Lines {
			if line == last {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(line)
			last = line
		}
	}
	return sb.String()
}

func isVTTHeader(content string) bool {
	if !strings.HasPrefix(content, "WEBVTT") {
		return false
	}
	rest := content[len("WEBVTT"):]
	return rest == "" || rest[0] == '\n' || rest[0] == ' ' || rest[0] == '\t'
}

func parseTimingLine(line string) (time.Duration, time.Duration, error) {
	timestamps := strings.SplitN(line, "-->", 2)
	if len(timestamps) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line: %q", line)
	}

	start, err := parseVTTTimestamp(strings.TrimSpace(timestamps[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start timestamp: %w", err)
	}

	// Cue settings such as "align:start position:0%" follow the end time.
	endFields := strings.Fields(timestamps[1])
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("invalid timing line: %q", line)
	}
	end, err := parseVTTTimestamp(endFields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end timestamp: %w", err)
	}

	return start, end, nil
}

func cleanCueLine(line string) string {
	line = cueTags.ReplaceAllString(line, "")
	line = html.UnescapeString(line)
	return strings.Join(strings.Fields(line), " ")
}

// parseVTTTimestamp accepts HH:MM:SS.mmm and the short MM:SS.mmm form.
func parseVTTTimestamp(timestamp string) (time.Duration, error) {
	if !strings.Contains(timestamp, ".") {
		return 0, fmt.Errorf("invalid timestamp format: missing milliseconds")
	}

	parts := strings.Split(timestamp, ":")
	var hours int
	switch len(parts) {
	case 3:
		if len(parts[0]) < 2 {
			return 0, fmt.Errorf("invalid timestamp format: expected HH:MM:SS.mmm")
		}
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("invalid hours: %w", err)
		}
		hours = h
		parts = parts[1:]
	case 2:
	default:
		return 0, fmt.Errorf("invalid timestamp format: expected HH:MM:SS.mmm")
	}

	if len(parts[0]) != 2 {
		return 0, fmt.Errorf("invalid timestamp format: expected two digit minutes")
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes: %w", err)
	}

	secondParts := strings.Split(parts[1], ".")
	if len(secondParts) != 2 || len(secondParts[1]) != 3 {
		return 0, fmt.Errorf("invalid seconds format: expected SS.mmm")
	}

	seconds, err := strconv.Atoi(secondParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds: %w", err)
	}

	milliseconds, err := strconv.Atoi(secondParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds: %w", err)
	}

	duration := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(milliseconds)*time.Millisecond

	return duration, nil
}
