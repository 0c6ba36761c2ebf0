package rag

import (
	"strings"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const (
	DefaultHistoryTurns = 5
	NoHistoryText       = "No previous conversation."
)

// FormatHistory renders the last maxTurns turns as "sender: text" lines.
func FormatHistory(turns []models.Turn, maxTurns int) string {
	if len(turns) == 0 || maxTurns <= 0 {
		return NoHistoryText
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := make([]string, len(turns))
	for i, t := range turns {
		sender := t.Sender
		if sender == "" {
			sender = models.SenderUnknown
		}
		lines[i] = sender + ": " + t.Text
	}
	return strings.Join(lines, "\n")
}
