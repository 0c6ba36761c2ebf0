package transcription

import (
	"errors"
	"fmt"
)

var (
	// ErrTranscriptsDisabled means the video exists but publishes no caption tracks.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled")
	ErrVideoUnavailable    = errors.New("video is unavailable")
	errEmptyTranscript     = errors.New("transcript is empty")
	errPoTokenOnly         = errors.New("all caption tracks require a PoToken")
)

// FetchError wraps any failure to retrieve a transcript other than the
// video having transcripts disabled.
type FetchError struct {
	VideoID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching transcript for video %s: %v", e.VideoID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func disabled(videoID string) error {
	return fmt.Errorf("%w for video %s", ErrTranscriptsDisabled, videoID)
}
