package models

import (
	"net/url"
	"regexp"
	"strings"
)

// Video is the caller-supplied description of the video being asked about.
// Only ID is used for retrieval; the rest is carried for logging.
type Video struct {
	ID          string `json:"videoId"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	Timestamp   int64  `json:"timestamp"`
}

type Chunk struct {
	Ordinal       int
	Text          string
	StartPosition int
	EndPosition   int
}

type SearchResult struct {
	VideoID    string  `json:"videoId"`
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// Answer is what the orchestrator hands back for every question, including
// degraded answers produced from internal failures.
type Answer struct {
	Text            string
	Confidence      float64
	ChunksRetrieved int
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// ExtractVideoID accepts a bare video id or any of the common YouTube URL
// shapes (watch?v=, youtu.be/, /shorts/, /embed/, /live/) and returns the id.
func ExtractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if videoIDPattern.MatchString(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if !strings.Contains(raw, "://") {
			u, err = url.Parse("https://" + raw)
		}
		if err != nil || u == nil || u.Host == "" {
			return ""
		}
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case host == "youtu.be" && len(segments) > 0:
		return segments[0]
	case len(segments) >= 2:
		switch segments[0] {
		case "shorts", "embed", "live", "v":
			return segments[1]
		}
	}
	return ""
}
