package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	maxPageBytes    = 8 << 20
	maxCaptionBytes = 4 << 20
)

var playerResponseMarker = regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*`)

type Config struct {
	BaseURL   string
	Languages []string
}

// Service fetches caption transcripts for YouTube videos.
type Service struct {
	baseURL   string
	languages []string
	client    *http.Client
	logger    *slog.Logger
}

func NewService(cfg Config, client *http.Client, logger *slog.Logger) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		languages: cfg.Languages,
		client:    client,
		logger:    logger,
	}
}

// Fetch returns the video's transcript as a single space-joined string.
// Videos without captions yield an error matching ErrTranscriptsDisabled;
// every other failure is a *FetchError.
func (s *Service) Fetch(ctx context.Context, videoID string) (string, error) {
	cues, err := s.Cues(ctx, videoID)
	if err != nil {
		return "", err
	}
	text := PlainText(cues)
	if text == "" {
		return "", &FetchError{VideoID: videoID, Err: errEmptyTranscript}
	}
	return text, nil
}

// Cues returns the parsed caption cues of the best matching track.
func (s *Service) Cues(ctx context.Context, videoID string) ([]Cue, error) {
	if videoID == "" {
		return nil, &FetchError{VideoID: videoID, Err: errors.New("video id is required")}
	}

	player, err := s.loadPlayer(ctx, videoID)
	if err != nil {
		return nil, err
	}

	tracks := player.tracks()
	if len(tracks) == 0 {
		return nil, disabled(videoID)
	}

	track, ok := pickBestTrack(tracks, s.languages)
	if !ok {
		return nil, &FetchError{VideoID: videoID, Err: errPoTokenOnly}
	}

	captionURL, err := s.captionURL(track.BaseURL)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: err}
	}

	body, err := s.get(ctx, captionURL, maxCaptionBytes)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: fmt.Errorf("captions: %w", err)}
	}

	cues, err := ParseVTT(string(body))
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: fmt.Errorf("parse captions: %w", err)}
	}

	s.logger.Debug("transcript fetched",
		slog.String("video_id", videoID),
		slog.String("lang", track.LanguageCode),
		slog.String("kind", track.Kind),
		slog.Int("cues", len(cues)))
	return cues, nil
}

// loadPlayer reads the player response from the watch page and falls back
// to the ANDROID player endpoint when the page is unusable, not playable or
// offers only caption tracks that need a PoToken.
func (s *Service) loadPlayer(ctx context.Context, videoID string) (*playerResponse, error) {
	page, pageErr := s.watchPagePlayer(ctx, videoID)
	if pageErr == nil {
		if pageErr = s.usable(page); pageErr == nil {
			return page, nil
		}
	}
	if ctx.Err() != nil {
		return nil, &FetchError{VideoID: videoID, Err: ctx.Err()}
	}

	s.logger.Debug("watch page unusable, trying player endpoint",
		slog.String("video_id", videoID), slog.Any("err", pageErr))

	player, err := s.innertubePlayer(ctx, videoID)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: errors.Join(pageErr, err)}
	}
	if err := player.playable(); err != nil {
		return nil, &FetchError{VideoID: videoID, Err: err}
	}
	return player, nil
}

func (s *Service) usable(page *playerResponse) error {
	if err := page.playable(); err != nil {
		return err
	}
	if tracks := page.tracks(); len(tracks) > 0 {
		if _, ok := pickBestTrack(tracks, s.languages); !ok {
			return errPoTokenOnly
		}
	}
	return nil
}

func (s *Service) watchPagePlayer(ctx context.Context, videoID string) (*playerResponse, error) {
	watchURL := s.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	body, err := s.get(ctx, watchURL, maxPageBytes)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		loc := playerResponseMarker.FindStringIndex(text)
		if loc == nil {
			return true
		}
		raw = text[loc[1]:]
		return false
	})
	if raw == "" {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}

	var player playerResponse
	if err := json.NewDecoder(strings.NewReader(raw)).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &player, nil
}

func (s *Service) innertubePlayer(ctx context.Context, videoID string) (*playerResponse, error) {
	payload, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{Client: playerClient{
			ClientName:        innertubeClientName,
			ClientVersion:     innertubeClientVersion,
			AndroidSdkVersion: 30,
			Hl:                "en",
			Gl:                "US",
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/youtubei/v1/player?prettyPrint=false", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", innertubeUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", innertubeClientVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player endpoint: unexpected status code: %d", resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &player, nil
}

// captionURL resolves the track URL against the base and asks for WebVTT.
func (s *Service) captionURL(trackURL string) (string, error) {
	base, err := url.Parse(s.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	ref, err := url.Parse(trackURL)
	if err != nil {
		return "", fmt.Errorf("invalid caption URL: %w", err)
	}
	u := base.ResolveReference(ref)
	q := u.Query()
	q.Set("fmt", "vtt")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Service) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.AddCookie(&http.Cookie{Name: "CONSENT", Value: "YES+cb"})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return body, nil
}
