package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const (
	MaxMessageLength = 1000
	MinVideoIDLength = 10

	// MaxRequestBytes bounds the /ask body, conversation history included.
	MaxRequestBytes = 1 << 20
)

// Answerer is the question-answering core the handler delegates to.
type Answerer interface {
	Answer(ctx context.Context, videoID, question string, history []models.Turn) models.Answer
}

type AskRequest struct {
	Message             string        `json:"message"`
	Video               models.Video  `json:"video"`
	ConversationHistory []models.Turn `json:"conversationHistory"`
}

type AskMetadata struct {
	Confidence      float64 `json:"confidence"`
	ProcessingTime  float64 `json:"processing_time"`
	VideoID         string  `json:"video_id"`
	ChunksRetrieved int     `json:"chunks_retrieved"`
}

type AskResponse struct {
	Response string      `json:"response"`
	Metadata AskMetadata `json:"metadata"`
}

// ValidationError is a request problem reported to the caller as a 400.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// Validate trims the message in place and checks the field limits. The
// length limit applies to the message as sent, before trimming.
func (r *AskRequest) Validate() error {
	trimmed := strings.TrimSpace(r.Message)
	if trimmed == "" {
		return &ValidationError{Detail: "Message cannot be empty"}
	}
	if utf8.RuneCountInString(r.Message) > MaxMessageLength {
		return &ValidationError{Detail: "Message too long (max 1000 characters)"}
	}
	if utf8.RuneCountInString(r.Video.ID) < MinVideoIDLength {
		return &ValidationError{Detail: "Invalid video ID"}
	}
	r.Message = trimmed
	return nil
}

type AskHandler struct {
	answerer Answerer
	logger   *slog.Logger
	now      func() time.Time
}

func NewAskHandler(answerer Answerer, logger *slog.Logger) *AskHandler {
	return &AskHandler{answerer: answerer, logger: logger, now: time.Now}
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("request body too large", slog.Int64("limit", tooLarge.Limit))
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.logger.Warn("validation error", slog.String("detail", verr.Detail))
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("processing question",
		slog.String("video_id", req.Video.ID),
		slog.String("title", req.Video.Title),
		slog.String("question", preview(req.Message, 50)))

	started := h.now()
	ans := h.answerer.Answer(r.Context(), req.Video.ID, req.Message, req.ConversationHistory)
	elapsed := h.now().Sub(started).Seconds()

	WriteJSON(w, http.StatusOK, AskResponse{
		Response: ans.Text,
		Metadata: AskMetadata{
			Confidence:      ans.Confidence,
			ProcessingTime:  math.Round(elapsed*100) / 100,
			VideoID:         req.Video.ID,
			ChunksRetrieved: ans.ChunksRetrieved,
		},
	})
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
