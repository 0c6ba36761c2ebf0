// Package rag answers questions about a video from its transcript: it keeps
// a bounded cache of per-video indexes, retrieves the closest chunks, folds
// recent conversation into the prompt and asks the model.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jamesfarrell.me/youtube-rag/internal/index"
	"jamesfarrell.me/youtube-rag/internal/llm"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const (
	FailureMessagePrefix = "Sorry, I encountered an error: "

	minConfidence = 0.6
	maxConfidence = 0.95
)

type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

type Splitter interface {
	Split(text string) []models.Chunk
}

type Retriever interface {
	Build(ctx context.Context, videoID string, chunks []models.Chunk) (index.Index, error)
	Search(ctx context.Context, idx index.Index, question string, k int) ([]models.SearchResult, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...llm.Option) string
}

type Options struct {
	TopK         int
	HistoryTurns int
	CacheSize    int
}

// Service is the long-lived question answering context. It owns the index
// cache; Close releases every cached index.
type Service struct {
	fetcher   Fetcher
	splitter  Splitter
	retriever Retriever
	generator Generator
	cache     *IndexCache
	opts      Options
	logger    *slog.Logger
}

func NewService(fetcher Fetcher, splitter Splitter, retriever Retriever, generator Generator, opts Options, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = index.DefaultTopK
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = DefaultHistoryTurns
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	s := &Service{
		fetcher:   fetcher,
		splitter:  splitter,
		retriever: retriever,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
	cache, err := NewIndexCache(opts.CacheSize, s.buildIndex, logger)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Answer never returns an error: any failure while retrieving becomes an
// apology answer with zero confidence.
func (s *Service) Answer(ctx context.Context, videoID, question string, history []models.Turn) (ans models.Answer) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			s.logger.Error("answer failed", slog.String("video_id", videoID), slog.Any("err", err))
			ans = failure(err)
		}
	}()

	hits, err := s.retrieve(ctx, videoID, question)
	if err != nil {
		s.logger.Error("answer failed", slog.String("video_id", videoID), slog.Any("err", err))
		return failure(err)
	}

	prompt := ComposePrompt(JoinContext(hits), FormatHistory(history, s.opts.HistoryTurns), question)
	text := s.generator.Generate(ctx, prompt)

	ans = models.Answer{
		Text:            text,
		Confidence:      Confidence(len(hits), s.opts.TopK),
		ChunksRetrieved: len(hits),
	}
	s.logger.Info("question answered",
		slog.String("video_id", videoID),
		slog.Int("chunks", ans.ChunksRetrieved),
		slog.Float64("confidence", ans.Confidence),
		slog.Duration("took", time.Since(started)))
	return ans
}

// Transcript fetches the raw transcript without touching the cache.
func (s *Service) Transcript(ctx context.Context, videoID string) (string, error) {
	return s.fetcher.Fetch(ctx, videoID)
}

func (s *Service) CachedVideos() int {
	return s.cache.Len()
}

func (s *Service) Close() error {
	s.cache.Purge()
	return nil
}

func (s *Service) retrieve(ctx context.Context, videoID, question string) ([]models.SearchResult, error) {
	idx, err := s.cache.GetOrBuild(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return s.retriever.Search(ctx, idx, question, s.opts.TopK)
}

func (s *Service) buildIndex(ctx context.Context, videoID string) (index.Index, error) {
	transcript, err := s.fetcher.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}
	chunks := s.splitter.Split(transcript)
	return s.retriever.Build(ctx, videoID, chunks)
}

// Confidence is the share of the requested chunks that came back, clamped
// to [0.6, 0.95]. It says nothing about how relevant the chunks are.
func Confidence(retrieved, topK int) float64 {
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	c := float64(retrieved) / float64(topK)
	return min(max(c, minConfidence), maxConfidence)
}

func failure(err error) models.Answer {
	if err == nil {
		err = errors.New("unknown error")
	}
	return models.Answer{Text: FailureMessagePrefix + err.Error()}
}
