package rag

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"jamesfarrell.me/youtube-rag/internal/index"
)

const DefaultCacheSize = 128

// BuildFunc produces the index for a video on a cache miss.
type BuildFunc func(ctx context.Context, videoID string) (index.Index, error)

// IndexCache holds at most a fixed number of video indexes, evicting the
// least recently used. Concurrent misses for the same video share one build.
type IndexCache struct {
	entries *lru.Cache[string, index.Index]
	group   singleflight.Group
	build   BuildFunc
	logger  *slog.Logger
}

func NewIndexCache(size int, build BuildFunc, logger *slog.Logger) (*IndexCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &IndexCache{build: build, logger: logger}
	entries, err := lru.NewWithEvict[string, index.Index](size, c.evicted)
	if err != nil {
		return nil, fmt.Errorf("create index cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// GetOrBuild returns the cached index for videoID, building it on a miss.
// The build itself is detached from ctx so one caller giving up does not
// fail the others waiting on it; ctx only bounds how long this caller waits.
// Failed builds are not cached.
func (c *IndexCache) GetOrBuild(ctx context.Context, videoID string) (index.Index, error) {
	if idx, ok := c.entries.Get(videoID); ok {
		return idx, nil
	}

	ch := c.group.DoChan(videoID, func() (any, error) {
		if idx, ok := c.entries.Get(videoID); ok {
			return idx, nil
		}
		idx, err := c.build(context.WithoutCancel(ctx), videoID)
		if err != nil {
			return nil, err
		}
		c.entries.Add(videoID, idx)
		return idx, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(index.Index), nil
	}
}

func (c *IndexCache) Contains(videoID string) bool {
	return c.entries.Contains(videoID)
}

func (c *IndexCache) Len() int {
	return c.entries.Len()
}

// Purge drops and closes every cached index.
func (c *IndexCache) Purge() {
	c.entries.Purge()
}

func (c *IndexCache) evicted(videoID string, idx index.Index) {
	c.logger.Debug("index evicted", slog.String("video_id", videoID), slog.Int("chunks", idx.Len()))
	if err := idx.Close(); err != nil {
		c.logger.Warn("failed to close evicted index", slog.String("video_id", videoID), slog.Any("err", err))
	}
}
