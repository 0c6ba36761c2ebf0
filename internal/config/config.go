package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EmbedderAuto   = "auto"
	EmbedderOpenAI = "openai"
	EmbedderLocal  = "local"

	BackendMemory   = "memory"
	BackendPGVector = "pgvector"
)

type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_secs"`
}

// TranscriptConfig configures the YouTube caption fetcher. A zero timeout
// leaves requests unbounded.
type TranscriptConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Languages   []string `yaml:"languages"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbedderConfig selects the embedder. "auto" uses OpenAI when its API key
// is present in the environment and the local hashing embedder otherwise.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type IndexConfig struct {
	Backend        string `yaml:"backend"`
	DatabaseURLEnv string `yaml:"database_url_env"`
	DatabaseID     string `yaml:"database_id"`
	CacheSize      int    `yaml:"cache_size"`
	TopK           int    `yaml:"top_k"`
	HistoryTurns   int    `yaml:"history_turns"`
}

type GeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Index      IndexConfig      `yaml:"index"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from path over the defaults and applies environment
// overrides. An empty path or a missing file yields the defaults. Keys
// present in the file win even when zero, so chunker.overlap: 0 sticks.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = 10
	}

	if cfg.Transcript.BaseURL == "" {
		cfg.Transcript.BaseURL = "https://www.youtube.com"
	}
	if len(cfg.Transcript.Languages) == 0 {
		cfg.Transcript.Languages = []string{"en"}
	}

	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 200
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = EmbedderAuto
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 64
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 384
	}

	if cfg.Index.Backend == "" {
		cfg.Index.Backend = BackendMemory
	}
	if cfg.Index.DatabaseURLEnv == "" {
		cfg.Index.DatabaseURLEnv = "DATABASE_URL"
	}
	if cfg.Index.CacheSize == 0 {
		cfg.Index.CacheSize = 128
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 4
	}
	if cfg.Index.HistoryTurns == 0 {
		cfg.Index.HistoryTurns = 5
	}

	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemini-1.5-flash"
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.2
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 256
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v, ok := lookup("ADDR"); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		cfg.Log.Format = v
	}
	if v, ok := lookup("INDEX_BACKEND"); ok && v != "" {
		cfg.Index.Backend = v
	}
	if v, ok := lookup("EMBEDDER_TYPE"); ok && v != "" {
		cfg.Embedder.Type = v
	}
	if v, ok := lookup("GENERATOR_MODEL"); ok && v != "" {
		cfg.Generator.Model = v
	}
	if v, ok := lookup("GENERATOR_BASE_URL"); ok && v != "" {
		cfg.Generator.BaseURL = v
	}
	if v, ok := lookup("YOUTUBE_LANGUAGES"); ok && v != "" {
		cfg.Transcript.Languages = splitList(v)
	}
	if v, ok := lookup("INDEX_CACHE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INDEX_CACHE_SIZE: %w", err)
		}
		cfg.Index.CacheSize = n
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Chunker.Size <= 0 {
		errs = append(errs, fmt.Errorf("chunker.size must be positive"))
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		errs = append(errs, fmt.Errorf("chunker.overlap must be in [0, chunker.size)"))
	}
	if c.Index.TopK < 1 {
		errs = append(errs, fmt.Errorf("index.top_k must be at least 1"))
	}
	if c.Index.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("index.cache_size must be at least 1"))
	}
	if c.Index.HistoryTurns < 1 {
		errs = append(errs, fmt.Errorf("index.history_turns must be at least 1"))
	}
	switch c.Index.Backend {
	case BackendMemory, BackendPGVector:
	default:
		errs = append(errs, fmt.Errorf("unknown index.backend %q", c.Index.Backend))
	}
	switch c.Embedder.Type {
	case EmbedderAuto, EmbedderOpenAI, EmbedderLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown embedder.type %q", c.Embedder.Type))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ResolvedEmbedderType turns "auto" into the embedder that will actually run.
func (c *AppConfig) ResolvedEmbedderType() string {
	if c.Embedder.Type != EmbedderAuto {
		return c.Embedder.Type
	}
	if c.Embedder.APIKey() != "" {
		return EmbedderOpenAI
	}
	return EmbedderLocal
}

func (e EmbedderConfig) APIKey() string { return os.Getenv(e.APIKeyEnv) }

func (g GeneratorConfig) APIKey() string { return os.Getenv(g.APIKeyEnv) }

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSecs) * time.Second
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (t TranscriptConfig) Timeout() time.Duration { return seconds(t.TimeoutSecs) }

func (e EmbedderConfig) Timeout() time.Duration { return seconds(e.TimeoutSecs) }

func (g GeneratorConfig) Timeout() time.Duration { return seconds(g.TimeoutSecs) }

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
