package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel       = "gemini-1.5-flash"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 256

	NotConfiguredMessage = "Sorry, the AI model is not properly configured. Please check the API key."
	EmptyResponseMessage = "Sorry, I couldn't generate a response. The model may have been blocked or returned empty content."
	errorMessageFormat   = "Sorry, I encountered an error generating the response: %v"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int

	HTTPClient *http.Client
}

type callOptions struct {
	temperature float32
	maxTokens   int
}

type Option func(*callOptions)

func WithTemperature(t float32) Option {
	return func(o *callOptions) { o.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(o *callOptions) { o.maxTokens = n }
}

// Generator produces answers through an OpenAI-compatible chat completion
// API. Without an API key it runs degraded and never calls out.
type Generator struct {
	client   *openai.Client
	model    string
	defaults callOptions
	logger   *slog.Logger
}

func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	g := &Generator{
		model:    cfg.Model,
		defaults: callOptions{temperature: cfg.Temperature, maxTokens: cfg.MaxTokens},
		logger:   logger,
	}
	if cfg.APIKey == "" {
		logger.Warn("generation API key not set, answers will be degraded")
		return g
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	g.client = openai.NewClientWithConfig(clientCfg)
	return g
}

// Configured reports whether the generator has credentials to call the model.
func (g *Generator) Configured() bool { return g.client != nil }

func (g *Generator) Model() string { return g.model }

// Generate never fails: configuration problems, call errors and empty or
// filtered output all come back as user-facing apology text.
func (g *Generator) Generate(ctx context.Context, prompt string, opts ...Option) string {
	if g.client == nil {
		return NotConfiguredMessage
	}

	o := g.defaults
	for _, opt := range opts {
		opt(&o)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		g.logger.Error("generation failed", slog.String("model", g.model), slog.Any("err", err))
		return fmt.Sprintf(errorMessageFormat, err)
	}

	if len(resp.Choices) == 0 {
		return EmptyResponseMessage
	}
	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" || choice.FinishReason == openai.FinishReasonContentFilter {
		g.logger.Warn("generation returned no usable text",
			slog.String("model", g.model),
			slog.String("finish_reason", string(choice.FinishReason)))
		return EmptyResponseMessage
	}
	return text
}
