package appfx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/config"
	"jamesfarrell.me/youtube-rag/internal/embeddings"
	"jamesfarrell.me/youtube-rag/internal/index"
	"jamesfarrell.me/youtube-rag/internal/llm"
	"jamesfarrell.me/youtube-rag/internal/rag"
)

const testVTT = `WEBVTT

00:00:00.000 --> 00:00:05.000
goroutines are cheap

00:00:05.000 --> 00:00:10.000
channels connect goroutines
`

// fakeYouTube serves one captioned video.
func fakeYouTube(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"/api/timedtext?lang=en","languageCode":"en"}]}}};</script></body></html>`)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testVTT)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Embedder.Type = config.EmbedderLocal
	cfg.Generator.APIKeyEnv = "YTRAG_TEST_UNSET_KEY"
	cfg.Server.Addr = "127.0.0.1:0"
	t.Setenv("YTRAG_TEST_UNSET_KEY", "")
	return cfg
}

func testOptions(cfg *config.AppConfig) fx.Option {
	return fx.Options(
		fx.Supply(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))),
		fx.NopLogger,
	)
}

func TestConfigModule(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")

	var cfg *config.AppConfig
	var logger *slog.Logger
	app := fx.New(
		ConfigModule,
		ConfigPath(""),
		fx.NopLogger,
		fx.Populate(&cfg, &logger),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	assert.Equal(t, "json", cfg.Log.Format)
	assert.NotNil(t, logger)
}

func TestCoreModuleAnswers(t *testing.T) {
	yt := fakeYouTube(t)
	cfg := testConfig(t)
	cfg.Transcript.BaseURL = yt.URL

	var svc *rag.Service
	var embedder embeddings.Embedder
	var backend index.Backend
	var generator *llm.Generator
	app := fx.New(
		CoreModule,
		testOptions(cfg),
		fx.Populate(&svc, &embedder, &backend, &generator),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	assert.Equal(t, "local-hashing", embedder.ModelName())
	assert.Equal(t, "memory", backend.Name())
	assert.False(t, generator.Configured())

	ans := svc.Answer(ctx, "5NgNicANyqM", "What connects goroutines?", nil)
	assert.Equal(t, llm.NotConfiguredMessage, ans.Text)
	assert.Equal(t, 1, ans.ChunksRetrieved)
	assert.Equal(t, 0.6, ans.Confidence)
	assert.Equal(t, 1, svc.CachedVideos())

	text, err := svc.Transcript(ctx, "5NgNicANyqM")
	require.NoError(t, err)
	assert.Equal(t, "goroutines are cheap channels connect goroutines", text)
}

func TestCoreModuleRejectsMissingOpenAIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedder.Type = config.EmbedderOpenAI
	cfg.Embedder.APIKeyEnv = "YTRAG_TEST_UNSET_EMBED_KEY"
	t.Setenv("YTRAG_TEST_UNSET_EMBED_KEY", "")

	var svc *rag.Service
	app := fx.New(
		CoreModule,
		testOptions(cfg),
		fx.Populate(&svc),
	)
	assert.Error(t, app.Err())
}

func TestHTTPModule(t *testing.T) {
	yt := fakeYouTube(t)
	cfg := testConfig(t)
	cfg.Transcript.BaseURL = yt.URL

	var srv *HTTPServer
	app := fx.New(
		CoreModule,
		HTTPModule,
		testOptions(cfg),
		fx.Populate(&srv),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	base := "http://" + srv.BoundAddr()
	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := `{"message":"What are goroutines?","video":{"videoId":"5NgNicANyqM"},"conversationHistory":[]}`
	resp, err = http.Post(base+"/ask", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `"chunks_retrieved":1`)
}

func TestMCPModule(t *testing.T) {
	var s *server.MCPServer
	app := fx.New(
		CoreModule,
		MCPModule,
		testOptions(testConfig(t)),
		fx.Populate(&s),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	assert.NotNil(t, s)
}
