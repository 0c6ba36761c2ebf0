package appfx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/api"
	"jamesfarrell.me/youtube-rag/internal/config"
	"jamesfarrell.me/youtube-rag/internal/rag"
)

// HTTPServer is the API server together with the address it is bound to
// once the app has started.
type HTTPServer struct {
	*http.Server
	listener net.Listener
}

func (s *HTTPServer) BoundAddr() string {
	if s.listener == nil {
		return s.Addr
	}
	return s.listener.Addr().String()
}

func NewHTTPServer(lc fx.Lifecycle, cfg *config.AppConfig, svc *rag.Service, logger *slog.Logger) *HTTPServer {
	srv := &HTTPServer{Server: &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(svc, logger),
	}}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			srv.listener = ln
			logger.Info("starting HTTP server", slog.String("addr", srv.BoundAddr()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server error", slog.Any("err", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// HTTPModule serves the REST API for the lifetime of the app
var HTTPModule = fx.Module("http",
	fx.Provide(NewHTTPServer),
	fx.Invoke(func(*HTTPServer) {}),
)
