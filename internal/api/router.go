package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"jamesfarrell.me/youtube-rag/internal/api/handlers"
	"jamesfarrell.me/youtube-rag/internal/api/middleware"
)

func NewRouter(answerer handlers.Answerer, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger), middleware.Recover(logger))

	r.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	askHandler := handlers.NewAskHandler(answerer, logger)
	r.HandleFunc("/ask", askHandler.Ask).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// CORS wraps the router so preflights reach it before method matching.
	return middleware.CORS(r)
}
