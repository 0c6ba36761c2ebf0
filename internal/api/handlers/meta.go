package handlers

import (
	"encoding/json"
	"net/http"
)

const (
	ServiceName    = "YouTube RAG API"
	ServiceVersion = "1.0.0"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, errorResponse{Detail: detail})
}

func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

func Root(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": ServiceName,
		"version": ServiceVersion,
		"endpoints": map[string]string{
			"ask":    "/ask - Ask questions about YouTube videos",
			"health": "/health - Health check",
		},
	})
}
