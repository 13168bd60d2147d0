package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON is the single response writer for every bookmark and tag
// endpoint; failures are logged since the status line is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

// errorBody wraps a message in the API's uniform error envelope.
func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
