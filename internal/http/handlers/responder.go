package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/goalfeed-live/internal/http/middleware"
	"github.com/preston-bernstein/goalfeed-live/internal/http/requestutil"
	"github.com/preston-bernstein/goalfeed-live/internal/logging"
)

// envelope mirrors the backend response shape so presentation clients can
// talk to either one.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	writeJSON(w, status, envelope{Success: true, Data: data}, logger)
}

func writeMessage(w http.ResponseWriter, status int, data any, message string, logger *slog.Logger) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message}, logger)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get(requestutil.HeaderRequestID)
	}
	writeJSON(w, status, envelope{Success: false, Message: message, RequestID: reqID}, logger)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, logger *slog.Logger) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", logger)
	return false
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}
