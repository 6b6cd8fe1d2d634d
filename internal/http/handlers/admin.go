package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/goalfeed-live/internal/http/requestutil"
	"github.com/preston-bernstein/goalfeed-live/internal/logging"
)

// AdminHandler exposes the backend refresh trigger. When a token is set the
// caller must present it as a bearer token.
type AdminHandler struct {
	state   StateReader
	backend Backend
	token   string
	logger  *slog.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(state StateReader, backend Backend, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		state:   state,
		backend: backend,
		token:   token,
		logger:  logger,
	}
}

// Refresh asks the backend to re-poll active games, then re-fetches the
// games snapshot so local state reflects the result.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	if !h.authorize(r) {
		logging.Warn(h.logger, "admin unauthorized",
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	if h.backend == nil {
		writeError(w, r, http.StatusServiceUnavailable, "backend not configured", h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	msg, err := h.backend.TriggerRefresh(r.Context())
	if err != nil {
		writeBackendError(w, r, h.logger, err, "failed to trigger refresh")
		return
	}
	if err := h.state.Refresh(r.Context()); err != nil {
		logging.Warn(logger, "resync after refresh failed", "err", err)
		writeError(w, r, http.StatusBadGateway, "refresh triggered but games re-fetch failed", logger)
		return
	}

	count := len(h.state.Games())
	writeMessage(w, http.StatusOK, map[string]int{"games": count}, msg, logger)
	logging.Info(logger, "refresh triggered", logging.FieldCount, count)
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got := r.Header.Get("Authorization")
	want := "Bearer " + h.token
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
