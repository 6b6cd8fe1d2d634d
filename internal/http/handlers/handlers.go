package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/preston-bernstein/goalfeed-live/internal/api"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/events"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/games"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/leagues"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/teams"
	"github.com/preston-bernstein/goalfeed-live/internal/logging"
	"github.com/preston-bernstein/goalfeed-live/internal/poller"
	"github.com/preston-bernstein/goalfeed-live/internal/reconciler"
	"github.com/preston-bernstein/goalfeed-live/internal/stream"
)

const maxBodyBytes = 1 << 20

// StateReader is the reconciled view served to presentation clients.
type StateReader interface {
	Snapshot() reconciler.Snapshot
	Games() []games.Game
	MonitoredGames() []games.Game
	Game(code string) (games.Game, bool)
	Events() []events.Event
	Leagues() []leagues.Config
	Status() reconciler.Status
	Ready() bool
	UpdateLeague(ctx context.Context, leagueID int, teamCodes []string) error
	Refresh(ctx context.Context) error
}

// Backend covers the calls passed straight through to the goalfeed backend.
type Backend interface {
	FetchUpcoming(ctx context.Context) ([]games.Game, error)
	FetchHistory(ctx context.Context, date string) ([]games.Game, error)
	FetchTeams(ctx context.Context, leagueID int) ([]teams.Team, error)
	FetchEvents(ctx context.Context) ([]events.Event, error)
	TriggerRefresh(ctx context.Context) (string, error)
	HomeAssistantConfig(ctx context.Context) (json.RawMessage, error)
	HomeAssistantStatus(ctx context.Context) (json.RawMessage, error)
	UpdateHomeAssistant(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
}

// StatusReport combines reconciler, stream and refresher status.
type StatusReport struct {
	State  reconciler.Status `json:"state"`
	Stream *stream.Status    `json:"stream,omitempty"`
	Poller *poller.Status    `json:"poller,omitempty"`
}

// Handler wires HTTP routes to the reconciled state and the backend.
type Handler struct {
	state        StateReader
	backend      Backend
	logger       *slog.Logger
	streamStatus func() stream.Status
	pollerStatus func() poller.Status
}

// NewHandler constructs a Handler. backend may be nil, in which case the
// pass-through routes answer 503.
func NewHandler(state StateReader, backend Backend, logger *slog.Logger) *Handler {
	return &Handler{
		state:   state,
		backend: backend,
		logger:  logger,
	}
}

// WithStreamStatus includes the connection status in /state/status.
func (h *Handler) WithStreamStatus(fn func() stream.Status) *Handler {
	h.streamStatus = fn
	return h
}

// WithPollerStatus includes the periodic refresher status in /state/status.
func (h *Handler) WithPollerStatus(fn func() poller.Status) *Handler {
	h.pollerStatus = fn
	return h
}

func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	switch path := r.URL.Path; {
	case path == "/health":
		h.Health(w, r)
	case path == "/ready":
		h.Ready(w, r)
	case path == "/state":
		h.State(w, r)
	case path == "/state/games":
		h.Games(w, r)
	case strings.HasPrefix(path, "/state/games/"):
		h.GameByCode(w, r)
	case path == "/state/events":
		h.Events(w, r)
	case path == "/state/leagues":
		h.Leagues(w, r)
	case path == "/state/status":
		h.Status(w, r)
	case path == "/upcoming":
		h.Upcoming(w, r)
	case path == "/teams":
		h.Teams(w, r)
	case path == "/history":
		h.History(w, r)
	case path == "/events/remote":
		h.RemoteEvents(w, r)
	case path == "/homeassistant/config":
		h.HomeAssistantConfig(w, r)
	case path == "/homeassistant/status":
		h.HomeAssistantStatus(w, r)
	default:
		writeError(w, r, nethttp.StatusNotFound, "not found", h.logger)
	}
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeData(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports whether the initial snapshot load completed without error.
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	if h.state.Ready() {
		writeData(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	st := h.state.Status()
	msg := st.LoadError
	switch {
	case msg != "":
	case st.Loading:
		msg = "loading"
	default:
		msg = "not ready"
	}
	writeError(w, r, nethttp.StatusServiceUnavailable, msg, h.logger)
}

// State returns games, events, leagues and status in one consistent read.
func (h *Handler) State(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	writeData(w, nethttp.StatusOK, h.state.Snapshot(), h.logger)
}

// Games returns the reconciled games in display order.
func (h *Handler) Games(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	list := h.state.Games()
	if monitored, _ := strconv.ParseBool(r.URL.Query().Get("monitored")); monitored {
		list = h.state.MonitoredGames()
	}
	logging.Debug(loggerFromContext(r, h.logger), "served games", logging.FieldCount, len(list))
	writeData(w, nethttp.StatusOK, list, h.logger)
}

// GameByCode returns a single game from the reconciled collection.
func (h *Handler) GameByCode(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/state/games/")
	code, err := url.PathUnescape(raw)
	if err != nil || code == "" || strings.ContainsAny(code, " \t/") {
		writeError(w, r, nethttp.StatusBadRequest, "invalid game code", h.logger)
		return
	}
	game, ok := h.state.Game(code)
	if !ok {
		writeError(w, r, nethttp.StatusNotFound, "game not found", h.logger)
		return
	}
	writeData(w, nethttp.StatusOK, game, h.logger)
}

// Events returns the local event log, newest first.
func (h *Handler) Events(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	writeData(w, nethttp.StatusOK, h.state.Events(), h.logger)
}

// Leagues serves the cached league configuration (GET) and writes updates
// through the reconciler (POST).
func (h *Handler) Leagues(w nethttp.ResponseWriter, r *nethttp.Request) {
	switch r.Method {
	case nethttp.MethodGet:
		writeData(w, nethttp.StatusOK, h.state.Leagues(), h.logger)
	case nethttp.MethodPost:
		h.updateLeague(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
	}
}

func (h *Handler) updateLeague(w nethttp.ResponseWriter, r *nethttp.Request) {
	logger := loggerFromContext(r, h.logger)
	var req leagues.UpdateRequest
	if err := json.NewDecoder(nethttp.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid request body", logger)
		return
	}
	if req.LeagueID <= 0 {
		writeError(w, r, nethttp.StatusBadRequest, "leagueId must be positive", logger)
		return
	}
	if req.Teams == nil {
		req.Teams = []string{}
	}
	if err := h.state.UpdateLeague(r.Context(), req.LeagueID, req.Teams); err != nil {
		writeBackendError(w, r, h.logger, err, "failed to update league")
		return
	}
	writeMessage(w, nethttp.StatusOK, h.state.Leagues(), "league updated", logger)
}

// Status reports reconciler state plus stream and refresher status when wired.
func (h *Handler) Status(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !requireMethod(w, r, nethttp.MethodGet, h.logger) {
		return
	}
	report := StatusReport{State: h.state.Status()}
	if h.streamStatus != nil {
		st := h.streamStatus()
		report.Stream = &st
	}
	if h.pollerStatus != nil {
		st := h.pollerStatus()
		report.Poller = &st
	}
	writeData(w, nethttp.StatusOK, report, h.logger)
}

// Upcoming passes /api/upcoming through.
func (h *Handler) Upcoming(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !h.requireBackend(w, r, nethttp.MethodGet) {
		return
	}
	list, err := h.backend.FetchUpcoming(r.Context())
	if err != nil {
		writeBackendError(w, r, h.logger, err, "failed to fetch upcoming games")
		return
	}
	writeData(w, nethttp.StatusOK, list, h.logger)
}

// Teams passes /api/teams through; leagueId is required.
func (h *Handler) Teams(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !h.requireBackend(w, r, nethttp.MethodGet) {
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("leagueId"))
	if raw == "" {
		writeError(w, r, nethttp.StatusBadRequest, "leagueId is required", h.logger)
		return
	}
	leagueID, err := strconv.Atoi(raw)
	if err != nil || leagueID <= 0 {
		writeError(w, r, nethttp.StatusBadRequest, "invalid leagueId", h.logger)
		return
	}
	list, err := h.backend.FetchTeams(r.Context(), leagueID)
	if err != nil {
		writeBackendError(w, r, h.logger, err, "failed to fetch teams")
		return
	}
	writeData(w, nethttp.StatusOK, list, h.logger)
}

// History passes /api/games/history through; date is required as YYYY-MM-DD.
func (h *Handler) History(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !h.requireBackend(w, r, nethttp.MethodGet) {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, r, nethttp.StatusBadRequest, "date is required", h.logger)
		return
	}
	if _, err := api.ParseHistoryDate(date); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid date, expected YYYY-MM-DD", h.logger)
		return
	}
	list, err := h.backend.FetchHistory(r.Context(), date)
	if err != nil {
		writeBackendError(w, r, h.logger, err, "failed to fetch game history")
		return
	}
	writeData(w, nethttp.StatusOK, list, h.logger)
}

// RemoteEvents passes the backend's recent-events list through.
func (h *Handler) RemoteEvents(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !h.requireBackend(w, r, nethttp.MethodGet) {
		return
	}
	list, err := h.backend.FetchEvents(r.Context())
	if err != nil {
		writeBackendError(w, r, h.logger, err, "failed to fetch events")
		return
	}
	writeData(w, nethttp.StatusOK, list, h.logger)
}

// HomeAssistantConfig reads (GET) or writes (POST) the integration config.
func (h *Handler) HomeAssistantConfig(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.backend == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "backend not configured", h.logger)
		return
	}
	switch r.Method {
	case nethttp.MethodGet:
		cfg, err := h.backend.HomeAssistantConfig(r.Context())
		if err != nil {
			writeBackendError(w, r, h.logger, err, "failed to fetch home assistant config")
			return
		}
		writeData(w, nethttp.StatusOK, cfg, h.logger)
	case nethttp.MethodPost:
		body, err := io.ReadAll(nethttp.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil || !json.Valid(body) {
			writeError(w, r, nethttp.StatusBadRequest, "invalid request body", h.logger)
			return
		}
		out, err := h.backend.UpdateHomeAssistant(r.Context(), body)
		if err != nil {
			writeBackendError(w, r, h.logger, err, "failed to update home assistant config")
			return
		}
		writeData(w, nethttp.StatusOK, out, h.logger)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
	}
}

// HomeAssistantStatus passes the integration status through.
func (h *Handler) HomeAssistantStatus(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !h.requireBackend(w, r, nethttp.MethodGet) {
		return
	}
	st, err := h.backend.HomeAssistantStatus(r.Context())
	if err != nil {
		writeBackendError(w, r, h.logger, err, "failed to fetch home assistant status")
		return
	}
	writeData(w, nethttp.StatusOK, st, h.logger)
}

func (h *Handler) requireBackend(w nethttp.ResponseWriter, r *nethttp.Request, method string) bool {
	if !requireMethod(w, r, method, h.logger) {
		return false
	}
	if h.backend == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "backend not configured", h.logger)
		return false
	}
	return true
}

// writeBackendError maps backend rejections (4xx, or success=false) to 400
// with the backend's message; everything else is a 502.
func writeBackendError(w nethttp.ResponseWriter, r *nethttp.Request, fallbackLogger *slog.Logger, err error, fallback string) {
	logger := loggerFromContext(r, fallbackLogger)
	if errors.Is(err, context.Canceled) {
		writeError(w, r, nethttp.StatusServiceUnavailable, "request cancelled", logger)
		return
	}
	if apiErr, ok := api.AsError(err); ok && apiErr.StatusCode < 500 {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		writeError(w, r, nethttp.StatusBadRequest, msg, logger)
		return
	}
	logging.Warn(logger, fallback, "err", err)
	writeError(w, r, nethttp.StatusBadGateway, fallback, logger)
}
