package http

import (
	nethttp "net/http"

	"github.com/preston-bernstein/goalfeed-live/internal/http/handlers"
)

// NewRouter registers HTTP routes on a ServeMux. admin may be nil, in which
// case POST /refresh is not mounted.
func NewRouter(handler *handlers.Handler, admin *handlers.AdminHandler) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/ready", handler.Ready)
	mux.HandleFunc("/state", handler.State)
	mux.HandleFunc("/state/games", handler.Games)
	mux.HandleFunc("/state/games/", handler.GameByCode)
	mux.HandleFunc("/state/events", handler.Events)
	mux.HandleFunc("/state/leagues", handler.Leagues)
	mux.HandleFunc("/state/status", handler.Status)
	mux.HandleFunc("/upcoming", handler.Upcoming)
	mux.HandleFunc("/teams", handler.Teams)
	mux.HandleFunc("/history", handler.History)
	mux.HandleFunc("/events/remote", handler.RemoteEvents)
	mux.HandleFunc("/homeassistant/config", handler.HomeAssistantConfig)
	mux.HandleFunc("/homeassistant/status", handler.HomeAssistantStatus)
	if admin != nil {
		mux.HandleFunc("/refresh", admin.Refresh)
	}
	mux.Handle("/", handler)
	return mux
}
