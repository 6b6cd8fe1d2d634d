package api

const (
	defaultBaseURL = "http://localhost:8080"
	maxErrorBody   = 512

	PathGames         = "/api/games"
	PathHistory       = "/api/games/history"
	PathUpcoming      = "/api/upcoming"
	PathLeagues       = "/api/leagues"
	PathTeams         = "/api/teams"
	PathEvents        = "/api/events"
	PathRefresh       = "/api/refresh"
	PathHAConfig      = "/api/homeassistant/config"
	PathHAStatus      = "/api/homeassistant/status"
	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"

	// HistoryDateLayout is the day format the history endpoint accepts.
	HistoryDateLayout = "2006-01-02"
)
