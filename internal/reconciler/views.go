package reconciler

import (
	"time"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/events"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/games"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/leagues"
)

// Status summarizes the reconciled state for display and readiness checks.
type Status struct {
	Loading    bool      `json:"loading"`
	Loaded     bool      `json:"loaded"`
	LoadError  string    `json:"loadError,omitempty"`
	Connected  bool      `json:"connected"`
	Games      int       `json:"games"`
	Events     int       `json:"events"`
	Scoring    int       `json:"scoringEvents"`
	EventCap   int       `json:"eventCap"`
	Leagues    int       `json:"leagues"`
	LastUpdate time.Time `json:"lastUpdate,omitempty"`
}

// Snapshot is a consistent copy of everything the reconciler holds.
type Snapshot struct {
	Games   []games.Game     `json:"games"`
	Events  []events.Event   `json:"events"`
	Leagues []leagues.Config `json:"leagues"`
	Status  Status           `json:"status"`
}

// Games returns the games in display order.
func (r *Reconciler) Games() []games.Game {
	return r.games.List()
}

// Game returns one game by code.
func (r *Reconciler) Game(code string) (games.Game, bool) {
	return r.games.Get(code)
}

// Events returns the event log, newest first.
func (r *Reconciler) Events() []events.Event {
	return r.events.List()
}

// MonitoredGames returns the games in display order whose home or away team
// is watched by the cached configuration of the game's league.
func (r *Reconciler) MonitoredGames() []games.Game {
	r.mu.RLock()
	byLeague := make(map[int]leagues.Config, len(r.leagues))
	for _, c := range r.leagues {
		byLeague[c.LeagueID] = c.Clone()
	}
	r.mu.RUnlock()

	var out []games.Game
	for _, g := range r.games.List() {
		cfg, ok := byLeague[g.LeagueID]
		if !ok {
			continue
		}
		if cfg.Monitors(g.CurrentState.Home.Team.TeamCode) || cfg.Monitors(g.CurrentState.Away.Team.TeamCode) {
			out = append(out, g)
		}
	}
	if out == nil {
		out = []games.Game{}
	}
	return out
}

// Leagues returns the cached league configuration.
func (r *Reconciler) Leagues() []leagues.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leaguesLocked()
}

func (r *Reconciler) leaguesLocked() []leagues.Config {
	out := make([]leagues.Config, len(r.leagues))
	for i, c := range r.leagues {
		out[i] = c.Clone()
	}
	return out
}

// Status reports load and connectivity state.
func (r *Reconciler) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statusLocked()
}

func (r *Reconciler) statusLocked() Status {
	st := Status{
		Loading:    r.loading,
		Loaded:     r.loaded,
		Connected:  r.connected,
		Games:      r.games.Len(),
		Events:     r.events.Len(),
		Scoring:    r.events.Scoring(),
		EventCap:   r.events.Cap(),
		Leagues:    len(r.leagues),
		LastUpdate: r.lastUpdate,
	}
	if r.loadErr != nil {
		st.LoadError = r.loadErr.Error()
	}
	return st
}

// Snapshot returns games, events, leagues and status taken under one lock.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Games:   r.games.List(),
		Events:  r.events.List(),
		Leagues: r.leaguesLocked(),
		Status:  r.statusLocked(),
	}
}

// Ready reports whether the initial load finished without error.
func (r *Reconciler) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded && r.loadErr == nil
}
