package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/games"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/leagues"
)

// LeagueUpdate records one UpdateLeague call.
type LeagueUpdate struct {
	LeagueID int
	Teams    []string
}

// StubBackend is a test double for the snapshot API used by the reconciler.
// GamesGate, when set, blocks FetchGames until it is closed or receives.
type StubBackend struct {
	mu        sync.Mutex
	Games     []games.Game
	GamesErr  error
	Leagues   []leagues.Config
	LeagueErr error
	UpdateErr error
	GamesGate chan struct{}
	Updates   []LeagueUpdate

	GameCalls   atomic.Int32
	LeagueCalls atomic.Int32
}

// SetGames swaps the games returned by later FetchGames calls.
func (s *StubBackend) SetGames(list []games.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Games = list
}

// FetchGames returns the configured games and error while tracking calls.
func (s *StubBackend) FetchGames(ctx context.Context) ([]games.Game, error) {
	s.GameCalls.Add(1)
	if s.GamesGate != nil {
		select {
		case <-s.GamesGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GamesErr != nil {
		return nil, s.GamesErr
	}
	return append([]games.Game(nil), s.Games...), nil
}

// FetchLeagues returns the configured leagues and error.
func (s *StubBackend) FetchLeagues(ctx context.Context) ([]leagues.Config, error) {
	_ = ctx
	s.LeagueCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LeagueErr != nil {
		return nil, s.LeagueErr
	}
	return append([]leagues.Config(nil), s.Leagues...), nil
}

// UpdateLeague records the request and returns UpdateErr.
func (s *StubBackend) UpdateLeague(ctx context.Context, leagueID int, teams []string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, LeagueUpdate{LeagueID: leagueID, Teams: append([]string(nil), teams...)})
	return s.UpdateErr
}

// UpdateCalls returns a copy of recorded league updates.
func (s *StubBackend) UpdateCalls() []LeagueUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LeagueUpdate(nil), s.Updates...)
}
