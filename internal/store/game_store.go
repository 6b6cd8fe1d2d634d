package store

import (
	"sync"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/games"
)

// GameStore keeps an ordered, thread-safe collection of games with at most
// one entry per game code. New games go to the front.
type GameStore struct {
	mu    sync.RWMutex
	games []games.Game
	index map[string]int
}

// NewGameStore constructs an empty GameStore.
func NewGameStore() *GameStore {
	return &GameStore{index: make(map[string]int)}
}

// Upsert replaces the game with the same code in place, or prepends it.
// It reports whether the game was new.
func (s *GameStore) Upsert(g games.Game) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[g.GameCode]; ok {
		s.games[i] = g.Clone()
		return false
	}

	s.games = append([]games.Game{g.Clone()}, s.games...)
	s.reindex()
	return true
}

// Replace swaps the whole collection for list. Order is kept; a repeated
// code keeps its first position and its last value.
func (s *GameStore) Replace(list []games.Game) {
	next := make([]games.Game, 0, len(list))
	index := make(map[string]int, len(list))
	for _, g := range list {
		if i, ok := index[g.GameCode]; ok {
			next[i] = g.Clone()
			continue
		}
		index[g.GameCode] = len(next)
		next = append(next, g.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = next
	s.index = index
}

// List returns a copy of the games in display order.
func (s *GameStore) List() []games.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]games.Game, len(s.games))
	for i, g := range s.games {
		result[i] = g.Clone()
	}
	return result
}

// Get retrieves a game by code.
func (s *GameStore) Get(code string) (games.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[code]
	if !ok {
		return games.Game{}, false
	}
	return s.games[i].Clone(), true
}

// Len returns the number of games held.
func (s *GameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func (s *GameStore) reindex() {
	s.index = make(map[string]int, len(s.games))
	for i, g := range s.games {
		s.index[g.GameCode] = i
	}
}
