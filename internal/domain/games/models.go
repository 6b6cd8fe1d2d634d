package games

import (
	"encoding/json"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/teams"
)

// GameStatus mirrors the backend contract for game lifecycle states.
type GameStatus string

const (
	StatusUpcoming GameStatus = "upcoming"
	StatusActive   GameStatus = "active"
	StatusDelayed  GameStatus = "delayed"
	StatusEnded    GameStatus = "ended"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s GameStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusDelayed, StatusEnded:
		return true
	}
	return false
}

// TeamState is one side of a game.
type TeamState struct {
	Team         teams.Ref `json:"team"`
	Score        int       `json:"score"`
	PeriodScores []int     `json:"periodScores,omitempty"`
}

// Venue is where the game is played.
type Venue struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// GameState is the current-state snapshot nested in a Game.
// League-specific payloads (details, statistics) are kept opaque.
type GameState struct {
	Home          TeamState       `json:"home"`
	Away          TeamState       `json:"away"`
	Status        GameStatus      `json:"status"`
	FetchedAt     string          `json:"fetchedAt,omitempty"`
	ExtTimestamp  string          `json:"extTimestamp,omitempty"`
	Period        int             `json:"period,omitempty"`
	PeriodType    string          `json:"periodType,omitempty"`
	TimeRemaining string          `json:"timeRemaining,omitempty"`
	Clock         string          `json:"clock,omitempty"`
	Venue         *Venue          `json:"venue,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
	Statistics    json.RawMessage `json:"statistics,omitempty"`
}

// Game is the unit of the reconciled games collection, keyed by GameCode.
type Game struct {
	GameCode     string          `json:"gameCode"`
	LeagueID     int             `json:"leagueId"`
	LeagueName   string          `json:"leagueName,omitempty"`
	CurrentState GameState       `json:"currentState"`
	IsFetching   bool            `json:"isFetching"`
	ExtTimestamp string          `json:"extTimestamp"`
	GameDetails  json.RawMessage `json:"gameDetails,omitempty"`
	Statistics   json.RawMessage `json:"statistics,omitempty"`
}

// Score returns the home and away scores.
func (g Game) Score() (home, away int) {
	return g.CurrentState.Home.Score, g.CurrentState.Away.Score
}

// Clone returns a copy that shares no mutable memory with g.
func (g Game) Clone() Game {
	out := g
	out.CurrentState.Home.PeriodScores = cloneInts(g.CurrentState.Home.PeriodScores)
	out.CurrentState.Away.PeriodScores = cloneInts(g.CurrentState.Away.PeriodScores)
	if g.CurrentState.Venue != nil {
		v := *g.CurrentState.Venue
		out.CurrentState.Venue = &v
	}
	out.CurrentState.Details = cloneRaw(g.CurrentState.Details)
	out.CurrentState.Statistics = cloneRaw(g.CurrentState.Statistics)
	out.GameDetails = cloneRaw(g.GameDetails)
	out.Statistics = cloneRaw(g.Statistics)
	return out
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	return append([]int(nil), in...)
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if in == nil {
		return nil
	}
	return append(json.RawMessage(nil), in...)
}
