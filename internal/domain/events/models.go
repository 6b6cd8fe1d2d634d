package events

import (
	"encoding/json"
	"time"
)

// Type names the kind of occurrence (goal, penalty, ...).
type Type string

const (
	TypeGoal        Type = "goal"
	TypePenalty     Type = "penalty"
	TypePowerPlay   Type = "power_play"
	TypeTouchdown   Type = "touchdown"
	TypeFieldGoal   Type = "field_goal"
	TypeHomeRun     Type = "home_run"
	TypePeriodStart Type = "period_start"
	TypePeriodEnd   Type = "period_end"
	TypeGameStart   Type = "game_start"
	TypeGameEnd     Type = "game_end"
)

// ScoreUpdate is the score carried alongside a scoring event.
type ScoreUpdate struct {
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
}

// Event is an immutable occurrence tied to a team and a game.
type Event struct {
	ID           string          `json:"id"`
	Type         Type            `json:"type"`
	Timestamp    time.Time       `json:"timestamp"`
	Description  string          `json:"description"`
	TeamCode     string          `json:"teamCode"`
	TeamName     string          `json:"teamName"`
	TeamHash     string          `json:"teamHash"`
	PlayerName   string          `json:"playerName,omitempty"`
	PlayerNumber int             `json:"playerNumber,omitempty"`
	LeagueID     int             `json:"leagueId"`
	LeagueName   string          `json:"leagueName"`
	GameCode     string          `json:"gameCode"`
	GameID       string          `json:"gameId"`
	Period       int             `json:"period"`
	Time         string          `json:"time"`
	Clock        string          `json:"clock,omitempty"`
	OpponentCode string          `json:"opponentCode"`
	OpponentName string          `json:"opponentName"`
	OpponentHash string          `json:"opponentHash"`
	Score        *ScoreUpdate    `json:"score,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
}

// IsScoring reports whether the event changes the score.
func (e Event) IsScoring() bool {
	switch e.Type {
	case TypeGoal, TypeTouchdown, TypeFieldGoal, TypeHomeRun:
		return true
	}
	return false
}

// Clone returns a copy that shares no memory with e.
func (e Event) Clone() Event {
	out := e
	if e.Score != nil {
		s := *e.Score
		out.Score = &s
	}
	if e.Details != nil {
		out.Details = append(json.RawMessage(nil), e.Details...)
	}
	return out
}
