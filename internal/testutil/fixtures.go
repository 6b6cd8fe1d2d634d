package testutil

import (
	"time"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/events"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/games"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/leagues"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/teams"
)

// SampleGame returns a minimal active NHL game fixture with the provided code.
func SampleGame(code string) games.Game {
	return games.Game{
		GameCode:   code,
		LeagueID:   1,
		LeagueName: "NHL",
		CurrentState: games.GameState{
			Home:   games.TeamState{Team: teams.Ref{TeamCode: "TOR", TeamName: "Toronto Maple Leafs"}},
			Away:   games.TeamState{Team: teams.Ref{TeamCode: "MTL", TeamName: "Montreal Canadiens"}},
			Status: games.StatusActive,
			Period: 1,
		},
		ExtTimestamp: "20240101_190000",
	}
}

// SampleGames builds one SampleGame per code, in order.
func SampleGames(codes ...string) []games.Game {
	out := make([]games.Game, len(codes))
	for i, c := range codes {
		out[i] = SampleGame(c)
	}
	return out
}

// SampleEvent returns a goal event fixture with the provided id.
func SampleEvent(id string) events.Event {
	return events.Event{
		ID:          id,
		Type:        events.TypeGoal,
		Timestamp:   time.Date(2024, 1, 1, 19, 30, 0, 0, time.UTC),
		Description: "Goal",
		TeamCode:    "TOR",
		LeagueID:    1,
		LeagueName:  "NHL",
		GameCode:    "game-1",
	}
}

// SampleLeagues returns the four leagues the backend serves.
func SampleLeagues() []leagues.Config {
	return []leagues.Config{
		{LeagueID: 1, LeagueName: "NHL", Teams: []string{"TOR"}},
		{LeagueID: 2, LeagueName: "MLB", Teams: []string{}},
		{LeagueID: 5, LeagueName: "CFL", Teams: []string{}},
		{LeagueID: 6, LeagueName: "NFL", Teams: []string{"*"}},
	}
}

// SampleTeam returns a team fixture with the provided code.
func SampleTeam(code string) teams.Team {
	return teams.Team{Code: code, Name: code + " Team", Location: "Somewhere"}
}
