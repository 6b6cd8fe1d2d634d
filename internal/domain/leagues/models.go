package leagues

// Config is the user-editable list of monitored team codes for one league.
type Config struct {
	LeagueID   int      `json:"leagueId"`
	LeagueName string   `json:"leagueName"`
	Teams      []string `json:"teams"`
}

// UpdateRequest is the body of a configuration write.
type UpdateRequest struct {
	LeagueID int      `json:"leagueId"`
	Teams    []string `json:"teams"`
}

// Clone returns a copy with its own Teams slice.
func (c Config) Clone() Config {
	out := c
	if c.Teams != nil {
		out.Teams = append([]string(nil), c.Teams...)
	}
	return out
}

// Monitors reports whether the league watches the given team code ("*" watches all).
func (c Config) Monitors(teamCode string) bool {
	for _, t := range c.Teams {
		if t == "*" || t == teamCode {
			return true
		}
	}
	return false
}
