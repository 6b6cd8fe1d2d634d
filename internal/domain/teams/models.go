package teams

// Team is one selectable team as listed by the backend for a league.
// Codes are what league configurations store in their monitored list.
type Team struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Logo     string `json:"logo,omitempty"`
}

// Ref is the team shape embedded in game state payloads.
type Ref struct {
	TeamID   int    `json:"teamId"`
	TeamCode string `json:"teamCode"`
	TeamName string `json:"teamName"`
	LeagueID int    `json:"leagueId"`
	ExtID    string `json:"extId"`
	LogoURL  string `json:"logoUrl,omitempty"`
}
