package models

// Wire shapes returned by the Sleeper read API.

type SleeperRoster struct {
	RosterID int            `json:"roster_id"`
	OwnerID  string         `json:"owner_id"`
	LeagueID string         `json:"league_id"`
	Starters []string       `json:"starters"`
	Players  []string       `json:"players"`
	Reserve  []string       `json:"reserve"`
	Settings RosterSettings `json:"settings"`
}

type RosterSettings struct {
	Wins               int `json:"wins"`
	Losses             int `json:"losses"`
	Ties               int `json:"ties"`
	TotalMoves         int `json:"total_moves"`
	WaiverPosition     int `json:"waiver_position"`
	WaiverBudgetUsed   int `json:"waiver_budget_used"`
	Fpts               int `json:"fpts"`
	FptsDecimal        int `json:"fpts_decimal"`
	FptsAgainst        int `json:"fpts_against"`
	FptsAgainstDecimal int `json:"fpts_against_decimal"`
}

type SleeperUser struct {
	UserID      string       `json:"user_id"`
	Username    string       `json:"username"`
	DisplayName string       `json:"display_name"`
	Avatar      string       `json:"avatar"`
	IsOwner     bool         `json:"is_owner"`
	Metadata    UserMetadata `json:"metadata"`
}

type UserMetadata struct {
	TeamName string `json:"team_name"`
}

type SleeperMatchup struct {
	RosterID     int      `json:"roster_id"`
	MatchupID    *int     `json:"matchup_id"`
	Starters     []string `json:"starters"`
	Players      []string `json:"players"`
	Points       float64  `json:"points"`
	CustomPoints *float64 `json:"custom_points"`
}

type SleeperTransaction struct {
	TransactionID string         `json:"transaction_id"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Creator       string         `json:"creator"`
	Created       int64          `json:"created"`
	Leg           int            `json:"leg"`
	RosterIDs     []int          `json:"roster_ids"`
	ConsenterIDs  []int          `json:"consenter_ids"`
	Adds          map[string]int `json:"adds"`
	Drops         map[string]int `json:"drops"`
}

type SleeperPlayer struct {
	PlayerID  string `json:"player_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Team      string `json:"team"`
	Position  string `json:"position"`
	Status    string `json:"status"`
}

type SportState struct {
	Week           int    `json:"week"`
	DisplayWeek    int    `json:"display_week"`
	SeasonType     string `json:"season_type"`
	Season         string `json:"season"`
	LeagueSeason   string `json:"league_season"`
	PreviousSeason string `json:"previous_season"`
}
