package models

import (
	"fmt"
	"time"
)

const (
	// SeasonWeeks is the number of regular season weeks replayed per team.
	SeasonWeeks = 18

	NotAvailable = "N/A"
	ByeLabel     = "Bye"
)

type LeagueRef struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type TeamKey struct {
	LeagueID string
	RosterID int
}

type WeekKey struct {
	LeagueID string
	RosterID int
	Week     int
}

type Roster struct {
	LeagueID      string
	RosterID      int
	OwnerID       string
	Starters      []string
	Players       []string
	Wins          int
	Losses        int
	Ties          int
	PointsFor     float64
	PointsAgainst float64
}

type Owner struct {
	UserID      string
	DisplayName string
	TeamName    string
}

type MatchupRecord struct {
	LeagueID  string
	Week      int
	RosterID  int
	MatchupID *int
	Points    float64
}

type Result string

const (
	Win  Result = "W"
	Loss Result = "L"
	Tie  Result = "T"
)

type MatchupOutcome struct {
	LeagueID string
	Week     int
	RosterID int
	Points   float64
	Result   Result
}

type TransactionRecord struct {
	LeagueID  string
	ID        string
	Type      string
	Status    string
	RosterIDs []int
	Adds      map[string]int
	Created   time.Time
}

type TransactionTally struct {
	LeagueID string
	RosterID int
	Trades   int
	Waivers  int
}

type Player struct {
	ID       string
	FullName string
	Position string
}

// PlayerDirectory maps a Sleeper player id to its display data.
type PlayerDirectory map[string]Player

type TradePlayer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type TradeSide struct {
	RosterID   int           `json:"roster_id"`
	RosterName string        `json:"roster_name"`
	Players    []TradePlayer `json:"players"`
}

type TradeCard struct {
	TransactionID string      `json:"transaction_id"`
	LeagueID      string      `json:"league_id"`
	LeagueName    string      `json:"league_name"`
	Created       time.Time   `json:"created"`
	Sides         []TradeSide `json:"sides"`
}

// SLPEntry is one week of a team's league points trace. Bye entries carry
// no points, result or delta.
type SLPEntry struct {
	Week       int     `json:"week"`
	Bye        bool    `json:"bye"`
	Points     float64 `json:"points"`
	Result     Result  `json:"result,omitempty"`
	Delta      int     `json:"delta"`
	ScoreAfter int     `json:"score_after"`
}

type SLPState struct {
	RosterID int        `json:"roster_id"`
	Seed     int        `json:"seed"`
	Final    int        `json:"final"`
	Trace    []SLPEntry `json:"trace"`
}

type WeekCell struct {
	Week   int     `json:"week"`
	Bye    bool    `json:"bye"`
	Points float64 `json:"points"`
	Result Result  `json:"result,omitempty"`
}

func (c WeekCell) String() string {
	if c.Bye {
		return ByeLabel
	}
	return fmt.Sprintf("%.2f%s", c.Points, c.Result)
}

type TeamRow struct {
	ID            string     `json:"id"`
	LeagueID      string     `json:"league_id"`
	League        string     `json:"league"`
	RosterID      int        `json:"roster_id"`
	Team          string     `json:"team"`
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name"`
	Wins          int        `json:"wins"`
	Losses        int        `json:"losses"`
	Ties          int        `json:"ties"`
	PointsFor     float64    `json:"pf"`
	PointsAgainst float64    `json:"pa"`
	Trades        int        `json:"trades"`
	Waivers       int        `json:"waivers"`
	Weeks         []WeekCell `json:"weeks"`
	SLP           SLPState   `json:"slp"`
}

// FetchFailure is a read operation that ended Missing during a refresh.
type FetchFailure struct {
	Kind     string `json:"kind"`
	LeagueID string `json:"league_id"`
	Week     int    `json:"week,omitempty"`
	Error    string `json:"error"`
}

// Report is one refresh snapshot: every assembled row plus what could not
// be read.
type Report struct {
	RunID       string         `json:"run_id"`
	Trigger     string         `json:"trigger"`
	GeneratedAt time.Time      `json:"generated_at"`
	Duration    time.Duration  `json:"duration"`
	Season      string         `json:"season,omitempty"`
	Week        int            `json:"week,omitempty"`
	Operations  int            `json:"operations"`
	Rows        []TeamRow      `json:"rows"`
	Failures    []FetchFailure `json:"failures"`
}
