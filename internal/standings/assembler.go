package standings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/omarshaarawi/superliga/internal/matchup"
	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/slp"
	"github.com/omarshaarawi/superliga/internal/transaction"
)

// Input is everything the assembler joins. Rosters and Owners are keyed by
// league id; a league with no entry simply contributes no rows.
type Input struct {
	Leagues  []models.LeagueRef
	Rosters  map[string][]models.Roster
	Owners   map[string][]models.Owner
	Tallies  transaction.Tallies
	Outcomes matchup.Table
	// Seeds maps a user id to the score the team starts the season with.
	Seeds map[string]int
	Weeks int
}

// Assemble produces one row per roster, in league order then roster order.
// Missing joins fall back to neutral values instead of failing.
func Assemble(in Input) []models.TeamRow {
	weeks := in.Weeks
	if weeks <= 0 {
		weeks = models.SeasonWeeks
	}

	var rows []models.TeamRow
	for _, league := range in.Leagues {
		owners := ownersByID(in.Owners[league.ID])

		for _, r := range in.Rosters[league.ID] {
			owner, hasOwner := owners[r.OwnerID]
			tally := in.Tallies.Get(league.ID, r.RosterID)
			season := in.Outcomes.Season(league.ID, r.RosterID, weeks)

			row := models.TeamRow{
				ID:            fmt.Sprintf("%s-%d", league.ID, r.RosterID),
				LeagueID:      league.ID,
				League:        league.Name,
				RosterID:      r.RosterID,
				Team:          TeamName(owner, hasOwner),
				UserID:        models.NotAvailable,
				UserName:      models.NotAvailable,
				Wins:          r.Wins,
				Losses:        r.Losses,
				Ties:          r.Ties,
				PointsFor:     r.PointsFor,
				PointsAgainst: r.PointsAgainst,
				Trades:        tally.Trades,
				Waivers:       tally.Waivers,
				Weeks:         cells(season),
			}
			if hasOwner {
				row.UserID = owner.UserID
				if owner.DisplayName != "" {
					row.UserName = owner.DisplayName
				}
			}

			seed := 0
			if hasOwner {
				seed = in.Seeds[owner.UserID]
			}
			row.SLP = slp.Replay(r.RosterID, seed, weeks, func(week int) (models.MatchupOutcome, bool) {
				if o := season[week-1]; o != nil {
					return *o, true
				}
				return models.MatchupOutcome{}, false
			})

			rows = append(rows, row)
		}
	}

	return rows
}

// TeamName prefers the owner's team name, then the display name.
func TeamName(owner models.Owner, ok bool) string {
	switch {
	case !ok:
		return models.NotAvailable
	case owner.TeamName != "":
		return owner.TeamName
	case owner.DisplayName != "":
		return owner.DisplayName
	default:
		return models.NotAvailable
	}
}

func ownersByID(owners []models.Owner) map[string]models.Owner {
	m := make(map[string]models.Owner, len(owners))
	for _, o := range owners {
		m[o.UserID] = o
	}
	return m
}

func cells(season []*models.MatchupOutcome) []models.WeekCell {
	out := make([]models.WeekCell, len(season))
	for i, o := range season {
		if o == nil {
			out[i] = models.WeekCell{Week: i + 1, Bye: true}
			continue
		}
		out[i] = models.WeekCell{Week: i + 1, Points: o.Points, Result: o.Result}
	}
	return out
}

// Filter keeps rows where any visible field contains text, case-insensitively.
func Filter(rows []models.TeamRow, text string) []models.TeamRow {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return rows
	}

	var out []models.TeamRow
	for _, row := range rows {
		for _, field := range searchable(row) {
			if strings.Contains(strings.ToLower(field), text) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func searchable(row models.TeamRow) []string {
	fields := []string{
		row.ID, row.League, row.Team, row.UserID, row.UserName,
		strconv.Itoa(row.Wins), strconv.Itoa(row.Losses),
		strconv.FormatFloat(row.PointsFor, 'f', -1, 64),
		strconv.FormatFloat(row.PointsAgainst, 'f', -1, 64),
		strconv.Itoa(row.Trades), strconv.Itoa(row.Waivers),
	}
	for _, c := range row.Weeks {
		fields = append(fields, c.String())
	}
	return fields
}

// Sort orders rows by final league points, then wins, then points for.
func Sort(rows []models.TeamRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SLP.Final != rows[j].SLP.Final {
			return rows[i].SLP.Final > rows[j].SLP.Final
		}
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].PointsFor > rows[j].PointsFor
	})
}
