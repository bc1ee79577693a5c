package matchup

import (
	"sort"

	"github.com/omarshaarawi/superliga/internal/models"
)

// Resolve pairs one league week of raw records by matchup id and decides the
// result of each side. Only groups of exactly two records are resolved;
// records without a matchup id and groups of any other size produce no
// outcome, which downstream reads as a bye.
func Resolve(leagueID string, week int, records []models.MatchupRecord) []models.MatchupOutcome {
	groups := make(map[int][]models.MatchupRecord)
	var ids []int

	for _, r := range records {
		if r.MatchupID == nil {
			continue
		}
		id := *r.MatchupID
		if _, ok := groups[id]; !ok {
			ids = append(ids, id)
		}
		groups[id] = append(groups[id], r)
	}
	sort.Ints(ids)

	outcomes := make([]models.MatchupOutcome, 0, len(records))
	for _, id := range ids {
		pair := groups[id]
		if len(pair) != 2 {
			continue
		}
		a, b := pair[0], pair[1]
		outcomes = append(outcomes,
			models.MatchupOutcome{LeagueID: leagueID, Week: week, RosterID: a.RosterID, Points: a.Points, Result: compare(a.Points, b.Points)},
			models.MatchupOutcome{LeagueID: leagueID, Week: week, RosterID: b.RosterID, Points: b.Points, Result: compare(b.Points, a.Points)},
		)
	}

	return outcomes
}

func compare(own, opponent float64) models.Result {
	switch {
	case own > opponent:
		return models.Win
	case own < opponent:
		return models.Loss
	default:
		return models.Tie
	}
}

// Table holds resolved outcomes keyed by league, roster and week.
type Table map[models.WeekKey]models.MatchupOutcome

// BuildTable folds outcomes into a Table. A later outcome for the same key
// replaces an earlier one.
func BuildTable(outcomes ...[]models.MatchupOutcome) Table {
	t := make(Table)
	for _, list := range outcomes {
		for _, o := range list {
			t[models.WeekKey{LeagueID: o.LeagueID, RosterID: o.RosterID, Week: o.Week}] = o
		}
	}
	return t
}

func (t Table) Lookup(leagueID string, rosterID, week int) (models.MatchupOutcome, bool) {
	o, ok := t[models.WeekKey{LeagueID: leagueID, RosterID: rosterID, Week: week}]
	return o, ok
}

// Season returns the outcomes of weeks 1..weeks for one roster. Missing
// weeks are nil.
func (t Table) Season(leagueID string, rosterID, weeks int) []*models.MatchupOutcome {
	season := make([]*models.MatchupOutcome, weeks)
	for w := 1; w <= weeks; w++ {
		if o, ok := t.Lookup(leagueID, rosterID, w); ok {
			season[w-1] = &o
		}
	}
	return season
}
