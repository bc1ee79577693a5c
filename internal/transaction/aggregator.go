package transaction

import "github.com/omarshaarawi/superliga/internal/models"

const (
	TypeTrade  = "trade"
	TypeWaiver = "waiver"

	StatusComplete = "complete"
)

// Tallies holds trade and waiver counters keyed by league and roster.
type Tallies map[models.TeamKey]models.TransactionTally

// Get returns the tally for a roster, or a zero tally when it has none.
func (t Tallies) Get(leagueID string, rosterID int) models.TransactionTally {
	if tally, ok := t[models.TeamKey{LeagueID: leagueID, RosterID: rosterID}]; ok {
		return tally
	}
	return models.TransactionTally{LeagueID: leagueID, RosterID: rosterID}
}

// Tally counts completed trades and waivers for one league. Every roster
// listed as a participant is credited, not only the one that started it.
func Tally(leagueID string, txs []models.TransactionRecord) Tallies {
	tallies := make(Tallies)
	tallies.add(leagueID, txs)
	return tallies
}

// TallyAll counts every league in byLeague into one table.
func TallyAll(byLeague map[string][]models.TransactionRecord) Tallies {
	tallies := make(Tallies)
	for leagueID, txs := range byLeague {
		tallies.add(leagueID, txs)
	}
	return tallies
}

func (t Tallies) add(leagueID string, txs []models.TransactionRecord) {
	for _, tx := range txs {
		if tx.Status != StatusComplete {
			continue
		}
		if tx.Type != TypeTrade && tx.Type != TypeWaiver {
			continue
		}
		for _, rosterID := range tx.RosterIDs {
			tally := t.Get(leagueID, rosterID)
			if tx.Type == TypeTrade {
				tally.Trades++
			} else {
				tally.Waivers++
			}
			t[models.TeamKey{LeagueID: leagueID, RosterID: rosterID}] = tally
		}
	}
}
