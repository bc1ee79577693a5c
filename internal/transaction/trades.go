package transaction

import (
	"sort"

	"github.com/omarshaarawi/superliga/internal/models"
)

const unknownPosition = "?"

// CompletedTrades keeps only trades that went through.
func CompletedTrades(txs []models.TransactionRecord) []models.TransactionRecord {
	var trades []models.TransactionRecord
	for _, tx := range txs {
		if tx.Type == TypeTrade && tx.Status == StatusComplete {
			trades = append(trades, tx)
		}
	}
	return trades
}

// Received lists the players a roster got out of a transaction, i.e. the
// adds assigned to that roster. Unknown players keep their raw id as name.
func Received(tx models.TransactionRecord, rosterID int, directory models.PlayerDirectory) []models.TradePlayer {
	var ids []string
	for playerID, assigned := range tx.Adds {
		if assigned == rosterID {
			ids = append(ids, playerID)
		}
	}
	sort.Strings(ids)

	players := make([]models.TradePlayer, 0, len(ids))
	for _, playerID := range ids {
		p := models.TradePlayer{ID: playerID, Name: playerID, Position: unknownPosition}
		if info, ok := directory[playerID]; ok {
			if info.FullName != "" {
				p.Name = info.FullName
			}
			if info.Position != "" {
				p.Position = info.Position
			}
		}
		players = append(players, p)
	}
	return players
}

// ExtractTrades builds one card per completed trade with what each
// participant received. leagueNames is keyed by league id; rosterNames by
// league and roster.
func ExtractTrades(
	txs []models.TransactionRecord,
	leagueNames map[string]string,
	rosterNames map[models.TeamKey]string,
	directory models.PlayerDirectory,
) []models.TradeCard {
	trades := CompletedTrades(txs)
	cards := make([]models.TradeCard, 0, len(trades))

	for _, tx := range trades {
		card := models.TradeCard{
			TransactionID: tx.ID,
			LeagueID:      tx.LeagueID,
			LeagueName:    orNA(leagueNames[tx.LeagueID]),
			Created:       tx.Created,
			Sides:         make([]models.TradeSide, 0, len(tx.RosterIDs)),
		}
		for _, rosterID := range tx.RosterIDs {
			card.Sides = append(card.Sides, models.TradeSide{
				RosterID:   rosterID,
				RosterName: orNA(rosterNames[models.TeamKey{LeagueID: tx.LeagueID, RosterID: rosterID}]),
				Players:    Received(tx, rosterID, directory),
			})
		}
		cards = append(cards, card)
	}

	return cards
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
