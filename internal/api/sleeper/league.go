package sleeper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/omarshaarawi/superliga/internal/models"
)

type API struct {
	client *Client
}

func NewAPI(client *Client) *API {
	return &API{client: client}
}

func (a *API) GetRosters(ctx context.Context, leagueID string) ([]models.Roster, error) {
	var resp []models.SleeperRoster
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/rosters", leagueID), &resp); err != nil {
		return nil, fmt.Errorf("fetching rosters: %w", err)
	}

	rosters := make([]models.Roster, len(resp))
	for i, r := range resp {
		rosters[i] = models.Roster{
			LeagueID:      leagueID,
			RosterID:      r.RosterID,
			OwnerID:       r.OwnerID,
			Starters:      r.Starters,
			Players:       r.Players,
			Wins:          r.Settings.Wins,
			Losses:        r.Settings.Losses,
			Ties:          r.Settings.Ties,
			PointsFor:     withDecimal(r.Settings.Fpts, r.Settings.FptsDecimal),
			PointsAgainst: withDecimal(r.Settings.FptsAgainst, r.Settings.FptsAgainstDecimal),
		}
	}
	return rosters, nil
}

// withDecimal joins Sleeper's split integer and hundredths fields.
func withDecimal(whole, hundredths int) float64 {
	return float64(whole) + float64(hundredths)/100
}

func (a *API) GetLeagueUsers(ctx context.Context, leagueID string) ([]models.Owner, error) {
	var resp []models.SleeperUser
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/users", leagueID), &resp); err != nil {
		return nil, fmt.Errorf("fetching league users: %w", err)
	}

	owners := make([]models.Owner, len(resp))
	for i, u := range resp {
		owners[i] = models.Owner{
			UserID:      u.UserID,
			DisplayName: u.DisplayName,
			TeamName:    u.Metadata.TeamName,
		}
	}
	return owners, nil
}

func (a *API) GetMatchups(ctx context.Context, leagueID string, week int) ([]models.MatchupRecord, error) {
	var resp []models.SleeperMatchup
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/matchups/%d", leagueID, week), &resp); err != nil {
		return nil, fmt.Errorf("fetching matchups for week %d: %w", week, err)
	}

	records := make([]models.MatchupRecord, len(resp))
	for i, m := range resp {
		records[i] = models.MatchupRecord{
			LeagueID:  leagueID,
			Week:      week,
			RosterID:  m.RosterID,
			MatchupID: m.MatchupID,
			Points:    m.Points,
		}
	}
	return records, nil
}

func (a *API) GetTransactions(ctx context.Context, leagueID string, week int) ([]models.TransactionRecord, error) {
	var resp []models.SleeperTransaction
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/transactions/%d", leagueID, week), &resp); err != nil {
		return nil, fmt.Errorf("fetching transactions for week %d: %w", week, err)
	}

	txs := make([]models.TransactionRecord, len(resp))
	for i, t := range resp {
		txs[i] = models.TransactionRecord{
			LeagueID:  leagueID,
			ID:        t.TransactionID,
			Type:      t.Type,
			Status:    t.Status,
			RosterIDs: t.RosterIDs,
			Adds:      t.Adds,
			Created:   time.UnixMilli(t.Created),
		}
	}
	return txs, nil
}

// GetPlayers downloads the full NFL player directory. The payload is large
// (several MB); callers are expected to cache it.
func (a *API) GetPlayers(ctx context.Context) (models.PlayerDirectory, error) {
	var resp map[string]models.SleeperPlayer
	if err := a.client.Get(ctx, "/players/nfl", &resp); err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}

	directory := make(models.PlayerDirectory, len(resp))
	for id, p := range resp {
		name := p.FullName
		if name == "" {
			name = strings.TrimSpace(p.FirstName + " " + p.LastName)
		}
		directory[id] = models.Player{ID: id, FullName: name, Position: p.Position}
	}
	return directory, nil
}

func (a *API) GetNFLState(ctx context.Context) (*models.SportState, error) {
	var state models.SportState
	if err := a.client.Get(ctx, "/state/nfl", &state); err != nil {
		return nil, fmt.Errorf("fetching nfl state: %w", err)
	}
	return &state, nil
}
