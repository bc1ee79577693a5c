package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/superliga/internal/config"
	"github.com/omarshaarawi/superliga/internal/metrics"
	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/registry"
	"github.com/omarshaarawi/superliga/internal/repository/memory"
)

var errUnavailable = errors.New("sleeper unavailable")

func intPtr(i int) *int { return &i }

type fakeSource struct {
	mu          sync.Mutex
	rosters     map[string][]models.Roster
	owners      map[string][]models.Owner
	matchups    map[string][]models.MatchupRecord
	txs         map[string][]models.TransactionRecord
	players     models.PlayerDirectory
	failing     map[string]bool
	onUsers     func()
	playerCalls int
	stateCalls  int
	rosterCalls int
}

func slotKey(leagueID string, week int) string {
	return fmt.Sprintf("%s/%d", leagueID, week)
}

func (f *fakeSource) fail(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[key] {
		return errUnavailable
	}
	return nil
}

func (f *fakeSource) GetRosters(_ context.Context, leagueID string) ([]models.Roster, error) {
	f.mu.Lock()
	f.rosterCalls++
	f.mu.Unlock()
	if err := f.fail("rosters/" + leagueID); err != nil {
		return nil, err
	}
	return f.rosters[leagueID], nil
}

func (f *fakeSource) GetLeagueUsers(_ context.Context, leagueID string) ([]models.Owner, error) {
	f.mu.Lock()
	hook := f.onUsers
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := f.fail("users/" + leagueID); err != nil {
		return nil, err
	}
	return f.owners[leagueID], nil
}

func (f *fakeSource) GetMatchups(_ context.Context, leagueID string, week int) ([]models.MatchupRecord, error) {
	if err := f.fail("matchups/" + slotKey(leagueID, week)); err != nil {
		return nil, err
	}
	var out []models.MatchupRecord
	for _, m := range f.matchups[slotKey(leagueID, week)] {
		m.LeagueID, m.Week = leagueID, week
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeSource) GetTransactions(_ context.Context, leagueID string, week int) ([]models.TransactionRecord, error) {
	if err := f.fail("transactions/" + slotKey(leagueID, week)); err != nil {
		return nil, err
	}
	return f.txs[slotKey(leagueID, week)], nil
}

func (f *fakeSource) GetPlayers(_ context.Context) (models.PlayerDirectory, error) {
	f.mu.Lock()
	f.playerCalls++
	f.mu.Unlock()
	if err := f.fail("players"); err != nil {
		return nil, err
	}
	return f.players, nil
}

func (f *fakeSource) GetNFLState(_ context.Context) (*models.SportState, error) {
	f.mu.Lock()
	f.stateCalls++
	f.mu.Unlock()
	if err := f.fail("state"); err != nil {
		return nil, err
	}
	return &models.SportState{Week: 3, Season: "2025"}, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		rosters: map[string][]models.Roster{
			"L1": {
				{LeagueID: "L1", RosterID: 1, OwnerID: "u1", Wins: 1, Losses: 1, PointsFor: 180},
				{LeagueID: "L1", RosterID: 2, OwnerID: "u2", Wins: 1, Losses: 1, PointsFor: 210},
			},
			"L2": {
				{LeagueID: "L2", RosterID: 1, OwnerID: "u3", Wins: 1, Ties: 1, PointsFor: 120},
				{LeagueID: "L2", RosterID: 2, OwnerID: "", Losses: 1, Ties: 1, PointsFor: 110},
			},
		},
		owners: map[string][]models.Owner{
			"L1": {
				{UserID: "u1", DisplayName: "alpha_owner", TeamName: "Alpha"},
				{UserID: "u2", DisplayName: "bravo"},
			},
			"L2": {
				{UserID: "u3", DisplayName: "charlie", TeamName: "Charlie"},
			},
		},
		matchups: map[string][]models.MatchupRecord{
			"L1/1": {{RosterID: 1, MatchupID: intPtr(1), Points: 100}, {RosterID: 2, MatchupID: intPtr(1), Points: 90}},
			"L1/2": {{RosterID: 1, MatchupID: intPtr(1), Points: 80}, {RosterID: 2, MatchupID: intPtr(1), Points: 120}},
			"L1/3": {{RosterID: 1, Points: 0}, {RosterID: 2, Points: 0}},
			"L2/1": {{RosterID: 1, MatchupID: intPtr(4), Points: 50}, {RosterID: 2, MatchupID: intPtr(4), Points: 50}},
			"L2/3": {{RosterID: 1, MatchupID: intPtr(4), Points: 70}, {RosterID: 2, MatchupID: intPtr(4), Points: 60}},
		},
		txs: map[string][]models.TransactionRecord{
			"L1/1": {
				{LeagueID: "L1", ID: "t1", Type: "trade", Status: "complete", RosterIDs: []int{1, 2},
					Adds: map[string]int{"p1": 2, "p2": 1}, Created: time.UnixMilli(1700000000000)},
				{LeagueID: "L1", ID: "t2", Type: "waiver", Status: "complete", RosterIDs: []int{1}},
			},
			"L1/2": {
				{LeagueID: "L1", ID: "t3", Type: "trade", Status: "complete", RosterIDs: []int{2, 1},
					Adds: map[string]int{"p3": 1}, Created: time.UnixMilli(1700600000000)},
			},
		},
		players: models.PlayerDirectory{
			"p1": {ID: "p1", FullName: "Josh Allen", Position: "QB"},
		},
		failing: map[string]bool{
			"matchups/L2/2":     true,
			"transactions/L2/3": true,
		},
	}
}

func newTestService(t *testing.T, source Source) (*SuperLigaService, *metrics.RefreshMetrics) {
	t.Helper()
	reg, err := registry.New([]models.LeagueRef{
		{ID: "L1", Name: "Prata #1"},
		{ID: "L2", Name: "Ouro #1"},
	})
	require.NoError(t, err)

	m := metrics.NewRefreshMetrics(prometheus.NewRegistry())
	svc := NewSuperLigaService(Params{
		Source:   source,
		Registry: reg,
		Seeds:    map[string]int{"u1": 950, "u2": 2000},
		Repo:     memory.NewRepository(),
		Metrics:  m,
		API:      config.SleeperAPI{BatchSize: 3, CallTimeout: time.Second},
		Season:   config.Season{Weeks: 3, RefreshDeadline: 10 * time.Second},
	})
	return svc, m
}

func rowByID(t *testing.T, rows []models.TeamRow, id string) models.TeamRow {
	t.Helper()
	for _, row := range rows {
		if row.ID == id {
			return row
		}
	}
	t.Fatalf("row %s not found", id)
	return models.TeamRow{}
}

func TestRefresh_BuildsSortedRows(t *testing.T) {
	svc, _ := newTestService(t, newFakeSource())

	report, err := svc.Refresh(context.Background(), TriggerManual)

	require.NoError(t, err)
	require.Len(t, report.Rows, 4)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, TriggerManual, report.Trigger)
	assert.Equal(t, 3, report.Week)
	assert.Equal(t, "2025", report.Season)

	ids := make([]string, len(report.Rows))
	for i, row := range report.Rows {
		ids[i] = row.ID
	}
	assert.Equal(t, []string{"L1-2", "L1-1", "L2-1", "L2-2"}, ids)

	alpha := rowByID(t, report.Rows, "L1-1")
	assert.Equal(t, "Alpha", alpha.Team)
	assert.Equal(t, "Prata #1", alpha.League)
	assert.Equal(t, 1100, alpha.SLP.Final)
	assert.Equal(t, 2, alpha.Trades)
	assert.Equal(t, 1, alpha.Waivers)
	assert.Equal(t, []string{"100.00W", "80.00L", "Bye"}, weekStrings(alpha.Weeks))

	bravo := rowByID(t, report.Rows, "L1-2")
	assert.Equal(t, "bravo", bravo.Team)
	assert.Equal(t, 2020, bravo.SLP.Final)
	assert.Equal(t, 2, bravo.Trades)
	assert.Equal(t, 0, bravo.Waivers)
}

func weekStrings(cells []models.WeekCell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}

func TestRefresh_FailedReadsBecomeByesAndFailures(t *testing.T) {
	svc, m := newTestService(t, newFakeSource())

	report, err := svc.Refresh(context.Background(), TriggerManual)
	require.NoError(t, err)

	charlie := rowByID(t, report.Rows, "L2-1")
	assert.Equal(t, []string{"50.00T", "Bye", "70.00W"}, weekStrings(charlie.Weeks))
	assert.Equal(t, 200, charlie.SLP.Final)

	orphan := rowByID(t, report.Rows, "L2-2")
	assert.Equal(t, models.NotAvailable, orphan.Team)
	assert.Equal(t, models.NotAvailable, orphan.UserID)
	assert.Equal(t, -25, orphan.SLP.Final)

	assert.ElementsMatch(t, []models.FetchFailure{
		{Kind: "matchups", LeagueID: "L2", Week: 2, Error: errUnavailable.Error()},
		{Kind: "transactions", LeagueID: "L2", Week: 3, Error: errUnavailable.Error()},
	}, report.Failures)
	assert.Equal(t, 17, report.Operations)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchOperationsTotal.WithLabelValues("matchups", metrics.OutcomeMissing)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.FetchOperationsTotal.WithLabelValues("matchups", metrics.OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchOperationsTotal.WithLabelValues("rosters", metrics.OutcomeOK)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RowsAssembled))
}

func TestRefresh_LeagueWithoutRostersContributesNoRows(t *testing.T) {
	source := newFakeSource()
	source.failing["rosters/L2"] = true
	source.failing["state"] = true
	svc, _ := newTestService(t, source)

	report, err := svc.Refresh(context.Background(), TriggerManual)

	require.NoError(t, err)
	assert.Len(t, report.Rows, 2)
	assert.Zero(t, report.Week)

	kinds := make(map[string]int)
	for _, f := range report.Failures {
		kinds[f.Kind]++
	}
	assert.Equal(t, map[string]int{"rosters": 1, "matchups": 1, "transactions": 1, "state": 1}, kinds)
}

func TestRefresh_CancelledContext(t *testing.T) {
	svc, _ := newTestService(t, newFakeSource())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Refresh(ctx, TriggerManual)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefresh_InterruptedRunKeepsPreviousSnapshot(t *testing.T) {
	source := newFakeSource()
	svc, _ := newTestService(t, source)

	good, err := svc.Refresh(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Len(t, good.Rows, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source.mu.Lock()
	source.onUsers = cancel
	source.mu.Unlock()

	report, err := svc.Refresh(ctx, TriggerHTTP)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, latest)
	assert.Equal(t, good.RunID, latest.RunID)
	assert.Len(t, latest.Rows, 4)
	assert.Len(t, latest.Failures, 2)
	assert.Len(t, svc.repo.GetTrades(), 2)
}

func TestLatest_InitialRefreshIgnoresCallerCancellation(t *testing.T) {
	svc, _ := newTestService(t, newFakeSource())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Latest(ctx)

	require.NoError(t, err)
	assert.Equal(t, TriggerInitial, report.Trigger)
	assert.Len(t, report.Rows, 4)
}

func TestLatest_ConcurrentCallersShareOneRefresh(t *testing.T) {
	source := newFakeSource()
	source.onUsers = func() { time.Sleep(20 * time.Millisecond) }
	svc, _ := newTestService(t, source)

	const callers = 3
	reports := make([]*models.Report, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i], errs[i] = svc.Latest(context.Background())
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, reports[0], reports[i])
	}
	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Equal(t, 2, source.rosterCalls)
	assert.Equal(t, 1, source.stateCalls)
}

func TestLatest_RefreshesOnlyWhenEmpty(t *testing.T) {
	source := newFakeSource()
	svc, _ := newTestService(t, source)

	first, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TriggerInitial, first.Trigger)

	second, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, source.stateCalls)
}

func TestStandings_Filter(t *testing.T) {
	svc, _ := newTestService(t, newFakeSource())

	rows, err := svc.Standings(context.Background(), "ALPHA")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "L1-1", rows[0].ID)
}

func TestTrades_NewestFirstWithLazyDirectory(t *testing.T) {
	source := newFakeSource()
	svc, _ := newTestService(t, source)

	cards, err := svc.Trades(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, "t3", cards[0].TransactionID)
	assert.Equal(t, "t1", cards[1].TransactionID)

	t1 := cards[1]
	assert.Equal(t, "Prata #1", t1.LeagueName)
	require.Len(t, t1.Sides, 2)
	assert.Equal(t, "Alpha", t1.Sides[0].RosterName)
	assert.Equal(t, []models.TradePlayer{{ID: "p2", Name: "p2", Position: "?"}}, t1.Sides[0].Players)
	assert.Equal(t, "bravo", t1.Sides[1].RosterName)
	assert.Equal(t, []models.TradePlayer{{ID: "p1", Name: "Josh Allen", Position: "QB"}}, t1.Sides[1].Players)

	_, err = svc.Trades(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.playerCalls)
}

func TestTrades_DirectoryUnavailable(t *testing.T) {
	source := newFakeSource()
	source.failing["players"] = true
	svc, _ := newTestService(t, source)

	cards, err := svc.Trades(context.Background())

	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "p1", cards[1].Sides[1].Players[0].Name)
}
