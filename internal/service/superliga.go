package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omarshaarawi/superliga/internal/batch"
	"github.com/omarshaarawi/superliga/internal/config"
	"github.com/omarshaarawi/superliga/internal/matchup"
	"github.com/omarshaarawi/superliga/internal/metrics"
	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/registry"
	"github.com/omarshaarawi/superliga/internal/repository/memory"
	"github.com/omarshaarawi/superliga/internal/retry"
	"github.com/omarshaarawi/superliga/internal/standings"
	"github.com/omarshaarawi/superliga/internal/transaction"
)

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerHTTP      = "http"
	TriggerInitial   = "initial"

	kindUsers        = "users"
	kindRosters      = "rosters"
	kindMatchups     = "matchups"
	kindTransactions = "transactions"
	kindState        = "state"
	kindPlayers      = "players"
)

// Source is the read side of the Sleeper API the service depends on.
type Source interface {
	GetRosters(ctx context.Context, leagueID string) ([]models.Roster, error)
	GetLeagueUsers(ctx context.Context, leagueID string) ([]models.Owner, error)
	GetMatchups(ctx context.Context, leagueID string, week int) ([]models.MatchupRecord, error)
	GetTransactions(ctx context.Context, leagueID string, week int) ([]models.TransactionRecord, error)
	GetPlayers(ctx context.Context) (models.PlayerDirectory, error)
	GetNFLState(ctx context.Context) (*models.SportState, error)
}

type Params struct {
	Source   Source
	Registry *registry.Registry
	Seeds    map[string]int
	Repo     *memory.Repository
	Metrics  *metrics.RefreshMetrics
	API      config.SleeperAPI
	Season   config.Season
}

type SuperLigaService struct {
	source   Source
	registry *registry.Registry
	seeds    map[string]int
	repo     *memory.Repository
	metrics  *metrics.RefreshMetrics
	api      config.SleeperAPI
	season   config.Season

	// refreshMu serializes refreshes; readers go through the repository.
	refreshMu sync.Mutex
	playersMu sync.Mutex
}

func NewSuperLigaService(p Params) *SuperLigaService {
	seeds := p.Seeds
	if seeds == nil {
		seeds = map[string]int{}
	}
	repo := p.Repo
	if repo == nil {
		repo = memory.NewRepository()
	}
	return &SuperLigaService{
		source:   p.Source,
		registry: p.Registry,
		seeds:    seeds,
		repo:     repo,
		metrics:  p.Metrics,
		api:      p.API,
		season:   p.Season,
	}
}

func (s *SuperLigaService) weeks() int {
	if s.season.Weeks > 0 {
		return s.season.Weeks
	}
	return models.SeasonWeeks
}

func (s *SuperLigaService) batchOptions(kind string) batch.Options {
	opts := batch.Options{
		BatchSize:   s.api.BatchSize,
		CallTimeout: s.api.CallTimeout,
		Retry:       retry.NewPolicy(s.api.Retries+1, s.api.RetryDelay),
	}
	if s.metrics != nil {
		opts.OnResult = func(_ int, err error) {
			s.metrics.RecordFetch(kind, err)
		}
	}
	return opts
}

// leagueWeek is the metadata of operation i in a league×week batch. Ops and
// metadata are built by the same loop so index i always agrees.
type leagueWeek struct {
	leagueID string
	week     int
}

// Refresh reads every registered league and rebuilds the standings
// snapshot. Individual read failures are reported, never returned. A run
// whose context ends before it completes keeps the previous snapshot and
// returns the context error.
func (s *SuperLigaService) Refresh(ctx context.Context, trigger string) (*models.Report, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refresh(ctx, trigger)
}

// refresh must be called with refreshMu held.
func (s *SuperLigaService) refresh(ctx context.Context, trigger string) (*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh not started: %w", err)
	}
	if s.season.RefreshDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.season.RefreshDeadline)
		defer cancel()
	}

	start := time.Now()
	runID := uuid.NewString()
	leagues := s.registry.Leagues()
	weeks := s.weeks()
	slog.Info("Refresh started", "run_id", runID, "trigger", trigger, "leagues", len(leagues), "weeks", weeks)

	var failures []models.FetchFailure

	userOps := make([]batch.Op[[]models.Owner], len(leagues))
	rosterOps := make([]batch.Op[[]models.Roster], len(leagues))
	for i, league := range leagues {
		userOps[i] = func(ctx context.Context) ([]models.Owner, error) {
			return s.source.GetLeagueUsers(ctx, league.ID)
		}
		rosterOps[i] = func(ctx context.Context) ([]models.Roster, error) {
			return s.source.GetRosters(ctx, league.ID)
		}
	}
	users := batch.Run(ctx, userOps, s.batchOptions(kindUsers))
	rosters := batch.Run(ctx, rosterOps, s.batchOptions(kindRosters))
	failures = append(failures, leagueFailures(kindUsers, leagues, users.Failures(nil))...)
	failures = append(failures, leagueFailures(kindRosters, leagues, rosters.Failures(nil))...)

	owners := make(map[string][]models.Owner, len(leagues))
	rostersByLeague := make(map[string][]models.Roster, len(leagues))
	for i, league := range leagues {
		if v, ok := users[i].Get(); ok {
			owners[league.ID] = v
		}
		if v, ok := rosters[i].Get(); ok {
			rostersByLeague[league.ID] = v
		}
	}

	slots := make([]leagueWeek, 0, len(leagues)*weeks)
	matchupOps := make([]batch.Op[[]models.MatchupRecord], 0, len(leagues)*weeks)
	txOps := make([]batch.Op[[]models.TransactionRecord], 0, len(leagues)*weeks)
	for _, league := range leagues {
		for week := 1; week <= weeks; week++ {
			slots = append(slots, leagueWeek{leagueID: league.ID, week: week})
			matchupOps = append(matchupOps, func(ctx context.Context) ([]models.MatchupRecord, error) {
				return s.source.GetMatchups(ctx, league.ID, week)
			})
			txOps = append(txOps, func(ctx context.Context) ([]models.TransactionRecord, error) {
				return s.source.GetTransactions(ctx, league.ID, week)
			})
		}
	}
	matchups := batch.Run(ctx, matchupOps, s.batchOptions(kindMatchups))
	txs := batch.Run(ctx, txOps, s.batchOptions(kindTransactions))
	failures = append(failures, slotFailures(kindMatchups, slots, matchups.Failures(nil))...)
	failures = append(failures, slotFailures(kindTransactions, slots, txs.Failures(nil))...)

	outcomes := make([][]models.MatchupOutcome, 0, len(slots))
	txByLeague := make(map[string][]models.TransactionRecord, len(leagues))
	for i, slot := range slots {
		if records, ok := matchups[i].Get(); ok {
			outcomes = append(outcomes, matchup.Resolve(slot.leagueID, slot.week, records))
		}
		if records, ok := txs[i].Get(); ok {
			txByLeague[slot.leagueID] = append(txByLeague[slot.leagueID], records...)
		}
	}

	rows := standings.Assemble(standings.Input{
		Leagues:  leagues,
		Rosters:  rostersByLeague,
		Owners:   owners,
		Tallies:  transaction.TallyAll(txByLeague),
		Outcomes: matchup.BuildTable(outcomes...),
		Seeds:    s.seeds,
		Weeks:    weeks,
	})
	standings.Sort(rows)

	var trades []models.TransactionRecord
	for _, league := range leagues {
		trades = append(trades, transaction.CompletedTrades(txByLeague[league.ID])...)
	}

	report := &models.Report{
		RunID:       runID,
		Trigger:     trigger,
		GeneratedAt: time.Now(),
		Operations:  2*len(leagues) + 2*len(slots),
		Rows:        rows,
		Failures:    failures,
	}

	if state, err := s.refreshState(ctx); err != nil {
		slog.Warn("NFL state unavailable", "run_id", runID, "error", err)
		report.Failures = append(report.Failures, models.FetchFailure{Kind: kindState, Error: err.Error()})
	} else {
		report.Season = state.Season
		report.Week = state.Week
	}
	report.Operations++

	if err := ctx.Err(); err != nil {
		slog.Warn("Refresh abandoned, keeping previous snapshot", "run_id", runID, "trigger", trigger, "error", err)
		return nil, fmt.Errorf("refresh interrupted: %w", err)
	}

	report.Duration = time.Since(start)
	s.repo.SaveSnapshot(report, trades)

	for _, f := range report.Failures {
		slog.Warn("Read operation missing", "run_id", runID, "kind", f.Kind, "league_id", f.LeagueID, "week", f.Week, "error", f.Error)
	}
	if s.metrics != nil {
		s.metrics.RecordRefresh(trigger, report.Duration.Seconds(), len(rows), float64(report.GeneratedAt.Unix()))
	}
	slog.Info("Refresh finished",
		"run_id", runID,
		"rows", len(rows),
		"operations", report.Operations,
		"failures", len(report.Failures),
		"duration", report.Duration,
	)

	return report, nil
}

func (s *SuperLigaService) refreshState(ctx context.Context) (*models.SportState, error) {
	results := batch.Run(ctx, []batch.Op[*models.SportState]{s.source.GetNFLState}, s.batchOptions(kindState))
	state, ok := results[0].Get()
	if !ok {
		return nil, results[0].Err()
	}
	if state == nil {
		return nil, fmt.Errorf("empty nfl state")
	}
	s.repo.SaveState(state)
	return state, nil
}

func leagueFailures(kind string, leagues []models.LeagueRef, fs []batch.Failure) []models.FetchFailure {
	out := make([]models.FetchFailure, len(fs))
	for i, f := range fs {
		out[i] = models.FetchFailure{Kind: kind, LeagueID: leagues[f.Index].ID, Error: f.Err.Error()}
	}
	return out
}

func slotFailures(kind string, slots []leagueWeek, fs []batch.Failure) []models.FetchFailure {
	out := make([]models.FetchFailure, len(fs))
	for i, f := range fs {
		slot := slots[f.Index]
		out[i] = models.FetchFailure{Kind: kind, LeagueID: slot.leagueID, Week: slot.week, Error: f.Err.Error()}
	}
	return out
}

// Latest returns the cached snapshot, refreshing first when there is none.
// Concurrent callers on an empty cache share one refresh, which runs
// detached from the caller's cancellation and is bounded by the refresh
// deadline instead.
func (s *SuperLigaService) Latest(ctx context.Context) (*models.Report, error) {
	if report := s.repo.GetReport(); report != nil {
		return report, nil
	}
	return s.refreshIfEmpty(context.WithoutCancel(ctx))
}

func (s *SuperLigaService) refreshIfEmpty(ctx context.Context) (*models.Report, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if report := s.repo.GetReport(); report != nil {
		return report, nil
	}
	return s.refresh(ctx, TriggerInitial)
}

// Standings returns the latest rows, filtered by text when it is not empty.
func (s *SuperLigaService) Standings(ctx context.Context, text string) ([]models.TeamRow, error) {
	report, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return standings.Filter(report.Rows, text), nil
}

// Trades builds the trade cards of the latest snapshot, newest first. The
// player directory is downloaded on first use only; when it cannot be read
// player ids stand in for names.
func (s *SuperLigaService) Trades(ctx context.Context) ([]models.TradeCard, error) {
	report, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}

	rosterNames := make(map[models.TeamKey]string, len(report.Rows))
	for _, row := range report.Rows {
		rosterNames[models.TeamKey{LeagueID: row.LeagueID, RosterID: row.RosterID}] = row.Team
	}

	cards := transaction.ExtractTrades(s.repo.GetTrades(), s.registry.Names(), rosterNames, s.players(ctx))
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Created.After(cards[j].Created)
	})
	return cards, nil
}

func (s *SuperLigaService) players(ctx context.Context) models.PlayerDirectory {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()

	if directory := s.repo.GetPlayers(); directory != nil {
		return directory
	}

	results := batch.Run(ctx, []batch.Op[models.PlayerDirectory]{s.source.GetPlayers}, s.batchOptions(kindPlayers))
	directory, ok := results[0].Get()
	if !ok {
		slog.Warn("Player directory unavailable", "error", results[0].Err())
		return models.PlayerDirectory{}
	}
	slog.Info("Player directory loaded", "players", len(directory))
	s.repo.SavePlayers(directory)
	return directory
}
