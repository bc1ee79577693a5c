package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/omarshaarawi/superliga/internal/config"
	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/service"
)

type Refresher interface {
	Refresh(ctx context.Context, trigger string) (*models.Report, error)
}

type Scheduler struct {
	s           gocron.Scheduler
	refresher   Refresher
	sendMessage func(string) error
	cron        string
	timeout     time.Duration
}

// NewScheduler builds the weekly refresh job. sendMessage may be nil, in
// which case the job only refreshes the snapshot.
func NewScheduler(cfg config.Season, refresher Refresher, sendMessage func(string) error) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Location)
	if err != nil {
		slog.Error("Failed to load location, using UTC", "location", cfg.Location, "error", err)
		location = time.UTC
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:           s,
		refresher:   refresher,
		sendMessage: sendMessage,
		cron:        cfg.RefreshCron,
		timeout:     cfg.RefreshDeadline,
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.s.NewJob(
		gocron.CronJob(s.cron, false),
		gocron.NewTask(s.refreshAndSendDigest),
		gocron.WithName("weekly-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh job: %w", err)
	}

	s.s.Start()
	slog.Info("Scheduler started", "cron", s.cron)
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) refreshAndSendDigest() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.refresher.Refresh(ctx, service.TriggerScheduled)
	if err != nil {
		slog.Error("Failed to refresh standings", "error", err)
		return
	}
	if s.sendMessage == nil {
		return
	}
	if err := s.sendMessage(service.FormatDigest(report)); err != nil {
		slog.Error("Failed to send digest", "error", err)
	}
}
