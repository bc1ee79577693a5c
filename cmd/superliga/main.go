package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/omarshaarawi/superliga/internal/api/sleeper"
	"github.com/omarshaarawi/superliga/internal/bot"
	"github.com/omarshaarawi/superliga/internal/config"
	"github.com/omarshaarawi/superliga/internal/httpapi"
	"github.com/omarshaarawi/superliga/internal/metrics"
	"github.com/omarshaarawi/superliga/internal/registry"
	"github.com/omarshaarawi/superliga/internal/repository/memory"
	"github.com/omarshaarawi/superliga/internal/scheduler"
	"github.com/omarshaarawi/superliga/internal/service"
	"github.com/omarshaarawi/superliga/internal/slp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	if err := slp.Validate(); err != nil {
		return fmt.Errorf("invalid tier table: %w", err)
	}

	leagues, err := registry.Load(cfg.Files.Leagues)
	if err != nil {
		return err
	}
	seeds, err := config.LoadSeeds(cfg.Files.Seeds)
	if err != nil {
		return err
	}
	slog.Info("Configuration loaded", "leagues", leagues.Len(), "seeds", len(seeds), "weeks", cfg.Season.Weeks)

	sleeperClient := sleeper.NewClient(cfg.SleeperAPI)
	sleeperAPI := sleeper.NewAPI(sleeperClient)

	repo := memory.NewRepository()
	refreshMetrics := metrics.NewRefreshMetrics(prometheus.DefaultRegisterer)
	superLigaService := service.NewSuperLigaService(service.Params{
		Source:   sleeperAPI,
		Registry: leagues,
		Seeds:    seeds,
		Repo:     repo,
		Metrics:  refreshMetrics,
		API:      cfg.SleeperAPI,
		Season:   cfg.Season,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sendMessage func(string) error
	if cfg.TelegramBot.Enabled() {
		telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, cfg.Season.RefreshDeadline, superLigaService)
		if err != nil {
			return err
		}
		sendMessage = telegramBot.SendMessage

		go func() {
			if err := telegramBot.Start(ctx); err != nil {
				slog.Error("Error running telegram bot", "error", err)
			}
		}()
	} else {
		slog.Info("TELEGRAM_TOKEN not set, chat bot disabled")
	}

	sched, err := scheduler.NewScheduler(cfg.Season, superLigaService, sendMessage)
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	router := httpapi.NewRouter(superLigaService, prometheus.DefaultGatherer, httpapi.Options{
		RefreshTimeout: cfg.Season.RefreshDeadline,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
	})
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Season.RefreshDeadline + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error starting HTTP server", "error", err)
		}
	}()

	go func() {
		if _, err := superLigaService.Refresh(ctx, service.TriggerInitial); err != nil {
			slog.Error("Initial refresh failed", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
	}

	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		slog.Warn("Unknown LOG_LEVEL, using info", "level", level)
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
