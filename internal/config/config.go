package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

type Config struct {
	TelegramBot TelegramBot
	SleeperAPI  SleeperAPI
	Season      Season
	Files       Files
	HTTP        HTTP
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN"`
	ChatID int64  `envconfig:"CHAT_ID"`
}

// Enabled reports whether the bot has credentials to start with.
func (t TelegramBot) Enabled() bool {
	return t.Token != ""
}

type SleeperAPI struct {
	BaseURL     string        `envconfig:"SLEEPER_BASE_URL" default:"https://api.sleeper.app/v1"`
	CallTimeout time.Duration `envconfig:"SLEEPER_CALL_TIMEOUT" default:"10s"`
	BatchSize   int           `envconfig:"SLEEPER_BATCH_SIZE" default:"50"`
	Retries     int           `envconfig:"SLEEPER_RETRIES" default:"2"`
	RetryDelay  time.Duration `envconfig:"SLEEPER_RETRY_DELAY" default:"500ms"`
}

type Season struct {
	Weeks           int           `envconfig:"SEASON_WEEKS" default:"18"`
	RefreshDeadline time.Duration `envconfig:"REFRESH_DEADLINE" default:"3m"`
	RefreshCron     string        `envconfig:"REFRESH_CRON" default:"0 9 * * 2"`
	Location        string        `envconfig:"TIMEZONE" default:"America/Sao_Paulo"`
}

type Files struct {
	Leagues string `envconfig:"LEAGUES_FILE"`
	Seeds   string `envconfig:"SEEDS_FILE"`
}

type HTTP struct {
	Addr        string   `envconfig:"HTTP_ADDR" default:":8080"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.SleeperAPI.BaseURL == "" {
		return fmt.Errorf("SLEEPER_BASE_URL is required")
	}
	if c.SleeperAPI.BatchSize < 1 {
		return fmt.Errorf("SLEEPER_BATCH_SIZE must be positive, got %d", c.SleeperAPI.BatchSize)
	}
	if c.SleeperAPI.Retries < 0 {
		return fmt.Errorf("SLEEPER_RETRIES must not be negative, got %d", c.SleeperAPI.Retries)
	}
	if c.Season.Weeks < 1 {
		return fmt.Errorf("SEASON_WEEKS must be positive, got %d", c.Season.Weeks)
	}
	if _, err := cron.ParseStandard(c.Season.RefreshCron); err != nil {
		return fmt.Errorf("invalid REFRESH_CRON %q: %w", c.Season.RefreshCron, err)
	}
	if c.TelegramBot.Enabled() && c.TelegramBot.ChatID == 0 {
		return fmt.Errorf("CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}
