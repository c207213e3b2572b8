package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`

	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	AppURL  string `env:"APP_URL" envDefault:"http://localhost:5173"`

	// CronSecret guards the internal sweep endpoint. Empty disables it.
	CronSecret string `env:"CRON_SECRET"`

	SMTP  SMTPConfig  `envPrefix:"SMTP_"`
	Sweep SweepConfig `envPrefix:"SWEEP_"`
}

type SMTPConfig struct {
	Host     string        `env:"HOST"`
	Port     string        `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type SweepConfig struct {
	Enabled         bool          `env:"ENABLED" envDefault:"true"`
	Interval        time.Duration `env:"INTERVAL" envDefault:"1h"`
	NoShowAfter     time.Duration `env:"NO_SHOW_AFTER" envDefault:"24h"`
	StalledAfter    time.Duration `env:"STALLED_AFTER" envDefault:"168h"`
	EditingDeadline time.Duration `env:"EDITING_DEADLINE" envDefault:"336h"`
	DedupMode       string        `env:"DEDUP_MODE" envDefault:"none"`
	DedupInterval   time.Duration `env:"DEDUP_INTERVAL" envDefault:"24h"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

// FromMap builds a Config from an explicit environment, ignoring the process one.
func FromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if _, err := workflow.ParseDedupMode(cfg.Sweep.DedupMode); err != nil {
		return nil, fmt.Errorf("SWEEP_DEDUP_MODE: %w", err)
	}
	if cfg.Sweep.Interval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.Sweep.Interval)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (s SweepConfig) Thresholds() workflow.Thresholds {
	return workflow.Thresholds{
		NoShowAfter:     s.NoShowAfter,
		StalledAfter:    s.StalledAfter,
		EditingDeadline: s.EditingDeadline,
	}
}

func (s SweepConfig) Dedup() workflow.DedupPolicy {
	mode, _ := workflow.ParseDedupMode(s.DedupMode)
	return workflow.DedupPolicy{Mode: mode, Interval: s.DedupInterval}
}
