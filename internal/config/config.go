package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	BotToken string `env:"BOT_TOKEN"`
	OwnerID  int64  `env:"OWNER_ID"`
	GroupID  int64  `env:"GROUP_ID"`
	// Channel is the @username or numeric id of the channel callers must join.
	Channel string `env:"CHANNEL"`

	AllowlistPath string `env:"ALLOWLIST_PATH" envDefault:"allowlist.json"`
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"lookup_bot.db"`

	LookupTimeoutSeconds int `env:"LOOKUP_TIMEOUT_SECONDS" envDefault:"15"`

	RequireAllowlist     bool `env:"REQUIRE_ALLOWLIST" envDefault:"true"`
	RequireChannelMember bool `env:"REQUIRE_CHANNEL_MEMBER" envDefault:"true"`

	// Port for the liveness endpoint hosting platforms probe.
	Port int `env:"PORT" envDefault:"8080"`

	// ReportTime is the HH:MM local time for the daily owner usage report.
	// Empty disables the report.
	ReportTime string `env:"REPORT_TIME"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load reads configuration from environment variables, preloading .env if present.
func Load() (Config, error) {
	// .env is optional; in production values come from the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	if cfg.BotToken == "" {
		return cfg, fmt.Errorf("BOT_TOKEN is required")
	}

	if cfg.LookupTimeoutSeconds <= 0 {
		cfg.LookupTimeoutSeconds = 15
	}

	if cfg.ReportTime != "" {
		if err := validateTime(cfg.ReportTime); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// LookupTimeout returns the outbound request timeout as a duration.
func (c Config) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutSeconds) * time.Second
}

func validateTime(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return fmt.Errorf("invalid REPORT_TIME %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid hour in REPORT_TIME %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid minute in REPORT_TIME %q", value)
	}
	return nil
}
