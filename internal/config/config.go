// Package config loads server settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/DoyleJ11/autobattler-backend/internal/match"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev      bool   `env:"LOG_DEV" envDefault:"false"`
	DatabaseURL string `env:"DATABASE_URL"`
	// CatalogPath points at a YAML catalog. Empty uses the embedded one.
	CatalogPath  string        `env:"CATALOG_PATH"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"50ms"`
	Rules        match.Rules   `envPrefix:"RULES_"`
}

// Load reads envFile into the environment when it exists, without
// overriding variables that are already set, then parses the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports every setting that cannot run a game.
func (c Config) Validate() error {
	var err error
	if c.TickInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval))
	}
	r := c.Rules
	if r.MinPlayers < 2 {
		err = multierr.Append(err, fmt.Errorf("RULES_MIN_PLAYERS must be at least 2, got %d", r.MinPlayers))
	}
	if r.MaxPlayers < r.MinPlayers {
		err = multierr.Append(err, fmt.Errorf("RULES_MAX_PLAYERS %d below RULES_MIN_PLAYERS %d", r.MaxPlayers, r.MinPlayers))
	}
	if r.StartingHealth <= 0 {
		err = multierr.Append(err, fmt.Errorf("RULES_STARTING_HEALTH must be positive, got %d", r.StartingHealth))
	}
	if r.HomeRows <= 0 || r.HomeCols <= 0 || r.ArenaRows <= 0 || r.ArenaCols <= 0 {
		err = multierr.Append(err, errors.New("board and arena dimensions must be positive"))
	}
	if r.StartingLevel > r.MaxLevel {
		err = multierr.Append(err, fmt.Errorf("RULES_STARTING_LEVEL %d above RULES_MAX_LEVEL %d", r.StartingLevel, r.MaxLevel))
	}
	return err
}
