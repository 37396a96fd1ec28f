// Package config loads server configuration from the environment.
//
// A .env file in the working directory is loaded first (if present, without
// overriding variables already set), then the Config struct is filled from
// its env tags.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/weinianhe/SaveGramps/internal/question"
)

// Config is the full server configuration.
type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
	DBPath    string `env:"DB_PATH" envDefault:"./data/gramps.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"gramps_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Environment    string `env:"NODE_ENV" envDefault:"development"`

	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	// PotentialThreshold is the number of placed tokens before the potential
	// search runs; below it a round is assumed winnable.
	PotentialThreshold int  `env:"POTENTIAL_THRESHOLD" envDefault:"3"`
	PotentialParallel  bool `env:"POTENTIAL_PARALLEL" envDefault:"false"`

	HandNumbers   int `env:"HAND_NUMBERS" envDefault:"4"`
	HandOperators int `env:"HAND_OPERATORS" envDefault:"3"`
	HandMin       int `env:"HAND_MIN" envDefault:"1"`
	HandMax       int `env:"HAND_MAX" envDefault:"9"`
}

// Load reads .env (optional) and parses the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse fills a Config from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Hand().Validate(); err != nil {
		return Config{}, fmt.Errorf("hand config: %w", err)
	}
	if cfg.PotentialThreshold < 0 {
		return Config{}, fmt.Errorf("POTENTIAL_THRESHOLD must be >= 0, got %d", cfg.PotentialThreshold)
	}
	return cfg, nil
}

// Production reports whether cookies should be Secure.
func (c Config) Production() bool { return c.Environment == "production" }

// TokenTTL is the lifetime of issued auth tokens.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// Hand returns the generator config for dealt hands.
func (c Config) Hand() question.Config {
	return question.Config{
		Numbers:   c.HandNumbers,
		Operators: c.HandOperators,
		Min:       c.HandMin,
		Max:       c.HandMax,
	}
}
