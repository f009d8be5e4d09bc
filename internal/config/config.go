// Package config loads tripsplit settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/tripsync"
)

// Config holds the settings shared by the CLI and the ledger server.
type Config struct {
	// DBPath is the SQLite file for the local trip slot (CLI) or the ledger (server).
	DBPath string

	// RemoteURL is the base URL of the ledger server.
	RemoteURL string
	// Token is the device token sent to the ledger server.
	Token string

	// ProbeURL is requested to decide whether the device is online.
	ProbeURL      string
	ProbeInterval time.Duration
	JoinTimeout   time.Duration

	// MinPayment is the smallest settlement transfer worth suggesting.
	MinPayment money.Money

	// Addr is the server listen address.
	Addr string
	// JWTSecret signs device tokens. Required when RequireAuth is set.
	JWTSecret   string
	RequireAuth bool
	TokenTTL    time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	sync := tripsync.DefaultConfig()
	return Config{
		DBPath:        "./data/tripsplit.db",
		RemoteURL:     "http://localhost:8080",
		ProbeURL:      "https://www.google.com",
		ProbeInterval: sync.ProbeInterval,
		JoinTimeout:   sync.JoinTimeout,
		MinPayment:    sync.MinPayment,
		Addr:          ":8080",
		TokenTTL:      30 * 24 * time.Hour,
	}
}

// Load reads the given .env files (default ".env") into the environment,
// then builds a Config from TRIPSPLIT_* variables. Missing .env files are
// ignored; variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := Default()
	cfg.DBPath = getEnv("TRIPSPLIT_DB_PATH", cfg.DBPath)
	cfg.RemoteURL = getEnv("TRIPSPLIT_REMOTE_URL", cfg.RemoteURL)
	cfg.Token = getEnv("TRIPSPLIT_TOKEN", cfg.Token)
	cfg.ProbeURL = getEnv("TRIPSPLIT_PROBE_URL", cfg.ProbeURL)
	cfg.Addr = getEnv("TRIPSPLIT_ADDR", cfg.Addr)
	cfg.JWTSecret = getEnv("TRIPSPLIT_JWT_SECRET", cfg.JWTSecret)

	var err error
	if cfg.ProbeInterval, err = getDuration("TRIPSPLIT_PROBE_INTERVAL", cfg.ProbeInterval); err != nil {
		return Config{}, err
	}
	if cfg.JoinTimeout, err = getDuration("TRIPSPLIT_JOIN_TIMEOUT", cfg.JoinTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getDuration("TRIPSPLIT_TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RequireAuth, err = getBool("TRIPSPLIT_REQUIRE_AUTH", cfg.RequireAuth); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("TRIPSPLIT_MIN_PAYMENT"); v != "" {
		cfg.MinPayment, err = money.Parse(v)
		if err != nil || cfg.MinPayment < 1 {
			return Config{}, fmt.Errorf("invalid TRIPSPLIT_MIN_PAYMENT %q: must be a positive amount", v)
		}
	}

	if cfg.RequireAuth && cfg.JWTSecret == "" {
		return Config{}, errors.New("TRIPSPLIT_JWT_SECRET is required when TRIPSPLIT_REQUIRE_AUTH is set")
	}
	return cfg, nil
}

// Sync returns the coordinator tuning for this config.
func (c Config) Sync() tripsync.Config {
	sync := tripsync.DefaultConfig()
	sync.ProbeInterval = c.ProbeInterval
	sync.JoinTimeout = c.JoinTimeout
	sync.MinPayment = c.MinPayment
	return sync
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
