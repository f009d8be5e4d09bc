package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/mmynk/tripsplit/internal/money"
)

var keys = []string{
	"TRIPSPLIT_DB_PATH", "TRIPSPLIT_REMOTE_URL", "TRIPSPLIT_TOKEN", "TRIPSPLIT_PROBE_URL",
	"TRIPSPLIT_PROBE_INTERVAL", "TRIPSPLIT_JOIN_TIMEOUT", "TRIPSPLIT_MIN_PAYMENT",
	"TRIPSPLIT_ADDR", "TRIPSPLIT_JWT_SECRET", "TRIPSPLIT_REQUIRE_AUTH", "TRIPSPLIT_TOKEN_TTL",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	is := is.New(t)
	clearEnv(t)

	cfg, err := Load(missingFile(t))
	is.NoErr(err)
	is.Equal(cfg, Default())
	is.Equal(cfg.ProbeInterval, 5*time.Second)
	is.Equal(cfg.MinPayment, money.Money(100))
}

func TestLoadFromEnv(t *testing.T) {
	is := is.New(t)
	clearEnv(t)
	t.Setenv("TRIPSPLIT_REMOTE_URL", "https://ledger.example.com")
	t.Setenv("TRIPSPLIT_PROBE_INTERVAL", "10s")
	t.Setenv("TRIPSPLIT_JOIN_TIMEOUT", "2s")
	t.Setenv("TRIPSPLIT_MIN_PAYMENT", "Rp1.000")
	t.Setenv("TRIPSPLIT_REQUIRE_AUTH", "true")
	t.Setenv("TRIPSPLIT_JWT_SECRET", "s3cret")

	cfg, err := Load(missingFile(t))
	is.NoErr(err)
	is.Equal(cfg.RemoteURL, "https://ledger.example.com")
	is.Equal(cfg.ProbeInterval, 10*time.Second)
	is.Equal(cfg.JoinTimeout, 2*time.Second)
	is.Equal(cfg.MinPayment, money.Money(1000))
	is.True(cfg.RequireAuth)

	sync := cfg.Sync()
	is.Equal(sync.ProbeInterval, 10*time.Second)
	is.Equal(sync.JoinTimeout, 2*time.Second)
	is.Equal(sync.MinPayment, money.Money(1000))
}

func TestLoadFromDotEnv(t *testing.T) {
	is := is.New(t)
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	is.NoErr(os.WriteFile(path, []byte("TRIPSPLIT_ADDR=:9090\nTRIPSPLIT_TOKEN=from-file\n"), 0o600))
	t.Setenv("TRIPSPLIT_TOKEN", "from-env")

	cfg, err := Load(path)
	is.NoErr(err)
	is.Equal(cfg.Addr, ":9090")
	is.Equal(cfg.Token, "from-env") // the environment wins over the file
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad duration", env: map[string]string{"TRIPSPLIT_PROBE_INTERVAL": "soon"}},
		{name: "negative duration", env: map[string]string{"TRIPSPLIT_JOIN_TIMEOUT": "-1s"}},
		{name: "bad bool", env: map[string]string{"TRIPSPLIT_REQUIRE_AUTH": "maybe"}},
		{name: "bad min payment", env: map[string]string{"TRIPSPLIT_MIN_PAYMENT": "lots"}},
		{name: "zero min payment", env: map[string]string{"TRIPSPLIT_MIN_PAYMENT": "0"}},
		{name: "auth without secret", env: map[string]string{"TRIPSPLIT_REQUIRE_AUTH": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(missingFile(t)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
