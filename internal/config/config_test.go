package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"TASKFLOW_CONFIG", "TELEGRAM_TOKEN", "DATABASE_URL", "STORE_BACKEND", "REMOTE_URL",
	"REMOTE_TOKEN", "LISTEN_ADDR", "JWT_SECRET", "CORS_ORIGINS", "REPORT_INTERVAL_HOURS",
	"REPORT_TIME", "TIMEZONE", "SEED_FILE", "MOCK_LATENCY", "CONFIRM_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "taskflow.db" || cfg.StoreBackend != BackendSQLite || cfg.ListenAddr != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ConfirmTimeout != 2*time.Minute || cfg.ReportTime != "09:00" || cfg.ReportInterval != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.RequireTelegram(); err == nil {
		t.Errorf("expected the bot to require a token")
	}
}

func TestLoadFileWithEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_TASKFLOW_SECRET", "from-env")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")

	path := filepath.Join(t.TempDir(), "taskflow.yaml")
	content := `
store_backend: remote
remote_url: http://records.local
jwt_secret: ${TEST_TASKFLOW_SECRET}
listen_addr: ":7000"
cors_origins: ["https://a.example", "https://b.example"]
mock_latency: 250ms
timezone: UTC
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != BackendRemote || cfg.RemoteURL != "http://records.local" {
		t.Errorf("expected file values, got %+v", cfg)
	}
	if cfg.JWTSecret != "from-env" {
		t.Errorf("expected expanded secret, got %q", cfg.JWTSecret)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("expected env to override file, got %q", cfg.ListenAddr)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.MockLatency != 250*time.Millisecond {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.ReportInterval != 6*time.Hour {
		t.Errorf("expected 6h, got %v", cfg.ReportInterval)
	}
	if loc, _ := cfg.Location(); loc != time.UTC {
		t.Errorf("expected UTC, got %v", loc)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	os.WriteFile(path, []byte("store_backend: memory\n"), 0o644)
	t.Setenv("TASKFLOW_CONFIG", path)
	t.Setenv("CORS_ORIGINS", " https://x.example , ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.StoreBackend)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://x.example" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "postgres" }, "unknown store backend"},
		{"remote without url", func(c *Config) { c.StoreBackend = BackendRemote }, "REMOTE_URL"},
		{"bad report time", func(c *Config) { c.ReportTime = "9am" }, "REPORT_TIME"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "TIMEZONE"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("expected error containing %q, got %v", c.want, err)
			}
		})
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIRM_TIMEOUT", "forever")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected a missing file to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("TASKFLOW_TEST_DOTENV=yes\n"), 0o644)
	t.Cleanup(func() { os.Unsetenv("TASKFLOW_TEST_DOTENV") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("TASKFLOW_TEST_DOTENV"); got != "yes" {
		t.Errorf("expected yes, got %q", got)
	}
}
