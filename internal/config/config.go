package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"taskflow/internal/service"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Config keeps runtime settings for every command.
type Config struct {
	TelegramToken string `yaml:"telegram_token"`
	DatabaseURL   string `yaml:"database_url"`
	StoreBackend  string `yaml:"store_backend"`
	RemoteURL     string `yaml:"remote_url"`
	RemoteToken   string `yaml:"remote_token"`

	ListenAddr  string   `yaml:"listen_addr"`
	JWTSecret   string   `yaml:"jwt_secret"`
	CORSOrigins []string `yaml:"cors_origins"`

	ReportInterval time.Duration `yaml:"report_interval"`
	ReportTime     string        `yaml:"report_time"`
	Timezone       string        `yaml:"timezone"`

	SeedFile       string        `yaml:"seed_file"`
	MockLatency    time.Duration `yaml:"mock_latency"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		DatabaseURL:    "taskflow.db",
		StoreBackend:   BackendSQLite,
		ListenAddr:     ":8080",
		CORSOrigins:    []string{"*"},
		ReportTime:     "09:00",
		ConfirmTimeout: 2 * time.Minute,
	}
}

// LoadEnvFile loads variables from a .env file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the optional YAML file at path (or $TASKFLOW_CONFIG), then
// applies environment variables on top of it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("TASKFLOW_CONFIG"))
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// Replace environment variables in the YAML content
	content := string(data)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		content = strings.ReplaceAll(content, "${"+pair[0]+"}", pair[1])
	}

	if err := yaml.Unmarshal([]byte(content), c); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid %s %q", key, v)
		}
		*dst = d
		return nil
	}

	str("TELEGRAM_TOKEN", &c.TelegramToken)
	str("DATABASE_URL", &c.DatabaseURL)
	str("STORE_BACKEND", &c.StoreBackend)
	str("REMOTE_URL", &c.RemoteURL)
	str("REMOTE_TOKEN", &c.RemoteToken)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("JWT_SECRET", &c.JWTSecret)
	str("REPORT_TIME", &c.ReportTime)
	str("TIMEZONE", &c.Timezone)
	str("SEED_FILE", &c.SeedFile)

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS")); v != "" {
		c.ReportInterval = parseInterval(v)
	}
	if err := dur("MOCK_LATENCY", &c.MockLatency); err != nil {
		return err
	}
	return dur("CONFIRM_TIMEOUT", &c.ConfirmTimeout)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("REMOTE_URL is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q: use memory, sqlite or remote", c.StoreBackend)
	}
	if _, _, err := service.ParseClock(c.ReportTime); err != nil {
		return fmt.Errorf("REPORT_TIME: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// RequireTelegram checks the settings the bot needs.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// Location returns the configured time zone, or the local one.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
