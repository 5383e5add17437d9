// Package daemon manages the Kidzy runtime lifecycle and configuration.
package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/kidzy-family/kidzy/internal/app/auth"
)

// Config holds all daemon configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Household HouseholdConfig `toml:"household"`
	API       APIConfig       `toml:"api"`
	Auth      AuthConfig      `toml:"auth"`
	Health    HealthConfig    `toml:"health"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// StorageConfig controls where and how much the household is stored.
type StorageConfig struct {
	Dir              string `toml:"dir"`
	MaxSnapshotBytes int    `toml:"max_snapshot_bytes"`
}

// HouseholdConfig holds household-wide settings.
type HouseholdConfig struct {
	// Timezone decides when "today" starts for streaks and challenges.
	Timezone string `toml:"timezone"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// AuthConfig controls failed-login lockout.
type AuthConfig struct {
	LockoutThreshold int    `toml:"lockout_threshold"`
	LockoutBase      string `toml:"lockout_base"`
	LockoutMax       string `toml:"lockout_max"`
}

// HealthConfig controls the health check loop.
type HealthConfig struct {
	Interval string `toml:"interval"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Dir:              kidzyHome(),
			MaxSnapshotBytes: 5 << 20,
		},
		Household: HouseholdConfig{
			Timezone: "Local",
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8787,
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Auth: AuthConfig{
			LockoutThreshold: 5,
			LockoutBase:      "30s",
			LockoutMax:       "1h",
		},
		Health: HealthConfig{
			Interval: "60s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads $KIDZY_HOME/config.toml, falling back to defaults.
// A .env file in the working directory is loaded first, so it can set
// KIDZY_HOME.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = kidzyHome()
	}
	return cfg, nil
}

// SaveConfig writes the config to $KIDZY_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ConfigPath is the location of config.toml.
func ConfigPath() string {
	return filepath.Join(kidzyHome(), "config.toml")
}

// kidzyHome returns the Kidzy data directory.
func kidzyHome() string {
	if env := os.Getenv("KIDZY_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kidzy")
}

// KidzyHome is exported for use by other packages.
func KidzyHome() string {
	return kidzyHome()
}

// ─── Derived Settings ───────────────────────────────────────────────────────

// Location resolves the household timezone. Unknown names fall back to
// the local zone.
func (c Config) Location() *time.Location {
	switch c.Household.Timezone {
	case "", "Local":
		return time.Local
	case "UTC":
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Household.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Lockout converts the auth section into a limiter config.
func (c Config) Lockout() auth.LockoutConfig {
	def := auth.DefaultLockoutConfig()
	lc := auth.LockoutConfig{
		Threshold: c.Auth.LockoutThreshold,
		BaseDelay: parseDuration(c.Auth.LockoutBase, def.BaseDelay),
		MaxDelay:  parseDuration(c.Auth.LockoutMax, def.MaxDelay),
	}
	if lc.Threshold < 1 {
		lc.Threshold = def.Threshold
	}
	if lc.MaxDelay < lc.BaseDelay {
		lc.MaxDelay = lc.BaseDelay
	}
	return lc
}

// HealthInterval is the parsed health check interval.
func (c Config) HealthInterval() time.Duration {
	return parseDuration(c.Health.Interval, 60*time.Second)
}

// LogLevel maps the configured level name to slog.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
