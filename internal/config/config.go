package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"weekcal/internal/storage"
)

// StorageConfig selects where the event collection is persisted.
type StorageConfig struct {
	// Driver is "file" (default), "redis" or "memory".
	Driver string `yaml:"driver" json:"driver" env:"WEEKCAL_STORAGE_DRIVER"`

	// Path is the events file for the file driver.
	Path string `yaml:"path" json:"path" env:"WEEKCAL_STORAGE_PATH"`

	// Key is the redis key holding the events array.
	Key string `yaml:"key" json:"key" env:"WEEKCAL_STORAGE_KEY"`

	RedisAddr     string `yaml:"redis_addr" json:"redis_addr" env:"WEEKCAL_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" json:"-" env:"WEEKCAL_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db" env:"WEEKCAL_REDIS_DB"`
}

// SnapshotConfig controls the periodic ICS snapshot. Empty Path disables it.
type SnapshotConfig struct {
	// Cron is a 5-field cron schedule, e.g. "0 * * * *".
	Cron string `yaml:"cron" json:"cron" env:"WEEKCAL_SNAPSHOT_CRON"`
	Path string `yaml:"path" json:"path" env:"WEEKCAL_SNAPSHOT_PATH"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" env:"WEEKCAL_LISTEN"`

	// Timezone is the IANA zone treated as local wall-clock time. Empty
	// means the process zone.
	Timezone string `yaml:"timezone" json:"timezone" env:"WEEKCAL_TIMEZONE"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start" env:"WEEKCAL_WEEK_START"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level" env:"WEEKCAL_LOG_LEVEL"`

	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultStoragePath  = "/var/lib/weekcal/events.json"
	defaultSnapshotCron = "0 * * * *"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    defaultListen,
		WeekStart: "sunday",
		LogLevel:  "info",
		Storage: StorageConfig{
			Driver: "file",
			Path:   defaultStoragePath,
			Key:    "weekcal:events",
		},
		Snapshot: SnapshotConfig{
			Cron: defaultSnapshotCron,
		},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = "sunday"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath
	}
	if c.Storage.Key == "" {
		c.Storage.Key = "weekcal:events"
	}
	if c.Snapshot.Cron == "" {
		c.Snapshot.Cron = defaultSnapshotCron
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		c.BasicAuth = nil
	}
}

// Location resolves Timezone. Unknown zones fall back to time.Local with
// an error so the caller can log it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
//   - Then a .env file in the working directory (if any) is loaded and
//     WEEKCAL_* environment variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg, err := loadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// ApplyEnv overrides cfg fields from WEEKCAL_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read env: %w", err)
	}
	cfg.Normalize()
	return nil
}

// Save writes the given configuration to the specified path as YAML,
// atomically and with 0600 permissions (see storage.FileSlot).
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	slot, err := storage.NewFileSlot(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cfg.Normalize()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return slot.Save(context.Background(), data)
}
