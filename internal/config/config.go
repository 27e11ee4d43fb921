// Package config loads and saves canasta's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the file.
const (
	EnvPassword = "CANASTA_SSH_PASSWORD"
	EnvKeyFile  = "CANASTA_SSH_KEY_FILE"
	EnvHost     = "CANASTA_SSH_HOST"
	EnvUser     = "CANASTA_SSH_USER"
	EnvBucket   = "CANASTA_PUBLISH_BUCKET"
)

// Config holds all canasta configuration.
type Config struct {
	Remote     RemoteConfig     `toml:"remote"`
	Series     SeriesConfig     `toml:"series"`
	General    GeneralConfig    `toml:"general"`
	Cache      CacheConfig      `toml:"cache"`
	Publish    PublishConfig    `toml:"publish"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// RemoteConfig holds the SSH host and the transactions file on it.
type RemoteConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	User            string   `toml:"user"`
	Password        string   `toml:"password,omitempty"`
	KeyFile         string   `toml:"key_file,omitempty"`
	KnownHosts      string   `toml:"known_hosts,omitempty"`
	InsecureHostKey bool     `toml:"insecure_host_key"`
	FilePath        string   `toml:"file_path"`
	Timeout         Duration `toml:"timeout"`
	MaxExecPerSec   float64  `toml:"max_exec_per_sec"`
}

// SeriesConfig selects the months and statuses that feed the index.
type SeriesConfig struct {
	Months          []string `toml:"months"`
	AllowedStatuses []string `toml:"allowed_statuses"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Workers int `toml:"workers"`
}

// CacheConfig controls the SQLite month cache.
type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	MaxAge  Duration `toml:"max_age"`
}

// PublishConfig names the GCS destination for published runs.
type PublishConfig struct {
	Bucket string `toml:"bucket,omitempty"`
	Prefix string `toml:"prefix"`
}

// DaemonConfig controls the background recompute service.
type DaemonConfig struct {
	Addr     string   `toml:"addr"`
	Interval Duration `toml:"interval"`
}

// AppearanceConfig holds TUI preferences.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// Duration is a time.Duration written as a string ("15s", "24h") in TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultMonths is every month of 2022.
func DefaultMonths() []string {
	months, _ := ExpandMonths("2022-01..2022-12")
	return months
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			Port:          22,
			FilePath:      "/srv/utem/supermercado.csv",
			Timeout:       Duration{15 * time.Second},
			MaxExecPerSec: 4,
		},
		Series: SeriesConfig{
			Months:          DefaultMonths(),
			AllowedStatuses: []string{"FINALIZED", "AUTHORIZED"},
		},
		General: GeneralConfig{
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			MaxAge:  Duration{24 * time.Hour},
		},
		Publish: PublishConfig{
			Prefix: "canasta",
		},
		Daemon: DaemonConfig{
			Addr:     "127.0.0.1:8788",
			Interval: Duration{time.Hour},
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "canasta")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "canasta")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at the default path. See LoadFrom.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't
// exist. A .env file in the working directory is loaded first, and
// environment variables take precedence over the file.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	// A missing .env is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Remote.Password = v
	}
	if v := os.Getenv(EnvKeyFile); v != "" {
		cfg.Remote.KeyFile = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Remote.Host = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		cfg.Remote.User = v
	}
	if v := os.Getenv(EnvBucket); v != "" {
		cfg.Publish.Bucket = v
	}
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path. A password that came from the
// environment is not written back.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if env := os.Getenv(EnvPassword); env != "" && env == cfg.Remote.Password {
		cfg.Remote.Password = ""
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Validate reports the first setting that would make a run impossible.
// It does not require remote credentials, which local runs don't need. An
// empty month list is allowed; it yields the no-data result.
func (c Config) Validate() error {
	for _, m := range c.Series.Months {
		if strings.TrimSpace(m) == "" {
			return errors.New("series.months contains an empty pattern")
		}
		if strings.ContainsAny(m, "\n\r") {
			return fmt.Errorf("series.months pattern %q spans lines", m)
		}
	}
	if len(c.Series.AllowedStatuses) == 0 {
		return errors.New("series.allowed_statuses is empty")
	}
	if c.Remote.FilePath == "" {
		return errors.New("remote.file_path is empty")
	}
	if c.General.Workers < 0 {
		return fmt.Errorf("general.workers = %d, want >= 0", c.General.Workers)
	}
	return nil
}

// ValidateRemote checks the settings needed to reach the SSH host.
func (c Config) ValidateRemote() error {
	if c.Remote.Host == "" {
		return fmt.Errorf("remote.host is empty (set it in %s or %s)", ConfigPath(), EnvHost)
	}
	if c.Remote.User == "" {
		return fmt.Errorf("remote.user is empty (set it in %s or %s)", ConfigPath(), EnvUser)
	}
	if c.Remote.Password == "" && c.Remote.KeyFile == "" {
		return fmt.Errorf("no SSH credentials: set %s or %s", EnvPassword, EnvKeyFile)
	}
	return nil
}
