package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExpandMonths(t *testing.T) {
	tests := []struct {
		expr    string
		want    []string
		wantErr bool
	}{
		{"2022-01", []string{"2022-01"}, false},
		{"2022-01,2022-03", []string{"2022-01", "2022-03"}, false},
		{"2022-11..2023-02", []string{"2022-11", "2022-12", "2023-01", "2023-02"}, false},
		{"2022-01, 2022-05..2022-06", []string{"2022-01", "2022-05", "2022-06"}, false},
		{"2022-03..2022-03", []string{"2022-03"}, false},
		{"2022-03..2022-01", nil, true},
		{"2022-13..2023-01", nil, true},
		{"", nil, false},
		{" , ", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ExpandMonths(tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ExpandMonths(%q) = %v, want error", tt.expr, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandMonths(%q): %v", tt.expr, err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ExpandMonths(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if n := len(cfg.Series.Months); n != 12 {
		t.Errorf("default months = %d, want 12", n)
	}
	if cfg.Series.Months[0] != "2022-01" || cfg.Series.Months[11] != "2022-12" {
		t.Errorf("default months = %v", cfg.Series.Months)
	}
	if cfg.Remote.FilePath != "/srv/utem/supermercado.csv" {
		t.Errorf("FilePath = %q", cfg.Remote.FilePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.General.Workers)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvPassword, "")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Remote.Host = "ssh.example.com"
	cfg.Remote.User = "alumno"
	cfg.Remote.Timeout = Duration{30 * time.Second}
	cfg.Series.Months = []string{"2022-01", "2022-02"}
	cfg.Cache.MaxAge = Duration{90 * time.Minute}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.Remote.Host != "ssh.example.com" || got.Remote.User != "alumno" {
		t.Errorf("remote = %+v", got.Remote)
	}
	if got.Remote.Timeout.Duration != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", got.Remote.Timeout)
	}
	if got.Cache.MaxAge.Duration != 90*time.Minute {
		t.Errorf("MaxAge = %v, want 1h30m", got.Cache.MaxAge)
	}
	if len(got.Series.Months) != 2 {
		t.Errorf("Months = %v", got.Series.Months)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[remote]\nhost = \"file-host\"\npassword = \"from-file\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvPassword, "from-env")
	t.Setenv(EnvHost, "")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Remote.Password != "from-env" {
		t.Errorf("Password = %q, want from-env", cfg.Remote.Password)
	}
	if cfg.Remote.Host != "file-host" {
		t.Errorf("Host = %q, want file-host", cfg.Remote.Host)
	}
}

func TestDotEnvLoaded(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvKeyFile+"=/keys/id_ed25519\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Registers cleanup that restores the unset state after godotenv sets it.
	t.Setenv(EnvKeyFile, "")
	os.Unsetenv(EnvKeyFile)

	cfg, err := LoadFrom(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Remote.KeyFile != "/keys/id_ed25519" {
		t.Errorf("KeyFile = %q, want value from .env", cfg.Remote.KeyFile)
	}
}

func TestSaveDoesNotPersistEnvPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv(EnvPassword, "secret")

	cfg := DefaultConfig()
	cfg.Remote.Password = "secret"
	if err := SaveTo(path, cfg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("env password written to config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"blank month", func(c *Config) { c.Series.Months = []string{"2022-01", " "} }},
		{"multiline month", func(c *Config) { c.Series.Months = []string{"2022-01\n2022-02"} }},
		{"no statuses", func(c *Config) { c.Series.AllowedStatuses = nil }},
		{"no file", func(c *Config) { c.Remote.FilePath = "" }},
		{"negative workers", func(c *Config) { c.General.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestValidateAllowsEmptyMonths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Series.Months = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with no months = %v, want nil", err)
	}
}

func TestValidateRemote(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateRemote(); err == nil {
		t.Error("empty host accepted")
	}
	cfg.Remote.Host = "h"
	cfg.Remote.User = "u"
	if err := cfg.ValidateRemote(); err == nil {
		t.Error("missing credentials accepted")
	}
	cfg.Remote.KeyFile = "/k"
	if err := cfg.ValidateRemote(); err != nil {
		t.Errorf("ValidateRemote() = %v", err)
	}
}
