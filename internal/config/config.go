// Package config loads the tracker's configuration: a YAML file with
// environment overrides, plus an optional .env file for local
// development. The remote token never lives in the YAML file; it comes
// from the environment.
package config

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration with defaults applied.
type Config struct {
	Remote RemoteConfig `yaml:"remote"`
	Local  LocalConfig  `yaml:"local"`
	Sync   SyncConfig   `yaml:"sync"`
	Ref    RefConfig    `yaml:"refdata"`

	// AdminPINHash is the SHA-256 hex digest of the admin PIN. The admin
	// panel is gated by this single static secret comparison; there is no
	// further auth by design.
	AdminPINHash string `yaml:"admin_pin_hash"`

	// LogMode selects the zap configuration: "dev" or "prod".
	LogMode string `yaml:"log_mode"`
}

// RemoteConfig describes the Git-hosted mirror. Enabled() requires both a
// repository and a token.
type RemoteConfig struct {
	Repo           string `yaml:"repo"`
	Branch         string `yaml:"branch"`
	Path           string `yaml:"path"`
	CommitterName  string `yaml:"committer_name"`
	CommitterEmail string `yaml:"committer_email"`
	Token          string `yaml:"-"`
}

// Enabled reports whether remote synchronization is configured.
func (r RemoteConfig) Enabled() bool {
	return r.Repo != "" && r.Token != ""
}

// LocalConfig holds the on-disk file locations.
type LocalConfig struct {
	LedgerPath  string `yaml:"ledger_path"`
	CachePath   string `yaml:"cache_path"`
	PendingPath string `yaml:"pending_path"`
}

// SyncConfig tunes the sync adapter.
type SyncConfig struct {
	// Separator is the ledger field separator as a one-character string.
	Separator   string `yaml:"separator"`
	MaxRetries  uint64 `yaml:"max_retries"`
	TrimCleared bool   `yaml:"trim_cleared"`
}

// SeparatorRune returns the configured separator, defaulting to ';'.
func (s SyncConfig) SeparatorRune() rune {
	for _, r := range s.Separator {
		return r
	}
	return ';'
}

// RefConfig points at the reference tables.
type RefConfig struct {
	EmployeesPath       string `yaml:"employees_path"`
	LocationsPath       string `yaml:"locations_path"`
	LocationCatalogPath string `yaml:"location_catalog_path"`
}

// Load reads the config file at path (missing file means defaults), then
// applies environment overrides. A .env file in the working directory is
// loaded first, best-effort.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Remote: RemoteConfig{
			Branch: "main",
			Path:   "data/Tracker.csv",
		},
		Local: LocalConfig{
			LedgerPath:  "data/Tracker.csv",
			CachePath:   "data/Tracker.local.csv",
			PendingPath: "data/Tracker.pending.csv",
		},
		Sync: SyncConfig{
			Separator:  ";",
			MaxRetries: 3,
		},
		Ref: RefConfig{
			EmployeesPath:       "data/Popis_djelatnika_HR_Sales.csv",
			LocationsPath:       "data/Locations.csv",
			LocationCatalogPath: "data/Locations_normalized.csv",
		},
		LogMode: "prod",
	}
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Remote.Token, "LOKATOR_GITHUB_TOKEN")
	set(&cfg.Remote.Repo, "LOKATOR_GITHUB_REPO")
	set(&cfg.Remote.Branch, "LOKATOR_GITHUB_BRANCH")
	set(&cfg.Remote.Path, "LOKATOR_GITHUB_PATH")
	set(&cfg.AdminPINHash, "LOKATOR_ADMIN_PIN_HASH")
	set(&cfg.LogMode, "LOKATOR_LOG_MODE")
}

// CheckPIN compares a submitted PIN against the configured hash in
// constant time. An unset hash rejects everything.
func (c *Config) CheckPIN(pin string) bool {
	if c.AdminPINHash == "" || pin == "" {
		return false
	}
	sum := sha256.Sum256([]byte(pin))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(c.AdminPINHash)) == 1
}
