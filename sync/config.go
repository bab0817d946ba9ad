// ABOUTME: Sync configuration and credential management
// ABOUTME: Handles config storage at XDG paths, environment overrides, and run ID generation
package sync

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/oklog/ulid/v2"
)

// Config stores API credentials and synchronization settings.
type Config struct {
	APIToken           string   `json:"api_token"`
	APIEndpoint        string   `json:"api_endpoint,omitempty"`
	DatabasePath       string   `json:"database_path,omitempty"`
	FreshForHours      int      `json:"fresh_for_hours"`
	FullSyncAfterHours int      `json:"full_sync_after_hours"`
	MaxBoardsPerSync   int      `json:"max_boards_per_sync"`
	AllowedWorkspaces  []string `json:"allowed_workspaces,omitempty"`
	ArchivePayloads    bool     `json:"archive_payloads"`
}

// Default freshness and sizing settings.
const (
	DefaultFreshForHours      = 6
	DefaultFullSyncAfterHours = 24
	DefaultMaxBoardsPerSync   = 500
)

// ConfigDir returns the XDG-compliant directory for configuration.
func ConfigDir() string {
	return filepath.Join(xdg.DataHome, "pulsemap")
}

// ConfigPath returns the XDG-compliant path for the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DefaultDatabasePath returns where the mirror database lives unless
// configured otherwise.
func DefaultDatabasePath() string {
	return filepath.Join(ConfigDir(), "pulsemap.db")
}

// LoadConfig loads configuration from the XDG data directory. A missing
// file yields defaults. Environment variables override file values:
// - PULSEMAP_API_TOKEN (MONDAY_API_TOKEN also honored)
// - PULSEMAP_API_ENDPOINT
// - PULSEMAP_DB_PATH
// - PULSEMAP_FRESH_HOURS
// - PULSEMAP_FULL_SYNC_HOURS
// - PULSEMAP_MAX_BOARDS
// - PULSEMAP_ALLOWED_WORKSPACES (comma-separated ids)
// - PULSEMAP_ARCHIVE_PAYLOADS.
func LoadConfig() (*Config, error) {
	path := ConfigPath()

	cfg := &Config{
		FreshForHours:      DefaultFreshForHours,
		FullSyncAfterHours: DefaultFullSyncAfterHours,
		MaxBoardsPerSync:   DefaultMaxBoardsPerSync,
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("PULSEMAP_API_TOKEN"); token != "" {
		cfg.APIToken = token
	} else if token := os.Getenv("MONDAY_API_TOKEN"); token != "" {
		cfg.APIToken = token
	}
	if endpoint := os.Getenv("PULSEMAP_API_ENDPOINT"); endpoint != "" {
		cfg.APIEndpoint = endpoint
	}
	if path := os.Getenv("PULSEMAP_DB_PATH"); path != "" {
		cfg.DatabasePath = path
	}
	if v := os.Getenv("PULSEMAP_FRESH_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FreshForHours = n
		}
	}
	if v := os.Getenv("PULSEMAP_FULL_SYNC_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FullSyncAfterHours = n
		}
	}
	if v := os.Getenv("PULSEMAP_MAX_BOARDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxBoardsPerSync = n
		}
	}
	if v := os.Getenv("PULSEMAP_ALLOWED_WORKSPACES"); v != "" {
		var ids []string
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		cfg.AllowedWorkspaces = ids
	}
	if v := os.Getenv("PULSEMAP_ARCHIVE_PAYLOADS"); v != "" {
		cfg.ArchivePayloads = v == "true" || v == "1"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabasePath()
	}
	if cfg.FreshForHours <= 0 {
		cfg.FreshForHours = DefaultFreshForHours
	}
	if cfg.FullSyncAfterHours <= 0 {
		cfg.FullSyncAfterHours = DefaultFullSyncAfterHours
	}
	if cfg.MaxBoardsPerSync <= 0 {
		cfg.MaxBoardsPerSync = DefaultMaxBoardsPerSync
	}
}

// SaveConfig saves configuration with restricted permissions, since it can
// hold the API token.
func SaveConfig(cfg *Config) error {
	path := ConfigPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// IsConfigured checks whether enough is present to reach the API.
func (c *Config) IsConfigured() bool {
	return c.APIToken != ""
}

// FreshFor is the age under which the mirror needs no refresh at all.
func (c *Config) FreshFor() time.Duration {
	return time.Duration(c.FreshForHours) * time.Hour
}

// FullSyncAfter is the age past which only a full sync will do.
func (c *Config) FullSyncAfter() time.Duration {
	return time.Duration(c.FullSyncAfterHours) * time.Hour
}

// WorkspaceAllowed reports whether the id passes the configured allow-list.
// An empty list allows everything.
func (c *Config) WorkspaceAllowed(id string) bool {
	if len(c.AllowedWorkspaces) == 0 {
		return true
	}
	for _, allowed := range c.AllowedWorkspaces {
		if allowed == id {
			return true
		}
	}
	return false
}

// GenerateSyncRunID generates a new ULID to identify a sync run.
func GenerateSyncRunID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
