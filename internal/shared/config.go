package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	API      APIConfig      `toml:"api"`
	Refresh  RefreshConfig  `toml:"refresh"`
	Sources  []SourceConfig `toml:"sources"`
}

// LogConfig controls the logger level.
type LogConfig struct {
	Level string `toml:"level"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig controls the on-disk row-set cache.
//
// An empty Dir resolves to "mcb" under [os.UserCacheDir].
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// APIConfig contains the remote endpoints used to fetch sheets, playlists and the track catalog.
type APIConfig struct {
	SheetsURL     string  `toml:"sheets_url"`
	SpreadsheetID string  `toml:"spreadsheet_id"`
	SheetsKey     string  `toml:"sheets_key"`
	ConnectURL    string  `toml:"connect_url"`
	ConnectSID    string  `toml:"connect_sid"`
	RateLimit     float64 `toml:"rate_limit"`
	TimeoutSecs   int     `toml:"timeout_seconds"`
}

// RefreshConfig contains the debounce window for coordinated refreshes.
type RefreshConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// SourceConfig describes one fetchable tabular data source (a "tab").
//
// Sheet is the remote range to request; KeyColumn names the header used to validate rows against the local catalog.
// Static sources are never fetched and load their rows from the bundled data instead.
type SourceConfig struct {
	Name      string `toml:"name"`
	Sheet     string `toml:"sheet"`
	Request   string `toml:"request"`
	KeyColumn string `toml:"key_column"`
	Static    bool   `toml:"static"`
}

// Timeout returns the API timeout as a [time.Duration], defaulting to 30 seconds.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Debounce returns the debounce window, defaulting to 400ms.
func (c RefreshConfig) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 400 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// ResolveDir returns the cache directory, falling back to the user cache directory.
func (c CacheConfig) ResolveDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "mcb"), nil
}

// Source returns the source config with the given name (case-insensitive).
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Validate checks that every source has a unique, non-empty name and a sheet unless static.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			return fmt.Errorf("%w: source #%d has no name", ErrInvalidConfig, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate source %q", ErrInvalidConfig, s.Name)
		}
		seen[name] = true
		if !s.Static && s.Sheet == "" {
			return fmt.Errorf("%w: source %q has no sheet", ErrInvalidConfig, s.Name)
		}
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
