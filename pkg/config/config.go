// Package config handles loading and saving tt configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/techtree/config.yaml
//
// Values resolve in order: command-line flags, then environment
// (TT_API_URL, TT_SITE_URL), then this file, then DefaultConfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIURL  = "TT_API_URL"
	EnvSiteURL = "TT_SITE_URL"
)

// APIConfig points at the backend and the web front end used for links.
type APIConfig struct {
	URL     string        `yaml:"url,omitempty"`
	SiteURL string        `yaml:"site_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ViewConfig holds canvas preferences.
type ViewConfig struct {
	MinZoom         float64 `yaml:"min_zoom,omitempty"`
	MaxZoom         float64 `yaml:"max_zoom,omitempty"`
	FitPadding      float64 `yaml:"fit_padding,omitempty"` // fraction of content size
	DefaultCategory string  `yaml:"default_category,omitempty"`
	Minimap         bool    `yaml:"minimap"`
}

// Category is a selector entry; an empty Value means all categories.
type Category struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// DataConfig selects a non-live graph source.
type DataConfig struct {
	GraphFile string `yaml:"graph_file,omitempty"`
	OfflineDB string `yaml:"offline_db,omitempty"`
}

// ExportConfig tunes the exporters.
type ExportConfig struct {
	Concurrency int  `yaml:"concurrency,omitempty"`
	WithDetails bool `yaml:"with_details,omitempty"`
}

// Config is the top-level configuration for tt.
type Config struct {
	API        APIConfig    `yaml:"api,omitempty"`
	View       ViewConfig   `yaml:"view,omitempty"`
	Categories []Category   `yaml:"categories,omitempty"`
	Data       DataConfig   `yaml:"data,omitempty"`
	Export     ExportConfig `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			URL:     "http://localhost:8000/api/v1",
			SiteURL: "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		View: ViewConfig{
			MinZoom:    0.3,
			MaxZoom:    2,
			FitPadding: 0.2,
			Minimap:    true,
		},
		Export: ExportConfig{
			Concurrency: 8,
		},
	}
}

// ConfigDir returns the XDG config directory for tt.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "techtree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "techtree")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data.GraphFile = expandHome(cfg.Data.GraphFile)
	cfg.Data.OfflineDB = expandHome(cfg.Data.OfflineDB)
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
// getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := getenv(EnvSiteURL); v != "" {
		c.API.SiteURL = v
	}
}

// Normalize repairs out-of-range values, falling back to defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	c.API.URL = strings.TrimRight(c.API.URL, "/")
	c.API.SiteURL = strings.TrimRight(c.API.SiteURL, "/")
	if c.API.URL == "" {
		c.API.URL = def.API.URL
	}
	if c.API.SiteURL == "" {
		c.API.SiteURL = def.API.SiteURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = def.API.Timeout
	}
	if c.View.MinZoom <= 0 {
		c.View.MinZoom = def.View.MinZoom
	}
	if c.View.MaxZoom <= 0 {
		c.View.MaxZoom = def.View.MaxZoom
	}
	if c.View.MaxZoom < c.View.MinZoom {
		c.View.MinZoom, c.View.MaxZoom = c.View.MaxZoom, c.View.MinZoom
	}
	if c.View.FitPadding < 0 || c.View.FitPadding >= 1 {
		c.View.FitPadding = def.View.FitPadding
	}
	if c.Export.Concurrency <= 0 {
		c.Export.Concurrency = def.Export.Concurrency
	}
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// CategoryIndex returns the position of value in Categories, or -1.
func (c Config) CategoryIndex(value string) int {
	for i, cat := range c.Categories {
		if strings.EqualFold(cat.Value, value) {
			return i
		}
	}
	return -1
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
