package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.URL != "http://localhost:8000/api/v1" {
		t.Errorf("expected default api url, got %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.View.MinZoom != 0.3 || cfg.View.MaxZoom != 2 {
		t.Errorf("expected zoom 0.3..2, got %v..%v", cfg.View.MinZoom, cfg.View.MaxZoom)
	}
	if cfg.View.FitPadding != 0.2 {
		t.Errorf("expected fit padding 0.2, got %v", cfg.View.FitPadding)
	}
	if !cfg.View.Minimap {
		t.Error("expected minimap on by default")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.API.SiteURL != "http://localhost:3000" {
		t.Errorf("expected default config, got site %q", cfg.API.SiteURL)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
api:
  url: https://certs.example.com/api/v1/
  site_url: https://certs.example.com
  timeout: 3s
view:
  min_zoom: 0.5
  max_zoom: 1.5
  default_category: IT
  minimap: false
categories:
  - label: 전체
    value: ""
  - label: IT
    value: IT
data:
  graph_file: ~/trees/it.json
export:
  concurrency: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.API.URL != "https://certs.example.com/api/v1" {
		t.Errorf("trailing slash not trimmed: %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.View.MinZoom != 0.5 || cfg.View.MaxZoom != 1.5 {
		t.Errorf("zoom = %v..%v", cfg.View.MinZoom, cfg.View.MaxZoom)
	}
	if cfg.View.FitPadding != 0.2 {
		t.Errorf("unset fit padding should keep default, got %v", cfg.View.FitPadding)
	}
	if cfg.View.Minimap {
		t.Error("minimap should be disabled")
	}
	if cfg.View.DefaultCategory != "IT" || cfg.CategoryIndex("it") != 1 {
		t.Errorf("category = %q index %d", cfg.View.DefaultCategory, cfg.CategoryIndex("it"))
	}
	if strings.HasPrefix(cfg.Data.GraphFile, "~") || !strings.HasSuffix(cfg.Data.GraphFile, filepath.Join("trees", "it.json")) {
		t.Errorf("graph file not expanded: %q", cfg.Data.GraphFile)
	}
	if cfg.Export.Concurrency != 2 {
		t.Errorf("concurrency = %d", cfg.Export.Concurrency)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		check func(Config) bool
	}{
		{"negative timeout", func(c *Config) { c.API.Timeout = -1 }, func(c Config) bool { return c.API.Timeout == 10*time.Second }},
		{"swapped zoom", func(c *Config) { c.View.MinZoom, c.View.MaxZoom = 3, 0.5 }, func(c Config) bool { return c.View.MinZoom == 0.5 && c.View.MaxZoom == 3 }},
		{"padding out of range", func(c *Config) { c.View.FitPadding = 1.5 }, func(c Config) bool { return c.View.FitPadding == 0.2 }},
		{"zero concurrency", func(c *Config) { c.Export.Concurrency = 0 }, func(c Config) bool { return c.Export.Concurrency == 8 }},
		{"empty url", func(c *Config) { c.API.URL = "" }, func(c Config) bool { return c.API.URL == DefaultConfig().API.URL }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			cfg.Normalize()
			if !tt.check(cfg) {
				t.Errorf("unexpected config after Normalize: %+v", cfg)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvAPIURL: "http://api.test/v1"}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.API.URL != "http://api.test/v1" {
		t.Errorf("api url = %q", cfg.API.URL)
	}
	if cfg.API.SiteURL != DefaultConfig().API.SiteURL {
		t.Errorf("unset env var changed site url to %q", cfg.API.SiteURL)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.View.DefaultCategory = "전기"
	cfg.API.Timeout = 4 * time.Second
	cfg.Categories = []Category{{Label: "전체"}, {Label: "전기", Value: "전기"}}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.View.DefaultCategory != "전기" || got.API.Timeout != 4*time.Second || len(got.Categories) != 2 {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestConfigDirUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got, want := ConfigPath(), filepath.Join(dir, "techtree", "config.yaml"); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}
