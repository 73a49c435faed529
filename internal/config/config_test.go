package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "immocrawl"}
	RegisterFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newCmd(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxPages != 37 || cfg.WarmupPages != 5 {
		t.Errorf("Unexpected pagination defaults: %d/%d", cfg.MaxPages, cfg.WarmupPages)
	}
	if cfg.ListingDelayMin != 3*time.Second || cfg.ListingDelayMax != 7*time.Second {
		t.Errorf("Unexpected listing delay %s-%s", cfg.ListingDelayMin, cfg.ListingDelayMax)
	}
	if cfg.DetailDelayMin != 5*time.Second || cfg.DetailDelayMax != 10*time.Second {
		t.Errorf("Unexpected detail delay %s-%s", cfg.DetailDelayMin, cfg.DetailDelayMax)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("Unexpected timeout %s", cfg.HTTPTimeout)
	}
	if cfg.LinksFile != "mubawab_links.csv" || cfg.OutputFile != "mubawab_data.csv" {
		t.Errorf("Unexpected files %s, %s", cfg.LinksFile, cfg.OutputFile)
	}
	if cfg.Workers != 1 || cfg.LogLevel != "warn" {
		t.Errorf("Unexpected workers/log level %d/%s", cfg.Workers, cfg.LogLevel)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("IMMOCRAWL_MAX_PAGES", "12")
	t.Setenv("IMMOCRAWL_DETAIL_DELAY_MIN", "1s")
	t.Setenv("IMMOCRAWL_DETAIL_DELAY_MAX", "2s")
	t.Setenv("IMMOCRAWL_PROXIES", "http://a:1, http://b:2")
	t.Setenv("IMMOCRAWL_HEADERS", "referer: https://www.mubawab.ma/;DNT: 1")

	cfg, err := Load(newCmd(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxPages != 12 {
		t.Errorf("Expected 12 pages, got %d", cfg.MaxPages)
	}
	if cfg.DetailDelayMin != time.Second || cfg.DetailDelayMax != 2*time.Second {
		t.Errorf("Unexpected detail delay %s-%s", cfg.DetailDelayMin, cfg.DetailDelayMax)
	}
	if !reflect.DeepEqual(cfg.Proxies, []string{"http://a:1", "http://b:2"}) {
		t.Errorf("Unexpected proxies %v", cfg.Proxies)
	}
	if cfg.Headers["Referer"] != "https://www.mubawab.ma/" || cfg.Headers["Dnt"] != "1" {
		t.Errorf("Unexpected headers %v", cfg.Headers)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("IMMOCRAWL_MAX_PAGES", "12")
	t.Setenv("IMMOCRAWL_WORKERS", "2")

	cfg, err := Load(newCmd(t, "--max-pages", "3", "-v", "-H", "X-Test: yes", "--amenities", "binary"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxPages != 3 {
		t.Errorf("Expected flag to win, got %d", cfg.MaxPages)
	}
	if cfg.Workers != 2 {
		t.Errorf("Expected env workers, got %d", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.Headers["X-Test"] != "yes" || cfg.AmenityStyle != "binary" {
		t.Errorf("Unexpected flag values %v %s", cfg.Headers, cfg.AmenityStyle)
	}
}

func TestLoad_LogLevel(t *testing.T) {
	t.Setenv("IMMOCRAWL_LOG_LEVEL", "error")

	cfg, err := Load(newCmd(t, "--log-level", "info"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected info from the flag, got %s", cfg.LogLevel)
	}

	cfg, err = Load(newCmd(t, "--log-level", "info", "-v"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected -v to win, got %s", cfg.LogLevel)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("IMMOCRAWL_LINKS_FILE=from-dotenv.csv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("IMMOCRAWL_LINKS_FILE") })

	cfg, err := Load(newCmd(t, "--env-file", path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LinksFile != "from-dotenv.csv" {
		t.Errorf("Expected links file from .env, got %s", cfg.LinksFile)
	}
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	_, err := Load(newCmd(t, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	if err == nil {
		t.Fatal("Expected error for missing explicit env file")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("IMMOCRAWL_WORKERS", "many")
	_, err := Load(newCmd(t))
	if err == nil || !strings.Contains(err.Error(), "IMMOCRAWL_WORKERS") {
		t.Errorf("Expected error naming the variable, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"workers too high", func(c *Config) { c.Workers = 5 }},
		{"workers zero", func(c *Config) { c.Workers = 0 }},
		{"inverted delay", func(c *Config) { c.DetailDelayMin = 11 * time.Second }},
		{"negative delay", func(c *Config) { c.ListingDelayMin = -time.Second }},
		{"bad amenity style", func(c *Config) { c.AmenityStyle = "yes-no" }},
		{"bad base url", func(c *Config) { c.BaseURL = "ftp://x" }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"bad proxy", func(c *Config) { c.Proxies = []string{"gopher://p:1"} }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"metrics address without port", func(c *Config) { c.MetricsAddr = "localhost" }},
	}

	if err := validate(Default()); err != nil {
		t.Fatalf("Defaults should be valid: %v", err)
	}
	for _, tt := range tests {
		c := Default()
		tt.mutate(c)
		if err := validate(c); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
