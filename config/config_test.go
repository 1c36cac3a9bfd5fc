package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CollectorTickInterval.Duration != time.Second {
		t.Errorf("CollectorTickInterval = %v, want 1s default", cfg.CollectorTickInterval.Duration)
	}
}

func TestLoadParsesDurationsAndOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typingstatsd.yaml")
	yaml := `
data_dir: /tmp/data
flush_interval: 45s
shortcut_rules:
  require_cmd_or_ctrl: false
  min_modifiers: 2
  blocklist: ["cmd_q"]
excluded_bundle_ids: ["com.example.secrets"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.FlushInterval.Duration != 45*time.Second {
		t.Errorf("FlushInterval = %v, want 45s", cfg.FlushInterval.Duration)
	}
	if cfg.CollectorTickInterval.Duration != time.Second {
		t.Errorf("CollectorTickInterval should keep its default 1s, got %v", cfg.CollectorTickInterval.Duration)
	}
	if cfg.ShortcutRules.RequireCmdOrCtrl {
		t.Errorf("RequireCmdOrCtrl should be overridden to false")
	}
	if cfg.ShortcutRules.MinModifiers != 2 {
		t.Errorf("MinModifiers = %d, want 2", cfg.ShortcutRules.MinModifiers)
	}
	if len(cfg.ExcludedBundleIDs) != 1 || cfg.ExcludedBundleIDs[0] != "com.example.secrets" {
		t.Errorf("ExcludedBundleIDs = %v", cfg.ExcludedBundleIDs)
	}
}

func TestEnforceFloorClampsBelowMinimum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typingstatsd.yaml")
	if err := os.WriteFile(path, []byte("flush_interval: 100ms\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FlushInterval.Duration != time.Second {
		t.Errorf("FlushInterval = %v, want clamped to 1s floor", cfg.FlushInterval.Duration)
	}
}

func TestUnmarshalYAMLRejectsInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typingstatsd.yaml")
	if err := os.WriteFile(path, []byte("flush_interval: not-a-duration\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected parse error for invalid duration string")
	}
}
