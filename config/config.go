// Package config parses the supervisor's own operational bootstrap file:
// tick/flush/session-gap timing, the data directory, and day-zero defaults
// for the shortcut ruleset and exclusion list. Live mutation of user-facing
// preferences belongs to the control surface; this package only supplies
// the defaults in force before any control-surface call arrives.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// minInterval is the timing floor: collector_tick_interval, flush_interval,
// and session_gap must each be at least 1 second.
const minInterval = time.Second

// Config is the shape of the typingstatsd.yaml bootstrap file. All fields
// are optional; fields the file omits keep their Defaults() values, and
// timing fields below the floor are clamped up to it.
type Config struct {
	DataDir               string        `yaml:"data_dir"`
	BaseFilename          string        `yaml:"base_filename"`
	CollectorTickInterval Duration      `yaml:"collector_tick_interval"`
	FlushInterval         Duration      `yaml:"flush_interval"`
	SessionGap            Duration      `yaml:"session_gap"`
	ShortcutRules         ShortcutRules `yaml:"shortcut_rules"`
	ExcludedBundleIDs     []string      `yaml:"excluded_bundle_ids"`
}

// ShortcutRules is the YAML shape of the default admission-filter ruleset,
// mirrored onto shortcut.Rules by the caller so config stays independent of
// the shortcut package's types.
type ShortcutRules struct {
	RequireCmdOrCtrl bool     `yaml:"require_cmd_or_ctrl"`
	AllowAltOnly     bool     `yaml:"allow_alt_only"`
	MinModifiers     uint8    `yaml:"min_modifiers"`
	Allowlist        []string `yaml:"allowlist"`
	Blocklist        []string `yaml:"blocklist"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m"),
// adapted directly from cli/config/config.go's Duration.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration used when no bootstrap file
// is present.
func Defaults() Config {
	return Config{
		DataDir:               defaultDataDir(),
		BaseFilename:          "typingstats-details.json",
		CollectorTickInterval: Duration{time.Second},
		FlushInterval:         Duration{30 * time.Second},
		SessionGap:            Duration{5 * time.Minute},
		ShortcutRules: ShortcutRules{
			RequireCmdOrCtrl: true,
			MinModifiers:     1,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".typingstats"
	}
	return home + "/.typingstats"
}

// Load reads and parses a YAML bootstrap file at path, applying Defaults()
// first so any field the file omits keeps its built-in value. A missing
// file is not an error; Load returns Defaults().
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.enforceFloor()
	return cfg, nil
}

// enforceFloor clamps timing fields up to the minimums.
func (c *Config) enforceFloor() {
	if c.CollectorTickInterval.Duration < minInterval {
		c.CollectorTickInterval.Duration = minInterval
	}
	if c.FlushInterval.Duration < minInterval {
		c.FlushInterval.Duration = minInterval
	}
	if c.SessionGap.Duration < minInterval {
		c.SessionGap.Duration = minInterval
	}
}
