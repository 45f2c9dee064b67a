// Package config provides configuration management for tmxsync.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/tmxsync/internal/util"
)

// ResolverMode selects how conflicts and partial presences are decided.
type ResolverMode string

const (
	// ModeAuto uses the TUI when attached to a terminal and the line prompt otherwise.
	ModeAuto ResolverMode = "auto"
	// ModePrompt asks on stdin with a numbered menu.
	ModePrompt ResolverMode = "prompt"
	// ModeTUI uses the interactive picker.
	ModeTUI ResolverMode = "tui"
	// ModeScript answers from a TOML decision file.
	ModeScript ResolverMode = "script"
)

// IsValid returns true if the mode is recognized.
func (m ResolverMode) IsValid() bool {
	switch m {
	case ModeAuto, ModePrompt, ModeTUI, ModeScript:
		return true
	default:
		return false
	}
}

// ParseResolverMode parses a resolver mode name.
func ParseResolverMode(s string) (ResolverMode, error) {
	m := ResolverMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid resolver mode %q (valid: auto, prompt, tui, script)", s)
	}
	return m, nil
}

// Config represents the complete tmxsync configuration.
type Config struct {
	// Resolver configures how tile decisions are made
	Resolver ResolverConfig `yaml:"resolver"`

	// Backup configures backup behavior
	Backup BackupConfig `yaml:"backup"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`
}

// ResolverConfig holds resolver settings.
type ResolverConfig struct {
	// Mode is one of auto, prompt, tui, script
	Mode string `yaml:"mode"`
	// Script is the path to a TOML decision script, used in script mode
	Script string `yaml:"script,omitempty"`
}

// BackupConfig holds backup settings.
type BackupConfig struct {
	// Enabled enables backups of map files before they are overwritten
	Enabled bool `yaml:"enabled"`
	// Location is the backup directory path
	Location string `yaml:"location"`
	// MaxBackups is the maximum number of backups kept per map file (0 = unlimited)
	MaxBackups int `yaml:"max_backups"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Indent is the number of spaces used when re-indenting written maps (0 keeps the layout)
	Indent int `yaml:"indent"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Mode: string(ModeAuto),
		},
		Backup: BackupConfig{
			Enabled:    true,
			Location:   util.TmxsyncBackupsPath(),
			MaxBackups: 10,
		},
		Output: OutputConfig{
			Color:  "auto",
			Indent: 1,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.TmxsyncConfigPath(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	configPath := FilePath()
	// #nosec G304 - configPath is constructed from trusted config directory
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern TMXSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("TMXSYNC_RESOLVER_MODE"); v != "" {
		c.Resolver.Mode = v
	}
	if v := os.Getenv("TMXSYNC_RESOLVER_SCRIPT"); v != "" {
		c.Resolver.Script = v
	}

	if v := os.Getenv("TMXSYNC_BACKUP_ENABLED"); v != "" {
		c.Backup.Enabled = parseBool(v)
	}
	if v := os.Getenv("TMXSYNC_BACKUP_LOCATION"); v != "" {
		c.Backup.Location = v
	}
	if v := os.Getenv("TMXSYNC_BACKUP_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Backup.MaxBackups = n
		}
	}

	if v := os.Getenv("TMXSYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// GetResolverMode returns the resolver mode from config, validating it.
func (c *Config) GetResolverMode() ResolverMode {
	if m, err := ParseResolverMode(c.Resolver.Mode); err == nil {
		return m
	}
	return ModeAuto
}

// BackupLocation returns the backup directory with ~ expanded.
func (c *Config) BackupLocation() string {
	if c.Backup.Location == "" {
		return util.TmxsyncBackupsPath()
	}
	return util.ExpandPath(c.Backup.Location, "")
}

// ScriptPath returns the decision script path with ~ expanded.
func (c *Config) ScriptPath() string {
	return util.ExpandPath(c.Resolver.Script, "")
}

// ColorDisabled reports whether color output is switched off by config.
func (c *Config) ColorDisabled() bool {
	return strings.EqualFold(c.Output.Color, "never")
}
