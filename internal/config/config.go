// Package config loads markstorm configuration from TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full markstorm configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Storage StorageConfig `toml:"storage"`
	Editor  EditorConfig  `toml:"editor"`
	Plugins PluginsConfig `toml:"plugins"`
}

// HistoryConfig configures the undo engine.
type HistoryConfig struct {
	// MaxSize bounds the number of retained undo records. -1 leaves
	// the history limited only by memory.
	MaxSize int `toml:"max_size"`
}

// StorageConfig selects where history snapshots are persisted.
type StorageConfig struct {
	// Backend is one of "memory", "json", or "badger".
	Backend string `toml:"backend"`

	// Path is the store location: a file for "json", a directory for
	// "badger". Empty resolves to a per-user default.
	Path string `toml:"path"`
}

// EditorConfig configures buffer behavior.
type EditorConfig struct {
	TabWidth   int    `toml:"tab_width"`
	LineEnding string `toml:"line_ending"` // "lf", "crlf", or "cr"
	Autosave   bool   `toml:"autosave"`
}

// PluginsConfig configures the Lua command scripts.
type PluginsConfig struct {
	// Dir is scanned for *.lua scripts at startup. Empty disables
	// plugins.
	Dir string `toml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{MaxSize: -1},
		Storage: StorageConfig{Backend: "json"},
		Editor:  EditorConfig{TabWidth: 4, LineEnding: "lf"},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "markstorm", "config.toml"), nil
}

// Load reads TOML configuration from path, overlaying the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.History.MaxSize < -1 {
		return fmt.Errorf("history.max_size must be >= -1, got %d", c.History.MaxSize)
	}
	switch c.Storage.Backend {
	case "memory", "json", "badger":
	default:
		return fmt.Errorf("storage.backend must be one of memory, json, badger; got %q", c.Storage.Backend)
	}
	if c.Editor.TabWidth <= 0 {
		return fmt.Errorf("editor.tab_width must be positive, got %d", c.Editor.TabWidth)
	}
	switch c.Editor.LineEnding {
	case "lf", "crlf", "cr":
	default:
		return fmt.Errorf("editor.line_ending must be one of lf, crlf, cr; got %q", c.Editor.LineEnding)
	}
	return nil
}
