package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imkarma/subtask/internal/store"
	"github.com/imkarma/subtask/internal/tree"
)

const (
	// DirName is the default workspace directory, relative to the working directory.
	DirName = ".subtask"
	// DirEnv overrides the workspace directory.
	DirEnv = "SUBTASK_DIR"

	FileName   = "config.yaml"
	DBFileName = "subtask.db"
	LogFile    = "subtask.log"
)

// Config is the root configuration for a subtask workspace.
type Config struct {
	Version           int    `yaml:"version"`
	MaxItemsPerColumn int    `yaml:"max_items_per_column"`
	StorageKey        string `yaml:"storage_key"`
	LogLevel          string `yaml:"log_level"`           // debug, info, warn, error
	ExportDir         string `yaml:"export_dir,omitempty"` // relative to the working directory
}

// Load reads and parses the config file at the given path.
// Missing fields fall back to their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the starter config written by `subtask init`.
func DefaultConfig() *Config {
	return &Config{
		Version:           1,
		MaxItemsPerColumn: tree.DefaultMaxItems,
		StorageKey:        store.DefaultKey,
		LogLevel:          "info",
	}
}

func (c *Config) validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	if c.MaxItemsPerColumn < 1 {
		return fmt.Errorf("max_items_per_column must be at least 1, got %d", c.MaxItemsPerColumn)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("storage_key is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

// ParseLevel maps a log_level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
}

// Dir resolves the workspace directory: the explicit flag value first, then
// $SUBTASK_DIR, then DirName.
func Dir(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(DirEnv); env != "" {
		return env
	}
	return DirName
}

// Workspace is a resolved workspace directory.
type Workspace struct {
	Dir string
}

func (w Workspace) ConfigPath() string { return filepath.Join(w.Dir, FileName) }
func (w Workspace) DBPath() string     { return filepath.Join(w.Dir, DBFileName) }
func (w Workspace) LogPath() string    { return filepath.Join(w.Dir, LogFile) }

// Exists reports whether the workspace has been initialized.
func (w Workspace) Exists() bool {
	_, err := os.Stat(w.DBPath())
	return err == nil
}

// LoadOrDefault reads the workspace config, returning defaults when the file
// does not exist.
func (w Workspace) LoadOrDefault() (*Config, error) {
	cfg, err := Load(w.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}
