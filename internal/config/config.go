package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "CSDICT_CONFIG"

// DefaultFileName is looked up in the home directory when EnvConfigPath
// is unset.
const DefaultFileName = ".csdict.yaml"

// Config represents the client configuration
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Shell      ShellConfig      `yaml:"shell"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConnectionConfig contains control connection settings
type ConnectionConfig struct {
	DefaultPort    int           `yaml:"default_port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ShellConfig contains interactive shell settings
type ShellConfig struct {
	Prompt       string `yaml:"prompt"`
	HistoryFile  string `yaml:"history_file"`
	HistoryLimit int    `yaml:"history_limit"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputPath string `yaml:"output_path"` // stdout, stderr, or file path
}

// Load reads and parses the configuration file. Keys missing from the
// file keep their default values.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Shell.HistoryFile = expandHome(cfg.Shell.HistoryFile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Resolve loads the file named by CSDICT_CONFIG, else ~/.csdict.yaml if it
// exists, else returns the defaults. The returned path is "" when no file
// was read.
func Resolve() (*Config, string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}

	home := homeDir()
	if home == "" {
		return Default(), "", nil
	}
	path := filepath.Join(home, DefaultFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), "", nil
		}
		return nil, path, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Connection.DefaultPort <= 0 || c.Connection.DefaultPort > 65535 {
		return fmt.Errorf("invalid default port: %d", c.Connection.DefaultPort)
	}

	if c.Connection.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.Shell.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	if c.Logging.OutputPath == "" {
		return fmt.Errorf("log output path is required")
	}

	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	historyFile := ""
	if home := homeDir(); home != "" {
		historyFile = filepath.Join(home, ".csdict_history")
	}

	return &Config{
		Connection: ConnectionConfig{
			DefaultPort:    2628,
			ConnectTimeout: 30 * time.Second,
		},
		Shell: ShellConfig{
			Prompt:       "csdict> ",
			HistoryFile:  historyFile,
			HistoryLimit: 500,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home := homeDir(); home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
