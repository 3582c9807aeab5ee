// ABOUTME: Bootstrap configuration loading for cocomud
// ABOUTME: YAML file with ${VAR} expansion, optional .env file and COCOMUD_* overrides

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings backends understood by the CLI.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config represents the complete cocomud bootstrap configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Settings SettingsConfig `yaml:"settings"`
	Logging  LoggingConfig  `yaml:"logging"`
	Update   UpdateConfig   `yaml:"update"`
}

// PathsConfig holds the directories the engine reads and writes
type PathsConfig struct {
	Logs     string `yaml:"logs" env:"COCOMUD_LOG_DIR"`
	Docs     string `yaml:"docs" env:"COCOMUD_DOC_DIR"`
	Settings string `yaml:"settings" env:"COCOMUD_SETTINGS_DIR"`
	Worlds   string `yaml:"worlds" env:"COCOMUD_WORLDS_DIR"`
	Database string `yaml:"database" env:"COCOMUD_DATABASE"`
}

// SettingsConfig selects where settings layers are persisted
type SettingsConfig struct {
	Backend string `yaml:"backend" env:"COCOMUD_SETTINGS_BACKEND"`
}

// LoggingConfig holds console logging configuration
type LoggingConfig struct {
	Color bool `yaml:"color" env:"COCOMUD_LOG_COLOR"`
}

// UpdateConfig holds the installed build and where newer builds are published
type UpdateConfig struct {
	Build int    `yaml:"build" env:"COCOMUD_BUILD"`
	URL   string `yaml:"url" env:"COCOMUD_UPDATE_URL"`
	Dir   string `yaml:"dir" env:"COCOMUD_UPDATE_DIR"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Logs:     "logs",
			Docs:     "doc",
			Settings: "settings",
			Worlds:   "worlds",
			Database: "settings/cocomud.db",
		},
		Settings: SettingsConfig{Backend: BackendFile},
		Logging:  LoggingConfig{Color: true},
		Update:   UpdateConfig{Dir: "updates"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Values missing from the file keep their defaults. Environment variables in the
// format ${VAR_NAME} are expanded, then COCOMUD_* variables override the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		if err := finish(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

// LoadDotEnv loads environment variables from path. Missing files are ignored.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func finish(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Paths.Logs == "" {
		return fmt.Errorf("paths.logs is required")
	}
	if c.Paths.Worlds == "" {
		return fmt.Errorf("paths.worlds is required")
	}

	switch c.Settings.Backend {
	case BackendFile:
		if c.Paths.Settings == "" {
			return fmt.Errorf("paths.settings is required for the file backend")
		}
	case BackendSQLite:
		if c.Paths.Database == "" {
			return fmt.Errorf("paths.database is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("settings.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Settings.Backend)
	}

	if c.Update.Build < 0 {
		return fmt.Errorf("update.build must not be negative")
	}

	return nil
}
