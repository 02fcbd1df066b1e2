package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is built once at process start and handed to the store, the HTTP
// server and the importer.
type Config struct {
	Server struct {
		Addr string `yaml:"addr" env:"ADDR"`
		// ShutdownTimeout is how many seconds in-flight requests get to finish.
		ShutdownTimeout int `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path" env:"DB_PATH"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Pretty bool   `yaml:"pretty" env:"LOG_PRETTY"`
	} `yaml:"logging"`
}

// Load applies defaults, then the YAML file at configPath (if it exists),
// then a .env file in the working directory (if it exists), then the
// process environment.
func Load(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if strings.TrimSpace(configPath) != "" {
		file, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Variables already set in the environment win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(config *Config) {
	config.Server.Addr = ":5000"
	config.Server.ShutdownTimeout = 10
	config.Database.Path = DefaultDatabasePath()
	config.Logging.Level = "info"
	config.Logging.Pretty = true
}

// DefaultDatabasePath places the database in a data directory next to the
// executable.
func DefaultDatabasePath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("data", "questions.db")
	}
	return filepath.Join(filepath.Dir(exe), "data", "questions.db")
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Server.Addr) == "" {
		return errors.New("server address is required")
	}
	if config.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if strings.TrimSpace(config.Database.Path) == "" {
		return errors.New("database path is required")
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.Logging.Level)
	}
	return nil
}
