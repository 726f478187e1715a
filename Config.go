package main

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultListenAddress = ":8080"

const DefaultLogLevel = "info"

var ConfigError = errors.New("invalid config")

type Config struct {
	DatabaseFilepath string        `yaml:"databaseFilepath,omitempty"`
	ListenAddress    string        `yaml:"listenAddress,omitempty"`
	SheetVersion     string        `yaml:"sheetVersion,omitempty"`
	WebhookWorkers   int           `yaml:"webhookWorkers,omitempty"`
	WebhookTimeout   time.Duration `yaml:"webhookTimeout,omitempty"`
	LogLevel         string        `yaml:"logLevel,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddress:  DefaultListenAddress,
		SheetVersion:   DefaultVersion,
		WebhookWorkers: DefaultWebhookWorkersCount,
		WebhookTimeout: DefaultWebhookTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// LoadConfig applies defaults, then the yaml file at path (skipped when path
// is empty or the file does not exist), then environment variables.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return config, fmt.Errorf("%w: %w", ConfigError, err)
		}

		if err == nil {
			if err = yaml.Unmarshal(data, &config); err != nil {
				return config, fmt.Errorf("%w: %s: %w", ConfigError, path, err)
			}
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return config, err
	}

	return config, nil
}

func (config *Config) applyEnv(lookup func(string) (string, bool)) error {
	if value, ok := lookup("DATABASE_FILEPATH"); ok {
		config.DatabaseFilepath = value
	}
	if value, ok := lookup("LISTEN_ADDRESS"); ok {
		config.ListenAddress = value
	}
	if value, ok := lookup("SHEET_VERSION"); ok {
		config.SheetVersion = value
	}
	if value, ok := lookup("LOG_LEVEL"); ok {
		config.LogLevel = value
	}

	if value, ok := lookup("WEBHOOK_WORKERS"); ok {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: WEBHOOK_WORKERS: %w", ConfigError, err)
		}
		config.WebhookWorkers = workers
	}

	if value, ok := lookup("WEBHOOK_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: WEBHOOK_TIMEOUT: %w", ConfigError, err)
		}
		config.WebhookTimeout = timeout
	}

	return nil
}

func (config Config) Validate() error {
	if config.DatabaseFilepath == "" {
		return fmt.Errorf("%w: database filepath is required", ConfigError)
	}
	if config.WebhookWorkers <= 0 {
		return fmt.Errorf("%w: webhook workers should be positive, got %d", ConfigError, config.WebhookWorkers)
	}
	if _, err := config.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (config Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(config.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level: %w", ConfigError, err)
	}
	return level, nil
}
