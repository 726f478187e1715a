package main

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func _envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := LoadConfig("")

		require.NoError(t, err)
		assert.Equal(t, DefaultListenAddress, config.ListenAddress)
		assert.Equal(t, DefaultVersion, config.SheetVersion)
		assert.Equal(t, DefaultWebhookWorkersCount, config.WebhookWorkers)
		assert.Equal(t, DefaultWebhookTimeout, config.WebhookTimeout)
		assert.Equal(t, DefaultLogLevel, config.LogLevel)
	})

	t.Run("missing_file", func(t *testing.T) {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))

		assert.NoError(t, err)
		assert.Equal(t, DefaultConfig().ListenAddress, config.ListenAddress)
	})

	t.Run("yaml_file", func(t *testing.T) {
		path := _writeFile(t, "databaseFilepath: /tmp/sheets.db\n"+
			"listenAddress: 127.0.0.1:9000\n"+
			"webhookWorkers: 2\n"+
			"webhookTimeout: 750ms\n"+
			"logLevel: debug\n")

		t.Setenv("DATABASE_FILEPATH", "/tmp/env.db")

		config, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "/tmp/env.db", config.DatabaseFilepath)
		assert.Equal(t, "127.0.0.1:9000", config.ListenAddress)
		assert.Equal(t, DefaultVersion, config.SheetVersion)
		assert.Equal(t, 2, config.WebhookWorkers)
		assert.Equal(t, 750*time.Millisecond, config.WebhookTimeout)
		assert.Equal(t, "debug", config.LogLevel)
	})

	t.Run("malformed_yaml", func(t *testing.T) {
		_, err := LoadConfig(_writeFile(t, "webhookWorkers: [1"))

		assert.ErrorIs(t, err, ConfigError)
	})

	t.Run("unreadable_path", func(t *testing.T) {
		_, err := LoadConfig(t.TempDir())

		assert.ErrorIs(t, err, ConfigError)
	})
}

func TestConfig_applyEnv(t *testing.T) {
	t.Run("all_variables", func(t *testing.T) {
		config := DefaultConfig()

		err := config.applyEnv(_envLookup(map[string]string{
			"DATABASE_FILEPATH": "data.db",
			"LISTEN_ADDRESS":    ":9090",
			"SHEET_VERSION":     "v2",
			"WEBHOOK_WORKERS":   "8",
			"WEBHOOK_TIMEOUT":   "2s",
			"LOG_LEVEL":         "warn",
		}))

		require.NoError(t, err)
		assert.Equal(t, Config{
			DatabaseFilepath: "data.db",
			ListenAddress:    ":9090",
			SheetVersion:     "v2",
			WebhookWorkers:   8,
			WebhookTimeout:   2 * time.Second,
			LogLevel:         "warn",
		}, config)
	})

	t.Run("invalid_numbers", func(t *testing.T) {
		config := DefaultConfig()
		assert.ErrorIs(t, config.applyEnv(_envLookup(map[string]string{"WEBHOOK_WORKERS": "many"})), ConfigError)
		assert.ErrorIs(t, config.applyEnv(_envLookup(map[string]string{"WEBHOOK_TIMEOUT": "5"})), ConfigError)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.DatabaseFilepath = filepath.Join(os.TempDir(), "sheets.db")
	assert.NoError(t, valid.Validate())

	noDatabase := valid
	noDatabase.DatabaseFilepath = ""
	assert.ErrorIs(t, noDatabase.Validate(), ConfigError)

	noWorkers := valid
	noWorkers.WebhookWorkers = 0
	assert.ErrorIs(t, noWorkers.Validate(), ConfigError)

	badLevel := valid
	badLevel.LogLevel = "loud"
	assert.ErrorIs(t, badLevel.Validate(), ConfigError)
}

func TestConfig_SlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"INFO":   slog.LevelInfo,
		" warn ": slog.LevelWarn,
		"error":  slog.LevelError,
	}

	for name, expected := range cases {
		level, err := Config{LogLevel: name}.SlogLevel()

		assert.NoError(t, err, name)
		assert.Equal(t, expected, level, name)
	}
}
