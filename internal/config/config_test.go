package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"ANCESTRE_FAMILY_DIR", "ANCESTRE_DB_PATH", "DB_PATH",
		"ANCESTRE_LOG_LEVEL", "LOG_LEVEL",
		"ANCESTRE_HISTORY_CAPACITY", "ANCESTRE_QUEUE_SIZE",
	} {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "ancestre.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "userData/families/", cfg.FamilyDir)
	assert.Equal(t, 100, cfg.HistoryCapacity)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
family_dir: /srv/families
db_path: /srv/archive.db
history_capacity: 20
log_level: info
`)

	t.Run("yaml overrides defaults", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/srv/families", cfg.FamilyDir)
		assert.Equal(t, "/srv/archive.db", cfg.DBPath)
		assert.Equal(t, 20, cfg.HistoryCapacity)
		assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("env overrides yaml", func(t *testing.T) {
		t.Setenv("ANCESTRE_HISTORY_CAPACITY", "5")
		t.Setenv("DB_PATH", "/tmp/legacy.db")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.HistoryCapacity)
		assert.Equal(t, "/tmp/legacy.db", cfg.DBPath)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("prefixed env wins", func(t *testing.T) {
		t.Setenv("DB_PATH", "/tmp/legacy.db")
		t.Setenv("ANCESTRE_DB_PATH", "/tmp/new.db")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/new.db", cfg.DBPath)
	})
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "malformed yaml", yaml: "history_capacity: [oops"},
		{name: "zero capacity", yaml: "history_capacity: 0"},
		{name: "bad int env", env: map[string]string{"ANCESTRE_QUEUE_SIZE": "lots"}},
		{name: "negative queue env", env: map[string]string{"ANCESTRE_QUEUE_SIZE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
