package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 120, cfg.MaxPollAttempts)
	assert.Empty(t, cfg.DBPath)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
db_path: /var/lib/ingestflow/tasks.db
listen_addr: ":9090"
workers: 4
poll_interval: 250ms
debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/ingestflow/tasks.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.Debug)
	// untouched field keeps its default
	assert.Equal(t, 120, cfg.MaxPollAttempts)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "workers: 0\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
