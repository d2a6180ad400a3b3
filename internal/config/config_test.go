package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	assert.Equal(t, "phone", cfg.DeviceName)
	assert.Equal(t, "waterlog.db", cfg.DatabasePath)
	assert.Equal(t, "127.0.0.1:7475", cfg.ListenAddr)
	assert.Equal(t, 120*time.Second, cfg.MinLogInterval)
	assert.Equal(t, 3*time.Second, cfg.ProbeInterval)
	assert.False(t, cfg.Premium)
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "waterlog.db", cfg.DatabasePath)
}

func TestLoadConfig_MissingFileIsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
