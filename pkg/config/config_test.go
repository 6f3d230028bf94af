package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingFile(t *testing.T) string {
	dir, err := ioutil.TempDir("", "speedmon-config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	return filepath.Join(dir, "missing.toml")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Speed.MinInterval)
	assert.Equal(t, 10, cfg.Speed.Window)
	assert.Equal(t, 32768, cfg.Transfer.BufferSize)
	assert.Equal(t, 300*time.Millisecond, cfg.ReportInterval())
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
	assert.False(t, cfg.Log.JSON)
}

func TestLoadFromFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "speedmon-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "speedmon.toml")
	err = ioutil.WriteFile(path, []byte(`
[speed]
min_interval = 20
window = 4

[log]
level = "debug"
`), 0600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Speed.MinInterval)
	assert.Equal(t, 4, cfg.Speed.Window)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("SPEEDMON_SPEED_MIN_INTERVAL", "0")
	defer os.Unsetenv("SPEEDMON_SPEED_MIN_INTERVAL")

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Speed.MinInterval)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	cfg.Speed.Window = 0
	assert.Error(t, cfg.Validate())

	cfg.Speed.Window = 1
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg.Log.Level = "warning"
	cfg.Transfer.BufferSize = 0
	assert.Error(t, cfg.Validate())

	cfg.Transfer.BufferSize = 1
	cfg.Transfer.ReportInterval = 0
	assert.Error(t, cfg.Validate())

	cfg.Transfer.ReportInterval = 1
	cfg.Speed.MinInterval = -1
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel())
}
