package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/syncctl/internal/config"
	"github.com/cuemby/syncctl/internal/synclog"
)

func TestDefault_NoDebugSQLByDefault(t *testing.T) {
	os.Unsetenv("SYNCCTL_DEBUG_SQL")
	cfg, err := config.Default()
	require.NoError(t, err)
	require.False(t, cfg.DebugLogSQL)
	require.Equal(t, synclog.InfoLevel, cfg.LogLevel)
}

func TestDefault_DebugSQLFromEnv(t *testing.T) {
	t.Setenv("SYNCCTL_DEBUG_SQL", "")
	cfg, err := config.Default()
	require.NoError(t, err)
	require.True(t, cfg.DebugLogSQL)
}

func TestLoad_MissingFileFallsBackToDefault(t *testing.T) {
	os.Unsetenv("SYNCCTL_DEBUG_SQL")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, synclog.InfoLevel, cfg.LogLevel)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	os.Unsetenv("SYNCCTL_DEBUG_SQL")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\njsonLogs: true\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, synclog.DebugLevel, cfg.LogLevel)
	require.True(t, cfg.JSONLogs)
}

func TestLoad_DebugSQLAlwaysFromEnvNotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n"), 0o644))

	t.Setenv("SYNCCTL_DEBUG_SQL", "1")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.True(t, cfg.DebugLogSQL)
}
