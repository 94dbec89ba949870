package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ".", cfg.Storage)
		assert.False(t, cfg.Remote())
	})

	t.Run("reads insdb.yaml", func(t *testing.T) {
		dir := t.TempDir()
		content := "storage: /data/planck\nserver:\n  address: https://insdb.example.com\n  username: observer\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "insdb.yaml"), []byte(content), 0o644))
		chdir(t, dir)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/data/planck", cfg.Storage)
		assert.Equal(t, "https://insdb.example.com", cfg.Server.Address)
		assert.Equal(t, "observer", cfg.Server.Username)
		assert.True(t, cfg.Remote())
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		dir := t.TempDir()
		content := "server:\n  address: https://insdb.example.com\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "insdb.yaml"), []byte(content), 0o644))
		chdir(t, dir)
		t.Setenv("INSDB_SERVER_ADDRESS", "https://staging.example.com")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://staging.example.com", cfg.Server.Address)
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "insdb.yaml"), []byte("storage: [unclosed"), 0o644))
		chdir(t, dir)

		_, err := Load()
		assert.Error(t, err)
	})
}
