package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	e, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", e.Addr)
	assert.Equal(t, 2, e.Workers)
	assert.Equal(t, "long", e.Queue)
	assert.Equal(t, 1500*time.Second, e.JobTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BARCUT_ADDR", "127.0.0.1:9000")
	t.Setenv("BARCUT_WORKERS", "4")
	t.Setenv("BARCUT_JOB_TIMEOUT", "90s")

	e, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", e.Addr)
	assert.Equal(t, 4, e.Workers)
	assert.Equal(t, 90*time.Second, e.JobTimeout)
}

func TestFromEnvRejectsZeroWorkers(t *testing.T) {
	t.Setenv("BARCUT_WORKERS", "0")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestLoadDotEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BARCUT_DB_PATH=base.db\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("BARCUT_DB_PATH=test.db\n"), 0644))
	t.Setenv("APP_ENV", "test")
	t.Setenv("BARCUT_DB_PATH", "")
	require.NoError(t, os.Unsetenv("BARCUT_DB_PATH"))

	loaded := LoadDotEnv()
	assert.Equal(t, []string{".env", ".env.test"}, loaded)
	assert.Equal(t, "test.db", os.Getenv("BARCUT_DB_PATH"))
}
