package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"data_dir": "/srv/studio", "thumbnail_size": 96, "workers": 3}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/studio", cfg.DataDir)
	assert.Equal(t, 96, cfg.ThumbnailSize)
	assert.Equal(t, 3, cfg.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "config: read")

	writeFile(t, path, `{`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "config: parse")
}

func TestResolveDefaults(t *testing.T) {
	cfg := Config{DataDir: "/srv/studio", ModelsDir: "assets", OutputDir: "/tmp/out"}
	cfg.Resolve(Flags{})

	assert.Equal(t, filepath.Join("/srv/studio", "assets"), cfg.ModelsDir)
	assert.Equal(t, filepath.Join("/srv/studio", "artist-reference-models.db"), cfg.DatabasePath)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 128, cfg.ThumbnailSize)
	assert.Equal(t, 2, cfg.Supersample)
	assert.Equal(t, int64(50<<20), cfg.MaxModelBytes)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"data_dir": "/from/file", "workers": 2, "log_level": "warn", "supersample": 3}`)
	dotenv := filepath.Join(dir, ".env")
	writeFile(t, dotenv, "POSE_STUDIO_THUMBNAIL_SIZE=64\nPOSE_STUDIO_SUPERSAMPLE=4\n")

	t.Setenv("POSE_STUDIO_WORKERS", "5")
	t.Setenv("POSE_STUDIO_LOG_LEVEL", "error")
	// keep the dotenv values out of later tests
	t.Setenv("POSE_STUDIO_THUMBNAIL_SIZE", "")
	require.NoError(t, os.Unsetenv("POSE_STUDIO_THUMBNAIL_SIZE"))
	t.Setenv("POSE_STUDIO_SUPERSAMPLE", "")
	require.NoError(t, os.Unsetenv("POSE_STUDIO_SUPERSAMPLE"))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.LoadEnv(dotenv))

	assert.Equal(t, "/from/file", cfg.DataDir)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 64, cfg.ThumbnailSize)
	assert.Equal(t, 4, cfg.Supersample)

	cfg.Resolve(Flags{Workers: 7, DataDir: "/from/flag"})
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "/from/flag", cfg.DataDir)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadEnvMissingDotenv(t *testing.T) {
	var cfg Config
	assert.NoError(t, cfg.LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadEnvBadValue(t *testing.T) {
	t.Setenv("POSE_STUDIO_WORKERS", "many")
	var cfg Config
	assert.ErrorContains(t, cfg.LoadEnv(""), "config: parse env")
}
