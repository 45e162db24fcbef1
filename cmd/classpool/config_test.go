package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "strict: true\nformat: yaml\nverbosity: 2\n")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{Strict: true, Format: "yaml", Verbosity: 2}, cfg)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	path := writeConfig(t, "strict: true\n")
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "line", cfg.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = loadConfig(writeConfig(t, "format: json\n"))
	assert.ErrorContains(t, err, "unknown format")

	_, err = loadConfig(writeConfig(t, "strict: [\n"))
	assert.ErrorContains(t, err, "parse config")
}
