package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-memey/internal/config"
)

func setupAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	images := filepath.Join(dir, "memes")
	sounds := filepath.Join(dir, "sounds")

	require.NoError(t, os.MkdirAll(filepath.Join(images, "happy"), 0o755))
	require.NoError(t, os.MkdirAll(sounds, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(images, "happy", "a.png"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(images, "happy", "b.jpg"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sounds, "happy.mp3"), nil, 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	body := "assets:\n  images_dir: " + images + "\n  sounds_dir: " + sounds + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAssetsCommand(t *testing.T) {
	cfgPath := setupAssets(t)

	out, err := execute(t, "assets", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "happy")
	assert.Contains(t, out, "2 images")
	assert.Contains(t, out, "happy.mp3")
	assert.Contains(t, out, "2 images, 1 sounds")
}

func TestAssetsCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "assets", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAssetsCommand_InvalidOverride(t *testing.T) {
	cfgPath := setupAssets(t)

	_, err := execute(t, "assets", "--config", cfgPath, "--classifier", "tensorflow")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = execute(t, "assets", "--config", cfgPath, "--log-level", "loud")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRootCommand_UnknownResolution(t *testing.T) {
	cfgPath := setupAssets(t)

	_, err := execute(t, "--config", cfgPath, "--resolution", "8k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resolution")
}
