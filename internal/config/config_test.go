package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"github.com/teslashibe/go-memey/pkg/vision"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())

	assert.Equal(t, 0.4, cfg.Trigger.Threshold)
	assert.Equal(t, 2*time.Second, cfg.Trigger.Dwell)
	assert.Equal(t, 5*time.Second, cfg.Trigger.Cooldown)
	assert.False(t, cfg.Trigger.TriggerOnNeutral)
	assert.Equal(t, 4*time.Second, cfg.Display.Duration)
	assert.Equal(t, 300*time.Millisecond, cfg.Classifier.Interval)
	assert.Equal(t, vision.BackendFERPlus, cfg.Classifier.Backend)
	assert.Empty(t, cfg.Dashboard.Addr)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
trigger:
  threshold: 0.6
  dwell: 1500ms
  cooldown: 10s
  trigger_on_neutral: true
  manual_default: Surprise
sound:
  enabled: false
display:
  duration: 3s
camera:
  index: 2
  mirror: false
classifier:
  backend: mock
dashboard:
  addr: ":8090"
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.Trigger.Threshold)
	assert.Equal(t, 1500*time.Millisecond, cfg.Trigger.Dwell)
	assert.Equal(t, 10*time.Second, cfg.Trigger.Cooldown)
	assert.True(t, cfg.Trigger.TriggerOnNeutral)
	assert.False(t, cfg.Sound.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Display.Duration)
	assert.True(t, cfg.Display.Preview, "unset keys keep defaults")
	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.False(t, cfg.Camera.Mirror)
	assert.Equal(t, vision.BackendMock, cfg.Classifier.Backend)
	assert.Equal(t, ":8090", cfg.Dashboard.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	tc := cfg.TriggerSettings()
	assert.Equal(t, emotion.Surprised, tc.ManualDefault)
	assert.False(t, tc.SoundEnabled)
	assert.Equal(t, 10*time.Second, tc.Cooldown)

	assert.Equal(t, 3*time.Second, cfg.SessionSettings().DisplayDuration)
	assert.True(t, cfg.PresentSettings().Preview)
	assert.Equal(t, vision.BackendMock, cfg.VisionSettings().Backend)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "trigger:\n  cooldown: 10s\n")

	t.Setenv("MEMEY_TRIGGER_COOLDOWN", "7s")
	t.Setenv("MEMEY_TRIGGER_THRESHOLD", "0.75")
	t.Setenv("MEMEY_SOUND_ENABLED", "false")
	t.Setenv("MEMEY_CLASSIFIER_BACKEND", "gemini")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Trigger.Cooldown)
	assert.Equal(t, 0.75, cfg.Trigger.Threshold)
	assert.False(t, cfg.Sound.Enabled)
	assert.Equal(t, vision.BackendGemini, cfg.Classifier.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "trigger:\n  sensitivity: 3\n", "sensitivity"},
		{"unknown section", "robot:\n  ip: 1.2.3.4\n", "robot"},
		{"threshold out of range", "trigger:\n  threshold: 1.5\n", "threshold"},
		{"negative cooldown", "trigger:\n  cooldown: -1s\n", "cooldown"},
		{"bad manual default", "trigger:\n  manual_default: bored\n", "manual_default"},
		{"bad backend", "classifier:\n  backend: tensorflow\n", "backend"},
		{"bad log level", "log:\n  level: loud\n", "level"},
		{"bad duration", "trigger:\n  dwell: soon\n", "dwell"},
		{"zero display", "display:\n  duration: 0s\n", "duration"},
		{"bad camera", "camera:\n  width: 10\n", "camera"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "trigger: [unterminated\n"))
	require.Error(t, err)
}
