// Package config loads go-memey settings from a YAML file, MEMEY_*
// environment variables and built-in defaults, in increasing order of
// precedence: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/camera"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"github.com/teslashibe/go-memey/pkg/present"
	"github.com/teslashibe/go-memey/pkg/session"
	"github.com/teslashibe/go-memey/pkg/trigger"
	"github.com/teslashibe/go-memey/pkg/vision"
)

// EnvPrefix prefixes every environment override, e.g. MEMEY_TRIGGER_DWELL.
const EnvPrefix = "MEMEY"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Trigger    TriggerConfig    `mapstructure:"trigger"`
	Sound      SoundConfig      `mapstructure:"sound"`
	Display    DisplayConfig    `mapstructure:"display"`
	Camera     camera.Config    `mapstructure:"camera"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Assets     AssetsConfig     `mapstructure:"assets"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Log        LogConfig        `mapstructure:"log"`
}

// TriggerConfig tunes the trigger machine.
type TriggerConfig struct {
	Threshold        float64       `mapstructure:"threshold"`
	Dwell            time.Duration `mapstructure:"dwell"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	TriggerOnNeutral bool          `mapstructure:"trigger_on_neutral"`
	ManualDefault    string        `mapstructure:"manual_default"`
}

// SoundConfig holds the initial sound flag.
type SoundConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DisplayConfig controls the windows.
type DisplayConfig struct {
	Duration time.Duration `mapstructure:"duration"`
	Preview  bool          `mapstructure:"preview"`
}

// ClassifierConfig selects the emotion backend.
type ClassifierConfig struct {
	Backend       string        `mapstructure:"backend"`
	Interval      time.Duration `mapstructure:"interval"`
	ModelPath     string        `mapstructure:"model_path"`
	FaceModelPath string        `mapstructure:"face_model_path"`
	FaceThreshold float64       `mapstructure:"face_threshold"`
	GeminiModel   string        `mapstructure:"gemini_model"`
}

// AssetsConfig locates memes and sounds.
type AssetsConfig struct {
	ImagesDir string `mapstructure:"images_dir"`
	SoundsDir string `mapstructure:"sounds_dir"`
}

// DashboardConfig enables the web dashboard when Addr is set.
type DashboardConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	tc := trigger.DefaultConfig()
	return &Config{
		Trigger: TriggerConfig{
			Threshold:        tc.Threshold,
			Dwell:            tc.Dwell,
			Cooldown:         tc.Cooldown,
			TriggerOnNeutral: tc.TriggerOnNeutral,
			ManualDefault:    string(tc.ManualDefault),
		},
		Sound:   SoundConfig{Enabled: true},
		Display: DisplayConfig{Duration: 4 * time.Second, Preview: true},
		Camera:  camera.DefaultConfig(),
		Classifier: ClassifierConfig{
			Backend:       vision.BackendFERPlus,
			Interval:      300 * time.Millisecond,
			ModelPath:     "models/emotion-ferplus-8.onnx",
			FaceModelPath: "models/face_detection_yunet.onnx",
			FaceThreshold: 0.6,
			GeminiModel:   "gemini-2.0-flash",
		},
		Assets: AssetsConfig{
			ImagesDir: "assets/memes",
			SoundsDir: "assets/sounds",
		},
		Log: LogConfig{Level: "info"},
	}
}

// setDefaults registers every key so environment overrides apply even when
// the file does not mention them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("trigger.threshold", d.Trigger.Threshold)
	v.SetDefault("trigger.dwell", d.Trigger.Dwell)
	v.SetDefault("trigger.cooldown", d.Trigger.Cooldown)
	v.SetDefault("trigger.trigger_on_neutral", d.Trigger.TriggerOnNeutral)
	v.SetDefault("trigger.manual_default", d.Trigger.ManualDefault)

	v.SetDefault("sound.enabled", d.Sound.Enabled)

	v.SetDefault("display.duration", d.Display.Duration)
	v.SetDefault("display.preview", d.Display.Preview)

	v.SetDefault("camera.index", d.Camera.Device)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("camera.framerate", d.Camera.Framerate)
	v.SetDefault("camera.mirror", d.Camera.Mirror)

	v.SetDefault("classifier.backend", d.Classifier.Backend)
	v.SetDefault("classifier.interval", d.Classifier.Interval)
	v.SetDefault("classifier.model_path", d.Classifier.ModelPath)
	v.SetDefault("classifier.face_model_path", d.Classifier.FaceModelPath)
	v.SetDefault("classifier.face_threshold", d.Classifier.FaceThreshold)
	v.SetDefault("classifier.gemini_model", d.Classifier.GeminiModel)

	v.SetDefault("assets.images_dir", d.Assets.ImagesDir)
	v.SetDefault("assets.sounds_dir", d.Assets.SoundsDir)

	v.SetDefault("dashboard.addr", d.Dashboard.Addr)

	v.SetDefault("log.level", d.Log.Level)
}

// Load reads the configuration. An empty path, or a path that does not
// exist, means defaults plus environment. Unknown keys and invalid values
// are errors.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	// Example: MEMEY_TRIGGER_COOLDOWN=10s
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Debug("config file loaded", "path", path)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		} else {
			log.Debug("no config file, using defaults", "path", path)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return &cfg, nil
}

// Validate returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errs []string

	for _, e := range c.TriggerSettings().Validate() {
		errs = append(errs, "trigger: "+e)
	}
	for _, e := range c.Camera.Validate() {
		errs = append(errs, "camera: "+e)
	}

	if c.Display.Duration <= 0 {
		errs = append(errs, "display: duration must be positive")
	}

	if !slices.Contains(vision.Backends(), c.Classifier.Backend) {
		errs = append(errs, fmt.Sprintf("classifier: backend %q must be one of %s",
			c.Classifier.Backend, strings.Join(vision.Backends(), ", ")))
	}
	if c.Classifier.Interval < 0 {
		errs = append(errs, "classifier: interval must not be negative")
	}
	if c.Classifier.FaceThreshold <= 0 || c.Classifier.FaceThreshold > 1 {
		errs = append(errs, "classifier: face_threshold must be in (0, 1]")
	}
	if c.Classifier.Backend == vision.BackendFERPlus {
		if c.Classifier.ModelPath == "" || c.Classifier.FaceModelPath == "" {
			errs = append(errs, "classifier: ferplus needs model_path and face_model_path")
		}
	}

	if c.Assets.ImagesDir == "" {
		errs = append(errs, "assets: images_dir must be set")
	}
	if c.Assets.SoundsDir == "" {
		errs = append(errs, "assets: sounds_dir must be set")
	}

	if !log.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log: invalid level %q, must be one of: debug, info, warn, error", c.Log.Level))
	}

	return errs
}

// TriggerSettings converts to the trigger machine's config.
func (c *Config) TriggerSettings() trigger.Config {
	manual, err := emotion.Parse(c.Trigger.ManualDefault)
	if err != nil {
		// Left as-is so Validate reports it
		manual = emotion.Emotion(c.Trigger.ManualDefault)
	}
	return trigger.Config{
		Threshold:        c.Trigger.Threshold,
		Dwell:            c.Trigger.Dwell,
		Cooldown:         c.Trigger.Cooldown,
		TriggerOnNeutral: c.Trigger.TriggerOnNeutral,
		ManualDefault:    manual,
		SoundEnabled:     c.Sound.Enabled,
	}
}

// VisionSettings converts to the classifier factory's config.
func (c *Config) VisionSettings() vision.Config {
	return vision.Config{
		Backend:       c.Classifier.Backend,
		Interval:      c.Classifier.Interval,
		ModelPath:     c.Classifier.ModelPath,
		FaceModelPath: c.Classifier.FaceModelPath,
		FaceThreshold: c.Classifier.FaceThreshold,
		GeminiModel:   c.Classifier.GeminiModel,
	}
}

// PresentSettings converts to the window config.
func (c *Config) PresentSettings() present.Config {
	pc := present.DefaultConfig()
	pc.Preview = c.Display.Preview
	return pc
}

// SessionSettings converts to the loop config.
func (c *Config) SessionSettings() session.Config {
	sc := session.DefaultConfig()
	sc.DisplayDuration = c.Display.Duration
	return sc
}
