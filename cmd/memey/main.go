// memey watches the webcam and answers a sustained facial expression with a
// matching meme and sound.
//
// Usage:
//
//	memey --config config.yaml
//	memey --classifier gemini --dashboard :8090
//	memey assets
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/teslashibe/go-memey/internal/config"
	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/assets"
	"github.com/teslashibe/go-memey/pkg/audio"
	"github.com/teslashibe/go-memey/pkg/camera"
	"github.com/teslashibe/go-memey/pkg/input"
	"github.com/teslashibe/go-memey/pkg/present"
	"github.com/teslashibe/go-memey/pkg/session"
	"github.com/teslashibe/go-memey/pkg/trigger"
	"github.com/teslashibe/go-memey/pkg/vision"
	"github.com/teslashibe/go-memey/pkg/web"
)

// Version information (set at build time)
var version = "dev"

const defaultConfigPath = "config.yaml"

// options are the command line overrides.
type options struct {
	configPath string
	logLevel   string
	cameraIdx  int
	resolution string
	noSound    bool
	noPreview  bool
	dashboard  string
	classifier string
}

func main() {
	// Load .env if present; GOOGLE_API_KEY usually lives there
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "memey",
		Short: "Show a meme that matches your facial expression",
		Long: `memey reads the webcam, classifies the expression of the most prominent
face and, once an emotion has been held long enough, shows a meme and plays
a sound for it.

Keys: q/Esc quit, r reset, m manual meme, s toggle sound.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to YAML config file")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&opts.classifier, "classifier", "", fmt.Sprintf("Emotion backend %v", vision.Backends()))

	rf := root.Flags()
	rf.IntVar(&opts.cameraIdx, "camera", 0, "Webcam device index")
	rf.StringVar(&opts.resolution, "resolution", "", fmt.Sprintf("Capture preset %v", camera.PresetNames()))
	rf.BoolVar(&opts.noSound, "no-sound", false, "Start with sound disabled")
	rf.BoolVar(&opts.noPreview, "no-preview", false, "Hide the camera image, show only the overlay panel")
	rf.StringVar(&opts.dashboard, "dashboard", "", "Serve the web dashboard on this address (e.g. :8090)")

	root.AddCommand(newAssetsCmd(opts))
	return root
}

// loadConfig reads the file and environment, then applies the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	flags := cmd.Flags()

	if flags.Changed("config") {
		if _, err := os.Stat(opts.configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("classifier") {
		cfg.Classifier.Backend = opts.classifier
	}
	if flags.Changed("resolution") {
		preset := camera.GetPreset(opts.resolution)
		if preset == nil {
			return nil, fmt.Errorf("unknown resolution %q (available: %v)", opts.resolution, camera.PresetNames())
		}
		cfg.Camera = preset.WithDevice(cfg.Camera)
	}
	if flags.Changed("camera") {
		cfg.Camera.Device = opts.cameraIdx
	}
	if flags.Changed("no-sound") {
		cfg.Sound.Enabled = !opts.noSound
	}
	if flags.Changed("no-preview") {
		cfg.Display.Preview = !opts.noPreview
	}
	if flags.Changed("dashboard") {
		cfg.Dashboard.Addr = opts.dashboard
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, errs)
	}

	log.Init(cfg.Log.Level)
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lib, err := assets.Load(cfg.Assets.ImagesDir, cfg.Assets.SoundsDir)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	if lib.ImageCount() == 0 {
		log.Warn("no meme images found", "dir", cfg.Assets.ImagesDir)
	}

	cam, err := camera.OpenWebcam(cfg.Camera)
	if err != nil {
		return fmt.Errorf("open webcam: %w", err)
	}

	classifier, err := vision.New(cfg.VisionSettings())
	if err != nil {
		cam.Close()
		return fmt.Errorf("emotion classifier: %w", err)
	}

	deps := session.Deps{
		Source:     cam,
		Classifier: classifier,
		Machine:    trigger.New(cfg.TriggerSettings()),
		Library:    lib,
		Selector:   assets.NewSelector(lib, nil),
		Sink:       present.NewWindow(cfg.PresentSettings()),
		Controls:   input.NewController(8),
	}

	player, err := audio.NewPlayer()
	if err != nil {
		log.Warn("audio unavailable, continuing without sound", "error", err)
	} else {
		deps.Sound = player
	}

	if cfg.Dashboard.Addr != "" {
		srv := web.NewServer(cfg.Dashboard.Addr, deps.Controls, lib)
		srv.StartAsync(ctx)
		defer func() {
			if err := srv.Shutdown(); err != nil {
				log.Warn("dashboard shutdown", "error", err)
			}
		}()
		deps.Publisher = srv
	}

	sess, err := session.New(cfg.SessionSettings(), deps)
	if err != nil {
		closeDeps(deps)
		return err
	}

	log.Info("memey started",
		"session", sess.ID(),
		"classifier", cfg.Classifier.Backend,
		"camera", cfg.Camera.Device,
		"emotions", len(lib.Available()),
		"sound", cfg.Sound.Enabled,
	)

	if err := sess.Run(ctx); err != nil {
		return fmt.Errorf("session %s: %w", sess.ID(), err)
	}
	return nil
}

// closeDeps releases what session.New would otherwise have owned.
func closeDeps(d session.Deps) {
	if d.Sound != nil {
		d.Sound.Close()
	}
	d.Sink.Close()
	d.Classifier.Close()
	d.Source.Close()
}
