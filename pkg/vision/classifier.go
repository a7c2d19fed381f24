// Package vision turns camera frames into emotion scores.
//
// A Classifier is the only thing the session loop knows about: FER+ runs a
// local ONNX model on the detected face, Gemini asks a hosted vision model,
// and Mock is for tests and demos without a model on disk.
package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"gocv.io/x/gocv"
)

var (
	// ErrNoFace is returned when the frame contains no usable face.
	ErrNoFace = errors.New("vision: no face in frame")

	// ErrNoAPIKey is returned when a hosted backend has no credentials.
	ErrNoAPIKey = errors.New("vision: GOOGLE_API_KEY not set")
)

// Classifier scores the facial emotion in a BGR frame.
type Classifier interface {
	// Classify returns a score per emotion for the most prominent face.
	Classify(ctx context.Context, frame gocv.Mat) (emotion.Scores, error)

	// Close releases model resources.
	Close() error
}

// Backend names accepted in configuration.
const (
	BackendFERPlus = "ferplus"
	BackendGemini  = "gemini"
	BackendMock    = "mock"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendFERPlus, BackendGemini, BackendMock}
}

// Config selects and tunes a classifier backend.
type Config struct {
	Backend       string
	Interval      time.Duration // minimum time between model runs
	ModelPath     string
	FaceModelPath string
	FaceThreshold float64
	GeminiModel   string
	GeminiAPIKey  string
}

// New builds the configured backend wrapped in a Throttled classifier.
func New(cfg Config) (Classifier, error) {
	var (
		inner Classifier
		err   error
	)

	switch cfg.Backend {
	case BackendFERPlus:
		fcfg := DefaultFERPlusConfig()
		fcfg.ModelPath = cfg.ModelPath
		fcfg.Face.ModelPath = cfg.FaceModelPath
		if cfg.FaceThreshold > 0 {
			fcfg.Face.ScoreThreshold = cfg.FaceThreshold
		}
		inner, err = NewFERPlus(fcfg)
	case BackendGemini:
		gcfg := DefaultGeminiConfig()
		if cfg.GeminiModel != "" {
			gcfg.Model = cfg.GeminiModel
		}
		if cfg.GeminiAPIKey != "" {
			gcfg.APIKey = cfg.GeminiAPIKey
		}
		inner, err = NewGemini(gcfg)
	case BackendMock:
		inner = NewMock()
	default:
		return nil, fmt.Errorf("unsupported classifier backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("classifier ready", "backend", cfg.Backend, "interval", cfg.Interval)
	return NewThrottled(inner, cfg.Interval), nil
}

// Compile-time checks
var (
	_ Classifier = (*FERPlus)(nil)
	_ Classifier = (*Gemini)(nil)
	_ Classifier = (*Throttled)(nil)
	_ Classifier = (*Mock)(nil)
)
