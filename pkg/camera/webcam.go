package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/teslashibe/go-memey/internal/log"
	"gocv.io/x/gocv"
)

var (
	// ErrUnavailable is returned when the webcam cannot be opened.
	ErrUnavailable = errors.New("camera: unavailable")

	// ErrReadFailed is returned when a frame could not be grabbed.
	ErrReadFailed = errors.New("camera: failed to grab frame")
)

// Source produces video frames.
type Source interface {
	// Read grabs the next frame into dst.
	Read(dst *gocv.Mat) error

	// Close releases the device.
	Close() error
}

// Webcam reads frames from a local capture device.
type Webcam struct {
	cfg Config
	cap *gocv.VideoCapture
	raw gocv.Mat

	mu     sync.Mutex
	closed bool
}

// OpenWebcam opens the configured device and applies the capture settings.
func OpenWebcam(cfg Config) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrUnavailable, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d did not open", ErrUnavailable, cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	log.Info("camera opened",
		"device", cfg.Device,
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)),
		"mirror", cfg.Mirror,
	)

	return &Webcam{
		cfg: cfg,
		cap: vc,
		raw: gocv.NewMat(),
	}, nil
}

// Read grabs the next frame, mirrored if configured.
func (w *Webcam) Read(dst *gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrUnavailable
	}
	if ok := w.cap.Read(&w.raw); !ok || w.raw.Empty() {
		return ErrReadFailed
	}

	if w.cfg.Mirror {
		gocv.Flip(w.raw, dst, 1)
	} else {
		w.raw.CopyTo(dst)
	}
	return nil
}

// Config returns the capture settings.
func (w *Webcam) Config() Config {
	return w.cfg
}

// Close releases the device. It is safe to call Close multiple times.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.raw.Close()
	return w.cap.Close()
}
