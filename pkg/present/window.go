package present

import (
	"time"

	"github.com/teslashibe/go-memey/internal/log"
	"gocv.io/x/gocv"
)

// Config tunes the windows.
type Config struct {
	Preview       bool // show the camera feed; when false only the status panel is drawn
	PreviewTitle  string
	MemeMaxWidth  int
	MemeMaxHeight int
}

// DefaultConfig returns the standard window settings.
func DefaultConfig() Config {
	return Config{
		Preview:       true,
		PreviewTitle:  "Memey - press ESC to quit",
		MemeMaxWidth:  800,
		MemeMaxHeight: 600,
	}
}

// Window is the gocv implementation of Sink. All methods must be called
// from the goroutine that created it; HighGUI is not thread safe.
type Window struct {
	cfg     Config
	preview *gocv.Window
	meme    *gocv.Window
	canvas  gocv.Mat
	panel   gocv.Mat
}

// NewWindow opens the preview window.
func NewWindow(cfg Config) *Window {
	if cfg.PreviewTitle == "" {
		cfg.PreviewTitle = DefaultConfig().PreviewTitle
	}
	return &Window{
		cfg:     cfg,
		preview: gocv.NewWindow(cfg.PreviewTitle),
		canvas:  gocv.NewMat(),
		panel:   gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 160, 640, gocv.MatTypeCV8UC3),
	}
}

// ShowPreview draws ov on a copy of frame and shows it.
func (w *Window) ShowPreview(frame gocv.Mat, ov Overlay) {
	if w.cfg.Preview && !frame.Empty() {
		frame.CopyTo(&w.canvas)
	} else {
		w.panel.CopyTo(&w.canvas)
	}
	DrawOverlay(&w.canvas, ov)
	w.preview.IMShow(w.canvas)
}

// ShowMeme opens the popup for m, replacing any open one.
func (w *Window) ShowMeme(m Meme) error {
	img, err := LoadImage(m.ImagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	canvas := ComposeMeme(img, m, w.cfg.MemeMaxWidth, w.cfg.MemeMaxHeight)
	defer canvas.Close()

	w.CloseMeme()
	w.meme = gocv.NewWindow(m.Title())
	w.meme.IMShow(canvas)

	log.Debug("meme shown", "emotion", m.Emotion, "image", m.ImagePath)
	return nil
}

// CloseMeme closes the popup if one is open.
func (w *Window) CloseMeme() {
	if w.meme == nil {
		return
	}
	w.meme.Close()
	w.meme = nil
}

// PollKey pumps the GUI event loop and returns the pressed key, or -1.
func (w *Window) PollKey(delay time.Duration) int {
	ms := int(delay / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	key := w.preview.WaitKey(ms)
	if key < 0 {
		return -1
	}
	return key & 0xFF
}

// Close closes both windows.
func (w *Window) Close() error {
	w.CloseMeme()
	w.canvas.Close()
	w.panel.Close()
	return w.preview.Close()
}

var _ Sink = (*Window)(nil)
