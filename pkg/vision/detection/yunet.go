package detection

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-memey/internal/log"
	"gocv.io/x/gocv"
)

// yunetCols is the width of a YuNet result row: box (4), five landmark
// pairs (10) and the score.
const yunetCols = 15

// ErrEmptyFrame is returned for frames without pixels.
var ErrEmptyFrame = errors.New("detection: empty frame")

// YuNet detects faces with OpenCV's FaceDetectorYN.
type YuNet struct {
	cfg Config

	mu   sync.Mutex // FaceDetectorYN is not safe for concurrent use
	net  gocv.FaceDetectorYN
	out  gocv.Mat
	size image.Point
}

// NewYuNet loads the YuNet model.
func NewYuNet(cfg Config) (*YuNet, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("face model: %w", err)
	}

	// The input size is replaced with the real frame size on first use
	size := image.Pt(320, 320)
	net := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		size,
		float32(cfg.ScoreThreshold),
		float32(cfg.NMSThreshold),
		cfg.TopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	log.Info("face model loaded", "path", cfg.ModelPath)

	return &YuNet{
		cfg:  cfg,
		net:  net,
		out:  gocv.NewMat(),
		size: size,
	}, nil
}

// Detect returns the faces in a BGR frame that pass MinSize.
func (y *YuNet) Detect(frame gocv.Mat) ([]Face, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	if sz := image.Pt(frame.Cols(), frame.Rows()); sz != y.size {
		y.net.SetInputSize(sz)
		y.size = sz
	}
	y.net.Detect(frame, &y.out)

	return parseFaces(y.out, frame.Cols(), frame.Rows(), y.cfg.MinSize), nil
}

// Close releases the model.
func (y *YuNet) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.out.Close()
	y.net.Close()
	return nil
}

// parseFaces converts YuNet's pixel-space rows into normalized faces.
func parseFaces(out gocv.Mat, cols, rows int, minSize float64) []Face {
	if out.Empty() || out.Cols() < yunetCols {
		return nil
	}

	w, h := float64(cols), float64(rows)
	faces := make([]Face, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		f := Face{
			X:     float64(out.GetFloatAt(r, 0)) / w,
			Y:     float64(out.GetFloatAt(r, 1)) / h,
			W:     float64(out.GetFloatAt(r, 2)) / w,
			H:     float64(out.GetFloatAt(r, 3)) / h,
			Score: float64(out.GetFloatAt(r, 14)),
		}
		for i := 0; i < NumLandmarks; i++ {
			f.Landmarks[i] = Point{
				X: float64(out.GetFloatAt(r, 4+2*i)) / w,
				Y: float64(out.GetFloatAt(r, 5+2*i)) / h,
			}
		}
		if f.W < minSize {
			continue
		}
		faces = append(faces, f)
	}

	if len(faces) > 0 {
		log.Debug("faces detected", "count", len(faces))
	}
	return faces
}

var _ Detector = (*YuNet)(nil)
