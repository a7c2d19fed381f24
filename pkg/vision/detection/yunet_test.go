package detection

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gocv.io/x/gocv"
)

// yunetRows builds a fake FaceDetectorYN result for a 640x480 frame.
func yunetRows(t *testing.T, rows ...[yunetCols]float32) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(len(rows), yunetCols, gocv.MatTypeCV32F)
	for r, row := range rows {
		for c, v := range row {
			m.SetFloatAt(r, c, v)
		}
	}
	return m
}

func TestParseFaces(t *testing.T) {
	out := yunetRows(t,
		[yunetCols]float32{160, 120, 320, 240, 240, 200, 400, 200, 320, 260, 260, 320, 380, 320, 0.92},
		[yunetCols]float32{600, 10, 16, 16, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.80},
	)
	defer out.Close()

	faces := parseFaces(out, 640, 480, 0.05)
	if len(faces) != 1 {
		t.Fatalf("parseFaces: got %d faces, want 1 (tiny face filtered)", len(faces))
	}

	f := faces[0]
	if f.X != 0.25 || f.Y != 0.25 || f.W != 0.5 || f.H != 0.5 {
		t.Errorf("box: got %+v", f)
	}
	if d := f.Score - 0.92; d > 1e-6 || d < -1e-6 {
		t.Errorf("score: got %v, want 0.92", f.Score)
	}
	if f.Landmarks[RightEye] != (Point{X: 0.375, Y: 200.0 / 480}) {
		t.Errorf("right eye: got %+v", f.Landmarks[RightEye])
	}
	if f.Landmarks[NoseTip] != (Point{X: 0.5, Y: 260.0 / 480}) {
		t.Errorf("nose: got %+v", f.Landmarks[NoseTip])
	}
	if f.Landmarks[LeftMouth] != (Point{X: 380.0 / 640, Y: 320.0 / 480}) {
		t.Errorf("left mouth: got %+v", f.Landmarks[LeftMouth])
	}
}

func TestParseFaces_NoRows(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	if faces := parseFaces(empty, 640, 480, 0); faces != nil {
		t.Errorf("parseFaces(empty) = %v, want nil", faces)
	}
}

func TestNewYuNet_MissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "/nonexistent/face_detection_yunet.onnx"

	_, err := NewYuNet(cfg)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("NewYuNet: got %v, want ErrNotExist", err)
	}
}

func TestYuNet_Detect(t *testing.T) {
	d := openYuNet(t)
	defer d.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := d.Detect(empty); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Detect(empty): got %v, want ErrEmptyFrame", err)
	}

	// A flat colour has no face in it, at any size
	for _, size := range [][2]int{{320, 240}, {640, 480}, {320, 240}} {
		img := solidMat(size[0], size[1], 255, 0, 0)
		faces, err := d.Detect(img)
		img.Close()
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if len(faces) > 0 {
			t.Errorf("Detect(solid %dx%d): got %d faces", size[0], size[1], len(faces))
		}
	}
}

func TestYuNet_Concurrent(t *testing.T) {
	d := openYuNet(t)
	defer d.Close()

	img := solidMat(320, 240, 100, 100, 100)
	defer img.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Detect(img); err != nil {
				t.Errorf("Detect: %v", err)
			}
		}()
	}
	wg.Wait()
}

func openYuNet(t *testing.T) *YuNet {
	t.Helper()
	path := findModelPath()
	if path == "" {
		t.Skip("YuNet model not found, skipping test")
	}

	cfg := DefaultConfig()
	cfg.ModelPath = path
	d, err := NewYuNet(cfg)
	if err != nil {
		t.Fatalf("NewYuNet: %v", err)
	}
	return d
}

// findModelPath walks up from the test directory looking for models/.
func findModelPath() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for ; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		p := filepath.Join(dir, "models", "face_detection_yunet.onnx")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// solidMat builds a BGR frame filled with one colour.
func solidMat(width, height int, b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), height, width, gocv.MatTypeCV8UC3)
}
