// Package detection finds faces in camera frames so the emotion classifier
// only sees the face region.
package detection

import (
	"image"

	"gocv.io/x/gocv"
)

// Landmark indexes into Face.Landmarks, in YuNet output order.
const (
	RightEye = iota
	LeftEye
	NoseTip
	RightMouth
	LeftMouth
	NumLandmarks
)

// Point is a position normalized to the frame (0-1).
type Point struct {
	X, Y float64
}

// Face is one detected face. All coordinates are normalized to the frame.
type Face struct {
	X, Y, W, H float64 // Bounding box, top-left corner and size
	Landmarks  [NumLandmarks]Point
	Score      float64 // Detector confidence (0-1)
}

// Area returns the box area as a fraction of the frame.
func (f Face) Area() float64 {
	return f.W * f.H
}

// Rect converts the box to pixel coordinates of a cols x rows frame, grown
// by margin (fraction of the box size) on every side and clipped to the
// frame. The emotion model expects loosely framed faces.
func (f Face) Rect(cols, rows int, margin float64) image.Rectangle {
	mx := f.W * margin
	my := f.H * margin
	x0 := int((f.X - mx) * float64(cols))
	y0 := int((f.Y - my) * float64(rows))
	x1 := int((f.X + f.W + mx) * float64(cols))
	y1 := int((f.Y + f.H + my) * float64(rows))
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, cols, rows))
}

// Detector finds faces in BGR frames.
type Detector interface {
	Detect(frame gocv.Mat) ([]Face, error)
	Close() error
}

// Config holds detector configuration.
type Config struct {
	ModelPath      string  // Path to the YuNet ONNX model
	ScoreThreshold float64 // Minimum face score
	NMSThreshold   float64 // Overlap above which boxes are merged
	TopK           int     // Candidates kept before NMS
	MinSize        float64 // Faces narrower than this fraction of the frame are ignored
}

// DefaultConfig returns defaults for a person sitting at a laptop webcam.
func DefaultConfig() Config {
	return Config{
		ModelPath:      "models/face_detection_yunet.onnx",
		ScoreThreshold: 0.6,
		NMSThreshold:   0.3,
		TopK:           50,
		MinSize:        0.05,
	}
}

// prominentTie is the relative area difference under which two faces count
// as the same size and the detector score decides.
const prominentTie = 0.1

// Prominent returns the face to classify: the largest one, which is
// normally the person at the webcam. Faces of nearly equal size go to the
// higher score. It returns nil when faces is empty.
func Prominent(faces []Face) *Face {
	var best *Face
	for i := range faces {
		f := &faces[i]
		if best == nil {
			best = f
			continue
		}
		switch {
		case f.Area() > best.Area()*(1+prominentTie):
			best = f
		case f.Area() >= best.Area()*(1-prominentTie) && f.Score > best.Score:
			best = f
		}
	}
	return best
}
