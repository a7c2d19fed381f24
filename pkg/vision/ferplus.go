package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"github.com/teslashibe/go-memey/pkg/vision/detection"
	"gocv.io/x/gocv"
)

// ferPlusInputSize is the side of the square grayscale input of FER+.
const ferPlusInputSize = 64

// ferPlusLabels is the output order of the FER+ model. Contempt has no
// category of its own here and folds into disgusted.
var ferPlusLabels = [...]emotion.Emotion{
	emotion.Neutral,   // neutral
	emotion.Happy,     // happiness
	emotion.Surprised, // surprise
	emotion.Sad,       // sadness
	emotion.Angry,     // anger
	emotion.Disgusted, // disgust
	emotion.Fearful,   // fear
	emotion.Disgusted, // contempt
}

// FERPlusConfig configures the local FER+ classifier.
type FERPlusConfig struct {
	ModelPath  string           // Path to emotion-ferplus ONNX model
	Face       detection.Config // Face detector used to crop the input
	FaceMargin float64          // Extra border around the face box (fraction of box)
}

// DefaultFERPlusConfig returns defaults matching the models/ layout.
func DefaultFERPlusConfig() FERPlusConfig {
	return FERPlusConfig{
		ModelPath:  "models/emotion-ferplus-8.onnx",
		Face:       detection.DefaultConfig(),
		FaceMargin: 0.15,
	}
}

// FERPlus classifies the best face in a frame with the FER+ ONNX model.
type FERPlus struct {
	net    gocv.Net
	faces  detection.Detector
	margin float64

	mu      sync.Mutex // Protects inference and scratch mats
	gray    gocv.Mat
	resized gocv.Mat
}

// NewFERPlus loads the emotion model and the YuNet face detector.
func NewFERPlus(cfg FERPlusConfig) (*FERPlus, error) {
	faces, err := detection.NewYuNet(cfg.Face)
	if err != nil {
		return nil, fmt.Errorf("face detector: %w", err)
	}

	f, err := NewFERPlusWithDetector(cfg, faces)
	if err != nil {
		faces.Close()
		return nil, err
	}
	return f, nil
}

// NewFERPlusWithDetector loads the emotion model and uses the given face
// detector.
func NewFERPlusWithDetector(cfg FERPlusConfig, faces detection.Detector) (*FERPlus, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load emotion model: %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	log.Info("emotion model loaded", "path", cfg.ModelPath)

	return &FERPlus{
		net:     net,
		faces:   faces,
		margin:  cfg.FaceMargin,
		gray:    gocv.NewMat(),
		resized: gocv.NewMat(),
	}, nil
}

// Classify crops the most prominent face and scores it.
func (f *FERPlus) Classify(ctx context.Context, frame gocv.Mat) (emotion.Scores, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame.Empty() {
		return nil, fmt.Errorf("classify: empty frame")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	faces, err := f.faces.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	best := detection.Prominent(faces)
	if best == nil {
		return nil, ErrNoFace
	}

	rect := best.Rect(frame.Cols(), frame.Rows(), f.margin)
	if rect.Dx() < 8 || rect.Dy() < 8 {
		return nil, fmt.Errorf("%w: face too small (%dx%d)", ErrNoFace, rect.Dx(), rect.Dy())
	}

	face := frame.Region(rect)
	defer face.Close()

	gocv.CvtColor(face, &f.gray, gocv.ColorBGRToGray)
	size := image.Pt(ferPlusInputSize, ferPlusInputSize)
	gocv.Resize(f.gray, &f.resized, size, 0, 0, gocv.InterpolationLinear)

	// FER+ takes raw 0-255 pixel values, no mean subtraction
	blob := gocv.BlobFromImage(f.resized, 1.0, size, gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	f.net.SetInput(blob, "")
	out := f.net.Forward("")
	defer out.Close()

	logits, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}
	if len(logits) < len(ferPlusLabels) {
		return nil, fmt.Errorf("unexpected model output size %d", len(logits))
	}

	scores := scoresFromLogits(logits[:len(ferPlusLabels)])
	if e, conf, ok := scores.Dominant(); ok {
		log.Debug("ferplus", "emotion", e, "confidence", conf, "face_score", best.Score)
	}
	return scores, nil
}

// Close releases the model and face detector.
func (f *FERPlus) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gray.Close()
	f.resized.Close()
	f.net.Close()
	return f.faces.Close()
}

// scoresFromLogits soft-maxes the FER+ logits and maps them onto emotions.
func scoresFromLogits(logits []float32) emotion.Scores {
	maxLogit := math.Inf(-1)
	for _, v := range logits {
		maxLogit = math.Max(maxLogit, float64(v))
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxLogit)
		sum += probs[i]
	}

	scores := make(emotion.Scores, len(emotion.All()))
	for i, p := range probs {
		if i >= len(ferPlusLabels) {
			break
		}
		scores[ferPlusLabels[i]] += p / sum
	}
	return scores
}
