package present

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

var memeBackground = color.RGBA{30, 30, 30, 0}

const captionHeight = 60

// LoadImage reads a meme as a BGR Mat. OpenCV cannot decode GIFs, so those
// go through image/gif and only the first frame is shown.
func LoadImage(path string) (gocv.Mat, error) {
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		return loadGIF(path)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("read image %s: unreadable or missing", filepath.Base(path))
	}
	return img, nil
}

func loadGIF(path string) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("open gif: %w", err)
	}
	defer f.Close()

	frame, err := gif.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("decode gif %s: %w", filepath.Base(path), err)
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("convert gif %s: %w", filepath.Base(path), err)
	}
	return mat, nil
}

// fitSize scales w x h down to fit inside maxW x maxH, keeping the aspect
// ratio. Images that already fit are left alone.
func fitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && float64(h)*scale > float64(maxH) {
		scale = float64(maxH) / float64(h)
	}
	nw := max(int(float64(w)*scale), 1)
	nh := max(int(float64(h)*scale), 1)
	return nw, nh
}

// ComposeMeme lays the image out above its caption. The caller owns the
// returned Mat.
func ComposeMeme(img gocv.Mat, m Meme, maxW, maxH int) gocv.Mat {
	w, h := fitSize(img.Cols(), img.Rows(), maxW, maxH)

	scaled := gocv.NewMat()
	defer scaled.Close()
	if w != img.Cols() || h != img.Rows() {
		gocv.Resize(img, &scaled, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
	} else {
		img.CopyTo(&scaled)
	}

	caption := m.Caption()
	textSize := gocv.GetTextSize(caption, gocv.FontHersheySimplex, 0.9, 2)
	width := max(w, textSize.X+40)

	canvas := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(memeBackground.B), float64(memeBackground.G), float64(memeBackground.R), 0),
		h+captionHeight, width, gocv.MatTypeCV8UC3,
	)

	x := (width - w) / 2
	region := canvas.Region(image.Rect(x, 0, x+w, h))
	scaled.CopyTo(&region)
	region.Close()

	org := image.Pt((width-textSize.X)/2, h+captionHeight/2+textSize.Y/2)
	gocv.PutText(&canvas, caption, org, gocv.FontHersheySimplex, 0.9, m.Emotion.Color(), 2)
	return canvas
}
