package present

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"gocv.io/x/gocv"
)

func TestMeme_Text(t *testing.T) {
	m := Meme{Emotion: emotion.Surprised, ImagePath: "x.png"}
	assert.Equal(t, "SURPRISED DETECTED!", m.Title())
	assert.Equal(t, "You look surprised!", m.Caption())
}

func TestOverlayText(t *testing.T) {
	assert.Equal(t, "NO FACE", labelText(Overlay{}))
	assert.Equal(t, "HAPPY: 80.0%", labelText(Overlay{Label: emotion.Happy, Confidence: 0.8}))

	ov := Overlay{Candidate: emotion.Sad, Hold: 1200 * time.Millisecond, Dwell: 2 * time.Second}
	assert.Equal(t, "Hold sad: 1.2s / 2.0s", holdText(ov))

	text, ready := cooldownText(Overlay{})
	assert.Equal(t, "Ready!", text)
	assert.True(t, ready)

	text, ready = cooldownText(Overlay{CooldownRemaining: 3140 * time.Millisecond})
	assert.Equal(t, "Cooldown: 3.1s", text)
	assert.False(t, ready)

	assert.Contains(t, soundText(true), "on")
	assert.Contains(t, soundText(false), "off")
	assert.Equal(t, "dis", shortName(emotion.Disgusted))
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 0, barWidth(-0.5, 150))
	assert.Equal(t, 0, barWidth(0, 150))
	assert.Equal(t, 75, barWidth(0.5, 150))
	assert.Equal(t, 150, barWidth(1, 150))
	assert.Equal(t, 150, barWidth(3, 150))
}

func TestStatusBox(t *testing.T) {
	tests := []struct {
		cols int
		want image.Rectangle
		ok   bool
	}{
		{640, image.Rect(380, 10, 630, 135), true},
		{1280, image.Rect(1020, 10, 1270, 135), true},
		{320, image.Rect(180, 10, 310, 135), true},
		{160, image.Rectangle{}, false},
	}

	for _, tc := range tests {
		box, ok := statusBox(tc.cols)
		assert.Equal(t, tc.ok, ok, "cols %d", tc.cols)
		assert.Equal(t, tc.want, box, "cols %d", tc.cols)
		if ok {
			assert.GreaterOrEqual(t, box.Min.X, barX+barMax, "box overlaps score bars at cols %d", tc.cols)
		}
	}
}

func TestDrawOverlay_NarrowFrames(t *testing.T) {
	for _, w := range []int{160, 320, 640} {
		img := gocv.NewMatWithSize(w*3/4, w, gocv.MatTypeCV8UC3)
		DrawOverlay(&img, Overlay{
			Label:      emotion.Happy,
			Confidence: 0.9,
			Scores:     emotion.Scores{emotion.Happy: 0.9, emotion.Sad: 0.1},
			Candidate:  emotion.Happy,
			Fraction:   0.5,
		})
		assert.False(t, img.Empty())
		img.Close()
	}
}

func TestSortedScores(t *testing.T) {
	bars := sortedScores(emotion.Scores{
		emotion.Neutral: 0.2,
		emotion.Sad:     0.5,
		emotion.Angry:   0.2,
		"bogus":         0.9,
	})

	require.Len(t, bars, 3)
	assert.Equal(t, emotion.Sad, bars[0].emotion)
	// Equal scores keep emotion order
	assert.Equal(t, emotion.Angry, bars[1].emotion)
	assert.Equal(t, emotion.Neutral, bars[2].emotion)
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{400, 300, 800, 600, 400, 300},
		{1600, 1200, 800, 600, 800, 600},
		{1000, 500, 800, 600, 800, 400},
		{500, 1000, 800, 600, 300, 600},
		{500, 1000, 0, 0, 500, 1000},
	}
	for _, tc := range tests {
		w, h := fitSize(tc.w, tc.h, tc.maxW, tc.maxH)
		assert.Equal(t, tc.wantW, w, "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, h, "%dx%d", tc.w, tc.h)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeGIF(t *testing.T, path string, w, h int) {
	t.Helper()
	frame := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			frame.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gif.EncodeAll(f, &gif.GIF{Image: []*image.Paletted{frame, frame}, Delay: []int{10, 10}}))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "a.png")
	writePNG(t, pngPath, 40, 30)
	img, err := LoadImage(pngPath)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Cols())
	assert.Equal(t, 30, img.Rows())
	img.Close()

	gifPath := filepath.Join(dir, "b.GIF")
	writeGIF(t, gifPath, 20, 10)
	img, err = LoadImage(gifPath)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Cols())
	assert.Equal(t, 10, img.Rows())
	assert.Equal(t, 3, img.Channels())
	img.Close()

	_, err = LoadImage(filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.gif")
	require.NoError(t, os.WriteFile(bad, []byte("not a gif"), 0o644))
	_, err = LoadImage(bad)
	assert.Error(t, err)
}

func TestComposeMeme(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 500, 1000, gocv.MatTypeCV8UC3)
	defer img.Close()

	canvas := ComposeMeme(img, Meme{Emotion: emotion.Happy}, 800, 600)
	defer canvas.Close()

	assert.Equal(t, 400+captionHeight, canvas.Rows())
	assert.Equal(t, 800, canvas.Cols())
}

func TestComposeMeme_NarrowImageWidensForCaption(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 50, 20, gocv.MatTypeCV8UC3)
	defer img.Close()

	canvas := ComposeMeme(img, Meme{Emotion: emotion.Disgusted}, 800, 600)
	defer canvas.Close()

	assert.Equal(t, 50+captionHeight, canvas.Rows())
	assert.Greater(t, canvas.Cols(), 20)
}
