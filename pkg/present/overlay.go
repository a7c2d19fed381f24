package present

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/teslashibe/go-memey/pkg/emotion"
	"gocv.io/x/gocv"
)

var (
	white     = color.RGBA{255, 255, 255, 0}
	lightGray = color.RGBA{200, 200, 200, 0}
	midGray   = color.RGBA{100, 100, 100, 0}
	darkGray  = color.RGBA{50, 50, 50, 0}
	black     = color.RGBA{0, 0, 0, 0}
	green     = color.RGBA{0, 255, 0, 0}
)

// Score bar layout
const (
	barX      = 20
	barTop    = 70
	barHeight = 20
	barGap    = 5
	barMax    = 150
)

// Status box layout, measured from the right edge
const (
	statusWidth = 250
	statusRight = 10
	statusTop   = 10
	statusBot   = 135

	// The box never starts left of the score bars
	statusMinLeft  = barX + barMax + 10
	statusMinWidth = 100
)

// DrawOverlay draws the emotion label, score bars and trigger status on img.
func DrawOverlay(img *gocv.Mat, ov Overlay) {
	drawLabel(img, ov)
	drawScoreBars(img, ov.Scores)
	drawStatus(img, ov)
}

func drawLabel(img *gocv.Mat, ov Overlay) {
	c := lightGray
	if ov.Label != "" {
		c = ov.Label.Color()
	}
	gocv.PutText(img, labelText(ov), image.Pt(20, 40), gocv.FontHersheySimplex, 1.2, c, 3)
}

func drawScoreBars(img *gocv.Mat, scores emotion.Scores) {
	y := barTop
	for _, s := range sortedScores(scores) {
		gocv.Rectangle(img, image.Rect(barX, y, barX+barMax, y+barHeight), darkGray, -1)
		if w := barWidth(s.score, barMax); w > 0 {
			gocv.Rectangle(img, image.Rect(barX, y, barX+w, y+barHeight), s.emotion.Color(), -1)
		}
		gocv.PutText(img, shortName(s.emotion), image.Pt(barX+5, y+15), gocv.FontHersheySimplex, 0.4, white, 1)
		y += barHeight + barGap
	}
}

// statusBox places the status box at the right edge of a frame cols wide,
// narrowed so it stays clear of the score bars. ok is false when the frame
// is too narrow for a readable box.
func statusBox(cols int) (box image.Rectangle, ok bool) {
	left := max(cols-statusRight-statusWidth, statusMinLeft)
	right := cols - statusRight
	if right-left < statusMinWidth {
		return image.Rectangle{}, false
	}
	return image.Rect(left, statusTop, right, statusBot), true
}

func drawStatus(img *gocv.Mat, ov Overlay) {
	box, ok := statusBox(img.Cols())
	if !ok {
		return
	}
	gocv.Rectangle(img, box, black, -1)
	gocv.Rectangle(img, box, midGray, 2)

	x := box.Min.X + 10
	if ov.Candidate != "" {
		bar := image.Rect(x, 30, box.Max.X-10, 50)
		gocv.Rectangle(img, bar, darkGray, -1)
		if fill := barWidth(ov.Fraction, bar.Dx()); fill > 0 {
			gocv.Rectangle(img, image.Rect(x, 30, x+fill, 50), ov.Candidate.Color(), -1)
		}
		gocv.PutText(img, holdText(ov), image.Pt(x, 70), gocv.FontHersheySimplex, 0.5, white, 1)
	} else {
		gocv.PutText(img, "Waiting for emotion...", image.Pt(x, 45), gocv.FontHersheySimplex, 0.5, lightGray, 1)
	}

	text, ready := cooldownText(ov)
	c := lightGray
	if ready {
		c = green
	}
	gocv.PutText(img, text, image.Pt(x, 95), gocv.FontHersheySimplex, 0.5, c, 1)
	gocv.PutText(img, soundText(ov.SoundEnabled), image.Pt(x, 120), gocv.FontHersheySimplex, 0.5, lightGray, 1)
}

func labelText(ov Overlay) string {
	if ov.Label == "" {
		return "NO FACE"
	}
	return fmt.Sprintf("%s: %.1f%%", strings.ToUpper(string(ov.Label)), ov.Confidence*100)
}

func holdText(ov Overlay) string {
	return fmt.Sprintf("Hold %s: %.1fs / %.1fs", ov.Candidate, ov.Hold.Seconds(), ov.Dwell.Seconds())
}

func cooldownText(ov Overlay) (string, bool) {
	if ov.CooldownRemaining > 0 {
		return fmt.Sprintf("Cooldown: %.1fs", ov.CooldownRemaining.Round(100*time.Millisecond).Seconds()), false
	}
	return "Ready!", true
}

func soundText(on bool) string {
	if on {
		return "Sound: on  [s]"
	}
	return "Sound: off [s]"
}

func shortName(e emotion.Emotion) string {
	s := string(e)
	if len(s) > 3 {
		return s[:3]
	}
	return s
}

// barWidth scales a [0,1] fraction to max pixels.
func barWidth(fraction float64, max int) int {
	switch {
	case fraction <= 0:
		return 0
	case fraction >= 1:
		return max
	}
	return int(fraction * float64(max))
}

type scoreBar struct {
	emotion emotion.Emotion
	score   float64
}

// sortedScores orders scores highest first, ties in emotion order.
func sortedScores(scores emotion.Scores) []scoreBar {
	bars := make([]scoreBar, 0, len(scores))
	for _, e := range emotion.All() {
		if v, ok := scores[e]; ok {
			bars = append(bars, scoreBar{emotion: e, score: v})
		}
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].score > bars[j].score
	})
	return bars
}
