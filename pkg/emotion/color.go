package emotion

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

var hexColors = map[Emotion]string{
	Happy:     "#FFD700",
	Sad:       "#4169E1",
	Angry:     "#FF4444",
	Surprised: "#FF69B4",
	Fearful:   "#8B008B",
	Disgusted: "#228B22",
	Neutral:   "#808080",
}

const fallbackHex = "#FFFFFF"

// Hex returns the display colour of e as a hex string.
func (e Emotion) Hex() string {
	if h, ok := hexColors[e]; ok {
		return h
	}
	return fallbackHex
}

// Color returns the display colour of e. Unknown emotions are white.
func (e Emotion) Color() color.RGBA {
	c, err := colorful.Hex(e.Hex())
	if err != nil {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Dim returns the emotion colour blended toward black, used for bar backgrounds.
func (e Emotion) Dim(amount float64) color.RGBA {
	c, err := colorful.Hex(e.Hex())
	if err != nil {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	d := c.BlendRgb(colorful.Color{}, amount).Clamped()
	r, g, b := d.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
