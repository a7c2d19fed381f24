// Package present draws the camera preview and the meme popup.
package present

import (
	"strings"
	"time"

	"github.com/teslashibe/go-memey/pkg/emotion"
	"gocv.io/x/gocv"
)

// Overlay is the state drawn over the preview.
type Overlay struct {
	Label      emotion.Emotion // dominant emotion of the last sample, empty if none
	Confidence float64
	Scores     emotion.Scores

	Candidate         emotion.Emotion // emotion being held, empty if none
	Hold              time.Duration
	Dwell             time.Duration
	Fraction          float64
	CooldownRemaining time.Duration
	SoundEnabled      bool
}

// Meme is one popup.
type Meme struct {
	Emotion   emotion.Emotion
	ImagePath string
}

// Title is the popup window title.
func (m Meme) Title() string {
	return strings.ToUpper(string(m.Emotion)) + " DETECTED!"
}

// Caption is the text under the image.
func (m Meme) Caption() string {
	return "You look " + string(m.Emotion) + "!"
}

// Sink is where a session renders.
type Sink interface {
	// ShowPreview draws ov over frame and shows it.
	ShowPreview(frame gocv.Mat, ov Overlay)

	// ShowMeme opens the popup, replacing any open one.
	ShowMeme(m Meme) error

	// CloseMeme closes the popup if one is open.
	CloseMeme()

	// PollKey waits up to delay for a key press; -1 when none.
	PollKey(delay time.Duration) int

	Close() error
}
