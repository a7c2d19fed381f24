// Package emotion defines the seven facial emotion labels go-memey reacts to.
package emotion

import (
	"errors"
	"fmt"
	"strings"
)

// Emotion is a facial emotion label.
type Emotion string

// The recognised emotions, in tie-break order.
const (
	Happy     Emotion = "happy"
	Sad       Emotion = "sad"
	Angry     Emotion = "angry"
	Surprised Emotion = "surprised"
	Fearful   Emotion = "fearful"
	Disgusted Emotion = "disgusted"
	Neutral   Emotion = "neutral"
)

// ErrUnknown is returned for a label outside the seven emotions.
var ErrUnknown = errors.New("unknown emotion")

var all = []Emotion{Happy, Sad, Angry, Surprised, Fearful, Disgusted, Neutral}

// aliases maps names other classifiers use onto our labels.
var aliases = map[string]Emotion{
	"happiness": Happy,
	"joy":       Happy,
	"sadness":   Sad,
	"anger":     Angry,
	"surprise":  Surprised,
	"fear":      Fearful,
	"disgust":   Disgusted,
	"contempt":  Disgusted,
	"calm":      Neutral,
}

// All returns the emotions in their fixed order.
func All() []Emotion {
	out := make([]Emotion, len(all))
	copy(out, all)
	return out
}

// Valid reports whether e is one of the seven emotions.
func (e Emotion) Valid() bool {
	return e.rank() >= 0
}

// String returns the label.
func (e Emotion) String() string {
	return string(e)
}

// rank is the position in the tie-break order, or -1.
func (e Emotion) rank() int {
	for i, v := range all {
		if v == e {
			return i
		}
	}
	return -1
}

// Parse normalises a label, accepting case differences and common aliases
// such as "happiness" or "fear".
func Parse(s string) (Emotion, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if e := Emotion(name); e.Valid() {
		return e, nil
	}
	if e, ok := aliases[name]; ok {
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, s)
}
