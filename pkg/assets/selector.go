package assets

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/teslashibe/go-memey/pkg/emotion"
)

// Selector picks images at random without immediate repeats.
// It is owned by the session loop and not safe for concurrent use.
type Selector struct {
	lib  *Library
	rng  *rand.Rand
	last map[emotion.Emotion]string
}

// NewSelector creates a selector over lib. A nil rng is seeded from the clock.
func NewSelector(lib *Library, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{
		lib:  lib,
		rng:  rng,
		last: make(map[emotion.Emotion]string),
	}
}

// Pick returns an image path for e. With two or more images the result
// differs from the previous pick for e. ErrEmptyFolder means there is
// nothing to show and the caller should skip displaying.
func (s *Selector) Pick(e emotion.Emotion) (string, error) {
	images := s.lib.Entry(e).Images
	switch len(images) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrEmptyFolder, e)
	case 1:
		s.last[e] = images[0]
		return images[0], nil
	}

	prev := s.last[e]
	candidates := images
	if prev != "" {
		candidates = make([]string, 0, len(images)-1)
		for _, p := range images {
			if p != prev {
				candidates = append(candidates, p)
			}
		}
	}

	pick := candidates[s.rng.Intn(len(candidates))]
	s.last[e] = pick
	return pick, nil
}
