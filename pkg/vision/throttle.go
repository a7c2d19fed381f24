package vision

import (
	"context"
	"time"

	"github.com/teslashibe/go-memey/pkg/emotion"
	"gocv.io/x/gocv"
)

// Throttled runs the inner classifier at most once per interval and
// returns the previous result for frames in between.
type Throttled struct {
	inner    Classifier
	interval time.Duration
	now      func() time.Time

	ran    bool
	last   time.Time
	scores emotion.Scores
	err    error
}

// NewThrottled wraps inner. An interval of zero classifies every frame.
func NewThrottled(inner Classifier, interval time.Duration) *Throttled {
	return &Throttled{
		inner:    inner,
		interval: interval,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (t *Throttled) SetClock(now func() time.Time) {
	t.now = now
}

// Classify returns a cached result while the interval has not elapsed.
func (t *Throttled) Classify(ctx context.Context, frame gocv.Mat) (emotion.Scores, error) {
	now := t.now()
	if t.ran && now.Sub(t.last) < t.interval {
		return t.scores, t.err
	}

	scores, err := t.inner.Classify(ctx, frame)
	if ctx.Err() != nil {
		// Cancellation is not a result worth repeating
		return nil, err
	}

	t.ran = true
	t.last = now
	t.scores, t.err = scores, err
	return scores, err
}

// Close closes the inner classifier.
func (t *Throttled) Close() error {
	return t.inner.Close()
}
