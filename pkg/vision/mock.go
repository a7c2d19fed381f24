package vision

import (
	"context"
	"sync"

	"github.com/teslashibe/go-memey/pkg/emotion"
	"gocv.io/x/gocv"
)

// Mock implements Classifier for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	ClassifyFunc func(ctx context.Context, frame gocv.Mat) (emotion.Scores, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu     sync.Mutex
	calls  int
	closed bool
}

// NewMock creates a mock that always sees a neutral face.
func NewMock() *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, frame gocv.Mat) (emotion.Scores, error) {
			return emotion.Scores{emotion.Neutral: 1}, nil
		},
	}
}

// NewScriptedMock returns the given results in order, then repeats the last.
func NewScriptedMock(results ...emotion.Scores) *Mock {
	m := &Mock{}
	i := 0
	m.ClassifyFunc = func(ctx context.Context, frame gocv.Mat) (emotion.Scores, error) {
		if len(results) == 0 {
			return nil, ErrNoFace
		}
		r := results[i]
		if i < len(results)-1 {
			i++
		}
		return r, nil
	}
	return m
}

// Classify calls ClassifyFunc and records the call.
func (m *Mock) Classify(ctx context.Context, frame gocv.Mat) (emotion.Scores, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, frame)
	}
	return nil, ErrNoFace
}

// Close calls CloseFunc.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns how many times Classify was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
