// Package trigger turns a noisy stream of per-frame emotion samples into
// discrete meme events.
//
// The machine has three phases. Idle waits for a confident sample,
// Accumulating requires the same emotion to persist for the dwell time,
// and Cooldown suppresses further events until the cooldown has passed.
package trigger

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-memey/pkg/emotion"
)

// ErrCoolingDown is returned by Fire when the previous event is still
// inside its cooldown window.
var ErrCoolingDown = errors.New("trigger: cooling down")

// Phase is the state machine phase.
type Phase int

const (
	// PhaseIdle means no candidate emotion is being tracked.
	PhaseIdle Phase = iota

	// PhaseAccumulating means a candidate is persisting toward the dwell time.
	PhaseAccumulating

	// PhaseCooldown means an event fired recently.
	PhaseCooldown
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// MarshalText lets phases appear by name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, cand := range []Phase{PhaseIdle, PhaseAccumulating, PhaseCooldown} {
		if cand.String() == string(b) {
			*p = cand
			return nil
		}
	}
	return fmt.Errorf("trigger: unknown phase %q", b)
}

// Sample is one classified frame.
type Sample struct {
	Label      emotion.Emotion
	Confidence float64
	At         time.Time
}

// Event is a fired meme trigger.
type Event struct {
	ID         string          `json:"id"`
	Emotion    emotion.Emotion `json:"emotion"`
	Confidence float64         `json:"confidence"`
	At         time.Time       `json:"at"`
	Manual     bool            `json:"manual"`
}

// State is a snapshot of the machine.
type State struct {
	Phase          Phase           `json:"phase"`
	Candidate      emotion.Emotion `json:"candidate,omitempty"`
	CandidateSince time.Time       `json:"candidate_since,omitempty"`
	LastFired      emotion.Emotion `json:"last_fired,omitempty"`
	LastFiredAt    time.Time       `json:"last_fired_at,omitempty"`
	CooldownUntil  time.Time       `json:"cooldown_until,omitempty"`
	SoundEnabled   bool            `json:"sound_enabled"`
}

// Progress describes how close the machine is to its next transition.
type Progress struct {
	// Hold is how long the current candidate has persisted.
	Hold time.Duration

	// Fraction is Hold relative to the dwell time, clamped to [0,1].
	Fraction float64

	// CooldownRemaining is zero outside of cooldown.
	CooldownRemaining time.Duration
}

// Config holds the trigger tuning parameters.
type Config struct {
	// Threshold is the minimum confidence for a sample to count.
	Threshold float64

	// Dwell is how long a candidate must persist before firing.
	Dwell time.Duration

	// Cooldown is the minimum gap between two events.
	Cooldown time.Duration

	// TriggerOnNeutral lets neutral faces fire events. When false,
	// neutral samples are treated as below threshold.
	TriggerOnNeutral bool

	// ManualDefault is fired by a manual trigger when no usable sample
	// has been seen.
	ManualDefault emotion.Emotion

	// SoundEnabled is the initial sound flag.
	SoundEnabled bool
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:     0.4,
		Dwell:         2 * time.Second,
		Cooldown:      5 * time.Second,
		ManualDefault: emotion.Happy,
		SoundEnabled:  true,
	}
}

// Validate returns a list of problems, or nil.
func (c Config) Validate() []string {
	var errs []string
	if c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, "threshold must be between 0 and 1")
	}
	if c.Dwell < 0 {
		errs = append(errs, "dwell must not be negative")
	}
	if c.Cooldown < 0 {
		errs = append(errs, "cooldown must not be negative")
	}
	if !c.ManualDefault.Valid() {
		errs = append(errs, "manual_default must be one of happy, sad, angry, surprised, fearful, disgusted, neutral")
	}
	return errs
}
