package trigger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-memey/pkg/emotion"
)

// Machine is the trigger state machine. It is not safe for concurrent use;
// one goroutine owns it for the whole session.
type Machine struct {
	cfg   Config
	state State

	// last recognised label, used by manual triggers
	lastLabel      emotion.Emotion
	lastConfidence float64

	newID func() string
}

// New creates a machine in the Idle phase.
func New(cfg Config) *Machine {
	return &Machine{
		cfg:   cfg,
		state: State{Phase: PhaseIdle, SoundEnabled: cfg.SoundEnabled},
		newID: uuid.NewString,
	}
}

// Config returns the tuning the machine was built with.
func (m *Machine) Config() Config {
	return m.cfg
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	return m.state
}

// SoundEnabled reports the sound flag.
func (m *Machine) SoundEnabled() bool {
	return m.state.SoundEnabled
}

// Observe feeds one sample into the machine. It returns the fired event, or
// nil when nothing fired. A sample with an unrecognised label is rejected
// with emotion.ErrUnknown and leaves the state unchanged.
func (m *Machine) Observe(s Sample) (*Event, error) {
	if !s.Label.Valid() {
		return nil, fmt.Errorf("%w: %q", emotion.ErrUnknown, s.Label)
	}

	m.lastLabel = s.Label
	m.lastConfidence = s.Confidence

	if m.state.Phase == PhaseCooldown {
		if s.At.Before(m.state.CooldownUntil) {
			return nil, nil
		}
		m.toIdle()
	}

	if m.state.Phase == PhaseAccumulating {
		if !m.counts(s) || s.Label != m.state.Candidate {
			// No partial credit; the sample is re-evaluated from Idle
			m.toIdle()
		}
	}

	if m.state.Phase == PhaseIdle {
		if !m.counts(s) {
			return nil, nil
		}
		m.state.Phase = PhaseAccumulating
		m.state.Candidate = s.Label
		m.state.CandidateSince = s.At
	}

	if s.At.Sub(m.state.CandidateSince) < m.cfg.Dwell {
		return nil, nil
	}
	// A reset during cooldown returns to Idle but keeps the gap between
	// events; the candidate waits for the gate to open.
	if s.At.Before(m.state.CooldownUntil) {
		return nil, nil
	}
	return m.fire(m.state.Candidate, s.Confidence, s.At, false), nil
}

// Fire forces an event for the most recent sample's label, bypassing the
// dwell time. The configured default is used when no sample has been seen,
// or when the last sample was neutral and neutral faces do not trigger.
// Fire returns ErrCoolingDown while the previous event's cooldown is running.
func (m *Machine) Fire(now time.Time) (*Event, error) {
	if now.Before(m.state.CooldownUntil) {
		return nil, ErrCoolingDown
	}

	label, confidence := m.lastLabel, m.lastConfidence
	if label == "" || (label == emotion.Neutral && !m.cfg.TriggerOnNeutral) {
		label, confidence = m.cfg.ManualDefault, 0
	}
	return m.fire(label, confidence, now, true), nil
}

// Miss records a frame that produced no usable sample, such as a frame
// without a face. A running accumulation is discarded and an expired
// cooldown ends; nothing fires.
func (m *Machine) Miss(at time.Time) {
	switch m.state.Phase {
	case PhaseAccumulating:
		m.toIdle()
	case PhaseCooldown:
		if !at.Before(m.state.CooldownUntil) {
			m.toIdle()
		}
	}
}

// Reset forces the machine back to Idle, discarding any candidate. The
// minimum gap after the last event still applies.
func (m *Machine) Reset() {
	m.toIdle()
}

// ToggleSound flips the sound flag and returns the new value.
func (m *Machine) ToggleSound() bool {
	m.state.SoundEnabled = !m.state.SoundEnabled
	return m.state.SoundEnabled
}

// Progress reports dwell progress and remaining cooldown at now.
func (m *Machine) Progress(now time.Time) Progress {
	var p Progress
	switch m.state.Phase {
	case PhaseAccumulating:
		p.Hold = now.Sub(m.state.CandidateSince)
		if p.Hold < 0 {
			p.Hold = 0
		}
		if m.cfg.Dwell <= 0 {
			p.Fraction = 1
		} else {
			p.Fraction = min(float64(p.Hold)/float64(m.cfg.Dwell), 1)
		}
	}
	if rem := m.state.CooldownUntil.Sub(now); rem > 0 {
		p.CooldownRemaining = rem
	}
	return p
}

// counts reports whether a sample is strong enough to start or extend
// an accumulation. NaN and values above 1 lie outside the score range and
// never count.
func (m *Machine) counts(s Sample) bool {
	if !(s.Confidence >= m.cfg.Threshold) || s.Confidence > 1 {
		return false
	}
	if s.Label == emotion.Neutral && !m.cfg.TriggerOnNeutral {
		return false
	}
	return true
}

func (m *Machine) toIdle() {
	m.state.Phase = PhaseIdle
	m.state.Candidate = ""
	m.state.CandidateSince = time.Time{}
}

func (m *Machine) fire(label emotion.Emotion, confidence float64, at time.Time, manual bool) *Event {
	ev := &Event{
		ID:         m.newID(),
		Emotion:    label,
		Confidence: confidence,
		At:         at,
		Manual:     manual,
	}

	m.state.Phase = PhaseCooldown
	m.state.Candidate = ""
	m.state.CandidateSince = time.Time{}
	m.state.CooldownUntil = at.Add(m.cfg.Cooldown)
	m.state.LastFired = label
	m.state.LastFiredAt = at

	return ev
}
