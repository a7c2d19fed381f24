// Package session runs the capture, classify, trigger and present loop.
//
// Everything the loop touches is owned by the goroutine calling Run. Other
// goroutines interact only through the input.Controller queue and the
// Publisher snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/assets"
	"github.com/teslashibe/go-memey/pkg/camera"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"github.com/teslashibe/go-memey/pkg/input"
	"github.com/teslashibe/go-memey/pkg/present"
	"github.com/teslashibe/go-memey/pkg/trigger"
	"github.com/teslashibe/go-memey/pkg/vision"
	"gocv.io/x/gocv"
)

// SoundPlayer plays meme sounds.
type SoundPlayer interface {
	Play(path string) error
	Stop()
	Close() error
}

// Config tunes the loop.
type Config struct {
	DisplayDuration time.Duration // how long a meme stays up
	KeyDelay        time.Duration // WaitKey delay per iteration
	PublishInterval time.Duration // minimum gap between routine status publishes
	MaxReadFailures int           // consecutive frame grab failures before giving up
}

// DefaultConfig returns the standard loop settings.
func DefaultConfig() Config {
	return Config{
		DisplayDuration: 4 * time.Second,
		KeyDelay:        time.Millisecond,
		PublishInterval: 200 * time.Millisecond,
		MaxReadFailures: 30,
	}
}

// Deps are the collaborators of a session. Run takes ownership of Source,
// Classifier, Sink and Sound and closes them when it returns.
type Deps struct {
	Source     camera.Source
	Classifier vision.Classifier
	Machine    *trigger.Machine
	Library    *assets.Library
	Selector   *assets.Selector
	Sink       present.Sink
	Sound      SoundPlayer       // optional
	Controls   *input.Controller // optional
	Publisher  Publisher         // optional
}

// Session is one run of the app.
type Session struct {
	cfg Config
	Deps

	id  string
	now func() time.Time

	frame        gocv.Mat
	readFailures int

	displaying bool
	memeUntil  time.Time

	lastSample  *SampleInfo
	lastEvent   *trigger.Event
	frames      uint64
	samples     uint64
	events      uint64
	lastPublish time.Time
}

// New validates the dependencies and builds a session.
func New(cfg Config, d Deps) (*Session, error) {
	switch {
	case d.Source == nil:
		return nil, errors.New("session: no frame source")
	case d.Classifier == nil:
		return nil, errors.New("session: no classifier")
	case d.Machine == nil:
		return nil, errors.New("session: no trigger machine")
	case d.Library == nil || d.Selector == nil:
		return nil, errors.New("session: no asset library")
	case d.Sink == nil:
		return nil, errors.New("session: no presentation sink")
	}
	if d.Controls == nil {
		d.Controls = input.NewController(1)
	}
	if cfg.MaxReadFailures < 1 {
		cfg.MaxReadFailures = 1
	}

	return &Session{
		cfg:   cfg,
		Deps:  d,
		id:    uuid.NewString(),
		now:   time.Now,
		frame: gocv.NewMat(),
	}, nil
}

// ID identifies this session in logs and on the dashboard.
func (s *Session) ID() string {
	return s.id
}

// SetClock replaces the time source. Used by tests.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Run loops until quit is pressed, ctx is cancelled or the camera fails.
// Resources are released before it returns.
func (s *Session) Run(ctx context.Context) error {
	defer s.release()

	log.Info("session started", "id", s.id, "emotions", len(s.Library.Available()))

	for {
		if ctx.Err() != nil {
			log.Info("session cancelled", "id", s.id)
			return nil
		}

		quit, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if quit {
			log.Info("session ended", "id", s.id, "frames", s.frames, "events", s.events)
			return nil
		}
	}
}

// Step runs one iteration of the loop. It reports whether quit was requested.
func (s *Session) Step(ctx context.Context) (bool, error) {
	now := s.now()

	if err := s.Source.Read(&s.frame); err != nil {
		s.readFailures++
		if s.readFailures >= s.cfg.MaxReadFailures {
			return false, fmt.Errorf("read frame: %w", err)
		}
		log.Debug("frame grab failed", "error", err, "failures", s.readFailures)
		return false, nil
	}
	s.readFailures = 0
	s.frames++

	var ev *trigger.Event
	ov := s.observe(ctx, now, &ev)

	s.Sink.ShowPreview(s.frame, ov)

	forcePublish := false
	key := s.Sink.PollKey(s.cfg.KeyDelay)
	if action := s.Controls.Next(key); action != input.None {
		res := input.Apply(action, s.Machine, now)
		if res.Quit {
			return true, nil
		}
		if res.Event != nil {
			ev = res.Event
		}
		if res.SoundChanged && !res.SoundEnabled && s.Sound != nil {
			s.Sound.Stop()
		}
		forcePublish = true
	}

	if ev != nil {
		s.present(*ev, now)
		forcePublish = true
	}

	s.expire(now)
	s.publish(now, forcePublish)
	return false, nil
}

// observe classifies the current frame and feeds the machine.
func (s *Session) observe(ctx context.Context, now time.Time, ev **trigger.Event) present.Overlay {
	scores, err := s.Classifier.Classify(ctx, s.frame)
	if err != nil {
		if !errors.Is(err, vision.ErrNoFace) && ctx.Err() == nil {
			log.Debug("classify failed", "error", err)
		}
		s.Machine.Miss(now)
		s.lastSample = nil
		return s.overlay(now, present.Overlay{})
	}

	label, confidence, ok := scores.Dominant()
	if !ok {
		s.Machine.Miss(now)
		s.lastSample = nil
		return s.overlay(now, present.Overlay{})
	}

	fired, err := s.Machine.Observe(trigger.Sample{Label: label, Confidence: confidence, At: now})
	if err != nil {
		log.Warn("sample rejected", "error", err)
		return s.overlay(now, present.Overlay{})
	}
	*ev = fired

	s.samples++
	s.lastSample = &SampleInfo{Emotion: label, Confidence: confidence, Scores: scores, At: now}

	return s.overlay(now, present.Overlay{
		Label:      label,
		Confidence: confidence,
		Scores:     scores,
	})
}

// overlay fills in the trigger part of ov.
func (s *Session) overlay(now time.Time, ov present.Overlay) present.Overlay {
	st := s.Machine.State()
	p := s.Machine.Progress(now)
	ov.Candidate = st.Candidate
	ov.Hold = p.Hold
	ov.Dwell = s.Machine.Config().Dwell
	ov.Fraction = p.Fraction
	ov.CooldownRemaining = p.CooldownRemaining
	ov.SoundEnabled = st.SoundEnabled
	return ov
}

// present shows the meme and plays the sound for ev. A missing image or
// sound skips that part only.
func (s *Session) present(ev trigger.Event, now time.Time) {
	s.events++
	s.lastEvent = &ev

	log.Info("meme triggered",
		"id", ev.ID,
		"emotion", ev.Emotion,
		"confidence", ev.Confidence,
		"manual", ev.Manual,
	)
	if s.Publisher != nil {
		s.Publisher.PublishEvent(ev)
	}

	path, err := s.Selector.Pick(ev.Emotion)
	switch {
	case errors.Is(err, assets.ErrEmptyFolder):
		log.Info("no memes for emotion, skipping display", "emotion", ev.Emotion)
	case err != nil:
		log.Warn("pick meme failed", "emotion", ev.Emotion, "error", err)
	default:
		if err := s.Sink.ShowMeme(present.Meme{Emotion: ev.Emotion, ImagePath: path}); err != nil {
			log.Warn("show meme failed", "path", path, "error", err)
		} else {
			s.displaying = true
			s.memeUntil = now.Add(s.cfg.DisplayDuration)
		}
	}

	if s.Sound == nil || !s.Machine.SoundEnabled() {
		return
	}
	if sound := s.Library.Sound(ev.Emotion); sound != "" {
		if err := s.Sound.Play(sound); err != nil {
			log.Warn("play sound failed", "path", sound, "error", err)
		}
	}
}

// expire closes the meme once its time is up.
func (s *Session) expire(now time.Time) {
	if s.displaying && !now.Before(s.memeUntil) {
		s.Sink.CloseMeme()
		s.displaying = false
	}
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	return s.status(s.now())
}

func (s *Session) status(now time.Time) Status {
	st := s.Machine.State()
	p := s.Machine.Progress(now)
	out := Status{
		SessionID:           s.id,
		Phase:               st.Phase,
		Candidate:           st.Candidate,
		Progress:            p.Fraction,
		CooldownRemainingMs: p.CooldownRemaining.Milliseconds(),
		SoundEnabled:        st.SoundEnabled,
		Displaying:          s.displaying,
		Frames:              s.frames,
		Samples:             s.samples,
		Events:              s.events,
		At:                  now,
	}
	if s.lastSample != nil {
		ls := *s.lastSample
		ls.Scores = make(emotion.Scores, len(s.lastSample.Scores))
		for e, v := range s.lastSample.Scores {
			ls.Scores[e] = v
		}
		out.LastSample = &ls
	}
	if s.lastEvent != nil {
		le := *s.lastEvent
		out.LastEvent = &le
	}
	return out
}

func (s *Session) publish(now time.Time, force bool) {
	if s.Publisher == nil {
		return
	}
	if !force && now.Sub(s.lastPublish) < s.cfg.PublishInterval {
		return
	}
	s.lastPublish = now
	s.Publisher.PublishStatus(s.status(now))
}

// release closes everything the session owns.
func (s *Session) release() {
	if s.Sound != nil {
		s.Sound.Stop()
		if err := s.Sound.Close(); err != nil {
			log.Warn("close audio", "error", err)
		}
	}
	if err := s.Sink.Close(); err != nil {
		log.Warn("close windows", "error", err)
	}
	if err := s.Classifier.Close(); err != nil {
		log.Warn("close classifier", "error", err)
	}
	if err := s.Source.Close(); err != nil {
		log.Warn("close camera", "error", err)
	}
	s.frame.Close()
	log.Debug("session resources released", "id", s.id)
}
