// Package audio plays the meme sound effects through the local speaker.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/teslashibe/go-memey/internal/log"
)

// DefaultSampleRate is the rate the speaker is opened at. Every sound is
// resampled to it.
const DefaultSampleRate beep.SampleRate = 44100

// ErrUnsupportedFormat is returned for files that are not mp3, wav or ogg.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Output is where decoded audio goes. The speaker in production, a fake in
// tests.
type Output interface {
	Init(rate beep.SampleRate) error
	Play(s beep.Streamer)
	Clear()
	Close()
}

// Decode opens a sound file and picks the decoder by extension.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".ogg":
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open sound: %w", err)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return s, format, nil
}

// Player plays one sound at a time. Starting a new sound stops the old one.
type Player struct {
	out  Output
	rate beep.SampleRate

	mu      sync.Mutex
	current beep.StreamSeekCloser
	gen     uint64
	closed  bool
}

// NewPlayer opens the default speaker.
func NewPlayer() (*Player, error) {
	return NewPlayerWithOutput(speakerOutput{}, DefaultSampleRate)
}

// NewPlayerWithOutput initialises out at rate.
func NewPlayerWithOutput(out Output, rate beep.SampleRate) (*Player, error) {
	if err := out.Init(rate); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	log.Debug("speaker ready", "sample_rate", int(rate))
	return &Player{out: out, rate: rate}, nil
}

// Play decodes path and starts playing it, replacing any current sound.
func (p *Player) Play(path string) error {
	s, format, err := Decode(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		s.Close()
		return errors.New("audio: player closed")
	}
	p.stopLocked()

	var streamer beep.Streamer = s
	if format.SampleRate != p.rate {
		streamer = beep.Resample(4, format.SampleRate, p.rate, s)
	}

	p.gen++
	gen := p.gen
	p.current = s
	p.out.Play(beep.Seq(streamer, beep.Callback(func() {
		// The speaker lock is held here; Play holds p.mu while taking it
		go p.finished(gen)
	})))

	log.Debug("playing sound", "file", filepath.Base(path),
		"duration", format.SampleRate.D(s.Len()).Round(time.Millisecond))
	return nil
}

// finished releases a sound that drained on its own.
func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.current == nil {
		return
	}
	p.current.Close()
	p.current = nil
}

// Stop silences the current sound, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	p.out.Clear()
	p.current.Close()
	p.current = nil
	p.gen++
}

// Playing reports whether a sound is playing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Close stops playback and releases the speaker.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.stopLocked()
	p.closed = true
	p.out.Close()
	return nil
}
