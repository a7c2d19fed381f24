package audio

import (
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// speakerOutput drives the process-wide beep speaker.
type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate) error {
	return speaker.Init(rate, rate.N(time.Second/10))
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }

func (speakerOutput) Clear() { speaker.Clear() }

func (speakerOutput) Close() { speaker.Close() }
