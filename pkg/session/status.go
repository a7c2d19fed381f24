package session

import (
	"time"

	"github.com/teslashibe/go-memey/pkg/emotion"
	"github.com/teslashibe/go-memey/pkg/trigger"
)

// SampleInfo is the last classified frame.
type SampleInfo struct {
	Emotion    emotion.Emotion `json:"emotion"`
	Confidence float64         `json:"confidence"`
	Scores     emotion.Scores  `json:"scores"`
	At         time.Time       `json:"at"`
}

// Status is a copy of the session state for observers outside the loop.
type Status struct {
	SessionID           string          `json:"session_id"`
	Phase               trigger.Phase   `json:"phase"`
	Candidate           emotion.Emotion `json:"candidate,omitempty"`
	Progress            float64         `json:"progress"`
	CooldownRemainingMs int64           `json:"cooldown_remaining_ms"`
	SoundEnabled        bool            `json:"sound_enabled"`
	Displaying          bool            `json:"displaying"`
	LastSample          *SampleInfo     `json:"last_sample,omitempty"`
	LastEvent           *trigger.Event  `json:"last_event,omitempty"`
	Frames              uint64          `json:"frames"`
	Samples             uint64          `json:"samples"`
	Events              uint64          `json:"events"`
	At                  time.Time       `json:"at"`
}

// Publisher receives status snapshots and trigger events. Calls come from
// the session goroutine and must not block.
type Publisher interface {
	PublishStatus(Status)
	PublishEvent(trigger.Event)
}
