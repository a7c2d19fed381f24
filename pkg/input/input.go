// Package input maps key presses and dashboard commands onto the trigger
// machine.
package input

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/trigger"
)

var (
	// ErrUnknownAction is returned for an action name that has no binding.
	ErrUnknownAction = errors.New("input: unknown action")

	// ErrQueueFull is returned when the command queue cannot take more.
	ErrQueueFull = errors.New("input: command queue full")
)

// Action is one user intent.
type Action int

const (
	None Action = iota
	Quit
	Reset
	Trigger
	ToggleSound
)

var actionNames = map[Action]string{
	None:        "none",
	Quit:        "quit",
	Reset:       "reset",
	Trigger:     "trigger",
	ToggleSound: "sound",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction resolves a remote command name. Quit is not accepted from
// outside the keyboard.
func ParseAction(name string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "reset":
		return Reset, nil
	case "trigger", "manual":
		return Trigger, nil
	case "sound", "toggle-sound":
		return ToggleSound, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// keyEsc is the code WaitKey reports for Escape.
const keyEsc = 27

// KeyToAction maps a key code from the preview window. Both cases of a
// letter are accepted.
func KeyToAction(key int) Action {
	switch key {
	case keyEsc, 'q', 'Q':
		return Quit
	case 'r', 'R':
		return Reset
	case 'm', 'M':
		return Trigger
	case 's', 'S':
		return ToggleSound
	}
	return None
}

// Result is what applying an action did.
type Result struct {
	Quit         bool
	Event        *trigger.Event // set when a manual trigger fired
	SoundChanged bool
	SoundEnabled bool
	Err          error // manual trigger refused
}

// Controller merges keyboard input with queued remote commands.
type Controller struct {
	commands chan Action
}

// NewController creates a controller with room for buffer queued commands.
func NewController(buffer int) *Controller {
	if buffer < 1 {
		buffer = 1
	}
	return &Controller{commands: make(chan Action, buffer)}
}

// Submit queues a command without blocking. Safe for concurrent use.
func (c *Controller) Submit(a Action) error {
	select {
	case c.commands <- a:
		return nil
	default:
		return ErrQueueFull
	}
}

// Next returns the action for key, or the oldest queued command when the
// key has no binding. At most one action is returned per call.
func (c *Controller) Next(key int) Action {
	if a := KeyToAction(key); a != None {
		return a
	}
	select {
	case a := <-c.commands:
		return a
	default:
		return None
	}
}

// Apply performs the action on the machine. Only the machine is mutated;
// the caller renders events and silences audio as the result says.
func Apply(a Action, m *trigger.Machine, now time.Time) Result {
	switch a {
	case Quit:
		log.Info("quit requested")
		return Result{Quit: true}

	case Reset:
		m.Reset()
		log.Info("trigger reset")
		return Result{}

	case Trigger:
		ev, err := m.Fire(now)
		if err != nil {
			log.Info("manual trigger refused", "error", err)
			return Result{Err: err}
		}
		log.Info("manual trigger", "emotion", ev.Emotion, "id", ev.ID)
		return Result{Event: ev}

	case ToggleSound:
		on := m.ToggleSound()
		log.Info("sound toggled", "enabled", on)
		return Result{SoundChanged: true, SoundEnabled: on}
	}
	return Result{}
}
