package web

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"github.com/teslashibe/go-memey/pkg/hub"
	"github.com/teslashibe/go-memey/pkg/input"
	"github.com/teslashibe/go-memey/pkg/trigger"
)

// EmotionInfo describes one emotion's assets
type EmotionInfo struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Images int    `json:"images"`
	Sound  bool   `json:"sound"`
}

// handleStatus returns the latest session snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return c.JSON(s.status)
}

// handleEmotions lists every emotion with its asset counts
func (s *Server) handleEmotions(c *fiber.Ctx) error {
	out := make([]EmotionInfo, 0, len(emotion.All()))
	for _, e := range emotion.All() {
		entry := s.library.Entry(e)
		out = append(out, EmotionInfo{
			Name:   string(e),
			Color:  e.Hex(),
			Images: len(entry.Images),
			Sound:  entry.Sound != "",
		})
	}
	return c.JSON(out)
}

// handleEvents returns recent triggers
func (s *Server) handleEvents(c *fiber.Ctx) error {
	return c.JSON(s.recentEvents())
}

// handleAction queues a remote key press
func (s *Server) handleAction(c *fiber.Ctx) error {
	name := c.Params("name")

	action, err := input.ParseAction(name)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := s.controls.Submit(action); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, input.ErrQueueFull) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"action": action.String(),
		"queued": true,
	})
}

// handleStatusWS streams status snapshots, starting with the latest one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.Serve(s.statusHub, c)
}

// handleEventsWS streams trigger events as they fire
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.Serve(s.eventHub, c)
}

// recentEvents returns a copy of the event history
func (s *Server) recentEvents() []trigger.Event {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	out := make([]trigger.Event, len(s.events))
	copy(out, s.events)
	return out
}
