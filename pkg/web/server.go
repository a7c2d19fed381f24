// Package web serves an optional dashboard for a running session: status,
// the emotion library, recent triggers and remote key presses.
package web

import (
	"context"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/assets"
	"github.com/teslashibe/go-memey/pkg/hub"
	"github.com/teslashibe/go-memey/pkg/input"
	"github.com/teslashibe/go-memey/pkg/session"
	"github.com/teslashibe/go-memey/pkg/trigger"
)

// maxRecentEvents bounds the trigger history kept for /api/events
const maxRecentEvents = 50

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	addr string

	controls *input.Controller
	library  *assets.Library

	// Latest snapshot from the session loop
	status   session.Status
	statusMu sync.RWMutex

	// Recent trigger events, oldest first
	events   []trigger.Event
	eventsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	eventHub  *hub.Hub
}

// NewServer creates a dashboard that queues actions on controls.
func NewServer(addr string, controls *input.Controller, library *assets.Library) *Server {
	s := &Server{
		addr:      addr,
		controls:  controls,
		library:   library,
		events:    make([]trigger.Event, 0, maxRecentEvents),
		statusHub: hub.New("status", hub.Retain()),
		eventHub:  hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Memey Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/emotions", s.handleEmotions)
	api.Get("/events", s.handleEvents)
	api.Post("/actions/:name", s.handleAction)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until the listener fails or Shutdown is
// called. The hubs stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info("web dashboard listening", "addr", s.addr)

	go s.statusHub.Run(ctx)
	go s.eventHub.Run(ctx)

	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishStatus stores the snapshot and broadcasts it.
func (s *Server) PublishStatus(st session.Status) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	if err := s.statusHub.Publish(st); err != nil {
		log.Warn("encode status", "error", err)
	}
}

// PublishEvent records the trigger and broadcasts it.
func (s *Server) PublishEvent(ev trigger.Event) {
	s.eventsMu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > maxRecentEvents {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	if err := s.eventHub.Publish(ev); err != nil {
		log.Warn("encode event", "error", err)
	}
}

var _ session.Publisher = (*Server)(nil)
