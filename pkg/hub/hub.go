// Package hub fans JSON messages out to websocket clients.
//
// A hub created with Retain keeps its latest message and queues it for
// every client that joins, so a dashboard opened mid-session shows the
// current state before the next update arrives.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-memey/internal/log"
)

// queueSize bounds messages waiting for the Run loop.
const queueSize = 256

// Option configures a Hub.
type Option func(*Hub)

// Retain makes the hub replay its latest message to new clients.
func Retain() Option {
	return func(h *Hub) { h.retain = true }
}

// Hub owns a set of clients. Only Run touches the client set.
type Hub struct {
	name   string
	retain bool

	clients    map[*Client]struct{}
	publish    chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex // guards count and latest for readers outside Run
	count  int
	latest []byte

	dropped atomic.Uint64
}

// New creates a hub. name only appears in logs.
func New(name string, opts ...Option) *Hub {
	h := &Hub{
		name:       name,
		clients:    make(map[*Client]struct{}),
		publish:    make(chan []byte, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run delivers messages until ctx is cancelled, then disconnects every
// client. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			if latest := h.Latest(); latest != nil {
				h.deliver(c, latest)
			}
			log.Debug("client connected", "hub", h.name, "clients", h.setCount())

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
			log.Debug("client disconnected", "hub", h.name, "clients", h.setCount())

		case data := <-h.publish:
			for c := range h.clients {
				h.deliver(c, data)
			}
			h.setCount()
		}
	}
}

// deliver queues data for c, dropping c if it has fallen behind.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.drop(c)
		log.Warn("dropped slow client", "hub", h.name)
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) setCount() int {
	n := len(h.clients)
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
	return n
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Publish encodes v and queues it for every client. It never blocks; when
// the queue is full the message is dropped.
func (h *Hub) Publish(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if h.retain {
		h.mu.Lock()
		h.latest = data
		h.mu.Unlock()
	}

	select {
	case h.publish <- data:
	default:
		if h.dropped.Add(1)%100 == 1 {
			log.Warn("publish queue full, dropping messages", "hub", h.name, "dropped", h.dropped.Load())
		}
	}
	return nil
}

// Latest returns the retained message, or nil.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// join registers c unless the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c; a no-op once the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
