// Package hub fans progress events out to line-oriented writers.
//
// Every event is encoded as one JSON object per line, so a wrapper script
// can follow a discovery or rollout while it runs.
package hub

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Message is what a client receives for every broadcast event
type Message struct {
	Time  time.Time   `json:"time"`
	Event interface{} `json:"event"`
}

// Client is one registered output stream
type Client struct {
	id  int
	out io.Writer
}

// Hub manages output streams
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	nextID    int
	broadcast chan Message
	closed    bool
	done      chan struct{}
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a new Hub
func New(logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Message, 256),
		done:      make(chan struct{}),
		logger:    logger,
		now:       time.Now,
	}
}

// Register adds out as a client and returns it
func (h *Hub) Register(out io.Writer) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	client := &Client{id: h.nextID, out: out}
	h.clients[client] = struct{}{}
	h.logger.Debug("event client registered", zap.Int("client", client.id), zap.Int("total", len(h.clients)))
	return client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Run starts the hub's event loop. It returns once Close has been called
// and every queued event has been written.
func (h *Hub) Run() {
	defer close(h.done)
	for msg := range h.broadcast {
		data, err := json.Marshal(msg)
		if err != nil {
			h.logger.Warn("failed to marshal event", zap.Error(err))
			continue
		}
		data = append(data, '\n')

		h.mu.RLock()
		for client := range h.clients {
			if _, err := client.out.Write(data); err != nil {
				h.logger.Debug("event client write failed", zap.Int("client", client.id), zap.Error(err))
			}
		}
		h.mu.RUnlock()
	}
}

// Broadcast queues an event for every client. Events are dropped when the
// queue is full or the hub is closed.
func (h *Hub) Broadcast(event interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.broadcast <- Message{Time: h.now().UTC(), Event: event}:
	default:
		h.logger.Warn("broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops accepting events and waits for Run to flush the queue
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.broadcast)
	h.mu.Unlock()
	<-h.done
}
