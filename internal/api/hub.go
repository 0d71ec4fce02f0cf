package api

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// clientBuffer is the number of queued messages per websocket client
const clientBuffer = 256

// client is one websocket subscriber
type client struct {
	id   string
	send chan []byte
}

// Hub fans messages out to the connected websocket clients
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub; call Run to start delivering messages
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, clientBuffer),
		log:        log,
		clients:    make(map[*client]struct{}),
	}
}

// Run delivers messages until ctx is done, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Str("client", c.id).Int("clients", total).Msg("websocket client connected")

		case c := <-h.unregister:
			h.remove(c)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow client
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues a message for every client. It never blocks; messages
// are dropped when the queue is full.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn().Msg("websocket broadcast queue full, dropping event")
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.Debug().Str("client", c.id).Int("clients", len(h.clients)).Msg("websocket client disconnected")
}
