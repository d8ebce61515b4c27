package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

// EventPricingReload tells dashboards to refetch pricing data.
const EventPricingReload EventType = "pricing.reload"

// PricingEvent is the payload broadcast to admin SSE clients after a
// pricing mutation, whether it succeeded or not.
type PricingEvent struct {
	Event     EventType `json:"event"`
	Scope     string    `json:"scope"`
	VisaIDs   []string  `json:"visaIds,omitempty"`
	Failed    bool      `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

const clientBuffer = 16

// Client is one connected dashboard stream.
type Client struct {
	ID          string
	Events      chan []byte
	ConnectedAt time.Time
}

// Hub fans pricing events out to connected dashboards.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a client. A reconnect with the same id replaces and closes
// the previous stream.
func (h *Hub) Register(clientID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old.Events)
	}
	c := &Client{ID: clientID, Events: make(chan []byte, clientBuffer), ConnectedAt: time.Now()}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes c if it is still the registered stream for its id.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.ID]; ok && cur == c {
		close(c.Events)
		delete(h.clients, c.ID)
		log.Info().Str("client_id", c.ID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Broadcast queues event on every client and returns how many received it.
// A client with a full buffer misses the event; the next reload covers it.
func (h *Hub) Broadcast(event *PricingEvent) int {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.clients {
		select {
		case c.Events <- data:
			delivered++
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
	return delivered
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
