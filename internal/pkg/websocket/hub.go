package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types pushed to batch job subscribers
const (
	EventSnapshot  = "snapshot"
	EventProgress  = "progress"
	EventCompleted = "completed"
)

// completedSendTimeout bounds how long Publish waits for buffer room for a completed event
const completedSendTimeout = 2 * time.Second

// Event is a message sent over WebSocket to everyone watching a job
type Event struct {
	Type      string    `json:"type"`
	JobID     string    `json:"jobId"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts job events to them
type Hub struct {
	// Registered clients organized by job ID
	clients map[string]map[*Client]bool

	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	completedTimeout time.Duration

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		logger:     logger,

		completedTimeout: completedSendTimeout,
	}
}

// Run handles registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.jobID]; !ok {
		h.clients[client.jobID] = make(map[*Client]bool)
	}
	h.clients[client.jobID][client] = true

	h.logger.Info().
		Str("jobID", client.jobID).
		Str("userID", client.userID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	room, ok := h.clients[client.jobID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.clients, client.jobID)
	}

	h.logger.Info().
		Str("jobID", client.jobID).
		Str("userID", client.userID).
		Msg("Client unregistered")
}

func marshalEvent(jobID, eventType string, data any) ([]byte, error) {
	return json.Marshal(&Event{Type: eventType, JobID: jobID, Data: data, Timestamp: time.Now().UTC()})
}

func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("jobID", event.JobID).Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.clients[event.JobID]
	if !ok {
		return
	}
	for client := range room {
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop it.
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("jobID", event.JobID).
		Str("type", event.Type).
		Int("clientCount", len(room)).
		Msg("Event broadcasted")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.clients {
		for client := range room {
			h.removeLocked(client)
		}
	}
}

// Publish queues an event for the job's subscribers. Progress events are dropped
// when the hub is saturated. A completed event is the last one a watcher gets,
// so Publish waits up to completedTimeout for room before giving up on it.
func (h *Hub) Publish(jobID, eventType string, data any) {
	event := &Event{Type: eventType, JobID: jobID, Data: data, Timestamp: time.Now().UTC()}
	select {
	case h.broadcast <- event:
		return
	default:
	}

	if eventType != EventCompleted {
		h.logger.Warn().Str("jobID", jobID).Str("type", eventType).Msg("Hub saturated, event dropped")
		return
	}

	timer := time.NewTimer(h.completedTimeout)
	defer timer.Stop()
	select {
	case h.broadcast <- event:
	case <-h.done:
	case <-timer.C:
		h.logger.Error().Str("jobID", jobID).Msg("Hub saturated, completed event dropped")
	}
}

// attach registers a client unless the hub has stopped
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach unregisters a client unless the hub has stopped
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of clients watching a job
func (h *Hub) ClientCount(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}
