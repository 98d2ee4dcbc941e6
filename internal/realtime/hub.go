// Package realtime fans note events out to the connections viewing a project.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/metrics"
)

// ErrClientClosed is returned when joining with a client the hub already dropped
var ErrClientClosed = errors.New("realtime client closed")

// Broker relays events to hub instances in other processes
type Broker interface {
	Publish(ctx context.Context, event Event) error
}

// room is the set of clients viewing one project. seq and delivery are guarded
// by mu so publishes to a room are queued in call order.
type room struct {
	mu      sync.Mutex
	seq     uint64
	clients map[*Client]struct{}
}

// Hub tracks project rooms and their clients
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]*room
	members map[*Client]map[string]struct{}

	broker Broker
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]*room),
		members: make(map[*Client]map[string]struct{}),
		logger:  logger,
	}
}

// SetBroker enables cross-instance fan-out. Call before serving traffic.
func (h *Hub) SetBroker(b Broker) {
	h.broker = b
}

// Join adds client to the project's room. Joining twice is a no-op.
func (h *Hub) Join(client *Client, projectID string) error {
	if client.closed() {
		return ErrClientClosed
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	joined, registered := h.members[client]
	if !registered {
		joined = make(map[string]struct{})
		h.members[client] = joined
		metrics.RealtimeConnections.Inc()
	}
	if _, ok := joined[projectID]; ok {
		return nil
	}

	r, ok := h.rooms[projectID]
	if !ok {
		r = &room{clients: make(map[*Client]struct{})}
		h.rooms[projectID] = r
	}

	r.mu.Lock()
	r.clients[client] = struct{}{}
	r.mu.Unlock()
	joined[projectID] = struct{}{}

	h.logger.Debug("client joined project",
		"client_id", client.ID(),
		"actor_id", client.ActorID(),
		"project_id", projectID,
	)
	return nil
}

// Leave removes client from the project's room
func (h *Hub) Leave(client *Client, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.members[client]
	if !ok {
		return
	}
	if _, ok := joined[projectID]; !ok {
		return
	}
	delete(joined, projectID)
	h.leaveRoomLocked(client, projectID)
}

// Remove drops client from every room and closes it. Used on disconnect.
func (h *Hub) Remove(client *Client) {
	client.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.members[client]
	if !ok {
		return
	}
	for projectID := range joined {
		h.leaveRoomLocked(client, projectID)
	}
	delete(h.members, client)
	metrics.RealtimeConnections.Dec()
}

// leaveRoomLocked requires h.mu
func (h *Hub) leaveRoomLocked(client *Client, projectID string) {
	r, ok := h.rooms[projectID]
	if !ok {
		return
	}

	r.mu.Lock()
	delete(r.clients, client)
	empty := len(r.clients) == 0
	r.mu.Unlock()

	if empty {
		delete(h.rooms, projectID)
	}
}

// Publish delivers event to every client in the project's room, the author's
// own connections included, then hands it to the broker if one is set.
// Local delivery never blocks: a client whose queue is full is dropped.
// The returned error only reports broker failures.
func (h *Hub) Publish(ctx context.Context, projectID string, event Event) error {
	event.ProjectID = projectID
	h.deliver(event)

	if h.broker == nil {
		return nil
	}
	if err := h.broker.Publish(ctx, event); err != nil {
		metrics.TrackPublishFailure(string(event.Type))
		return fmt.Errorf("relay %s: %w", event.Type, err)
	}
	return nil
}

// DeliverLocal fans out an event received from the broker to local clients only
func (h *Hub) DeliverLocal(event Event) {
	h.deliver(event)
}

func (h *Hub) deliver(event Event) {
	h.mu.RLock()
	r, ok := h.rooms[event.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	var dropped []*Client

	r.mu.Lock()
	r.seq++
	seq := r.seq
	rendered := make(map[notes.Role]Message, 2)
	for client := range r.clients {
		if client.closed() {
			continue
		}
		// only admin and non-admin renderings differ
		key := notes.RoleClient
		if client.Role().IsAdmin() {
			key = notes.RoleAdmin
		}
		msg, ok := rendered[key]
		if !ok {
			msg = event.render(seq, key)
			rendered[key] = msg
		}

		if client.enqueue(msg) {
			metrics.TrackDelivered(string(event.Type))
			continue
		}
		client.Close()
		dropped = append(dropped, client)
	}
	r.mu.Unlock()

	for _, client := range dropped {
		h.logger.Warn("realtime client queue full, disconnecting",
			"client_id", client.ID(),
			"actor_id", client.ActorID(),
			"project_id", event.ProjectID,
		)
		metrics.RealtimeClientsDropped.Inc()
		h.Remove(client)
	}
}

// RoomSize returns the number of clients joined to a project
func (h *Hub) RoomSize(projectID string) int {
	h.mu.RLock()
	r, ok := h.rooms[projectID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
