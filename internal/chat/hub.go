// Package chat implements the per-ticket real-time messaging channel:
// room membership, ordered fan-out, and encryption at rest.
package chat

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is the plaintext fan-out unit delivered to room participants.
// SenderID nil means the ticket's customer sent it.
type Event struct {
	TicketID  string    `json:"ticket_id"`
	MessageID string    `json:"message_id"`
	SenderID  *string   `json:"sender_id,omitempty"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// memberBuffer bounds undelivered events per participant. A participant
// that falls behind loses pushes and recovers via history replay.
const memberBuffer = 32

// Hub owns one room per ticket with an active chat. Rooms are created on
// first join and removed when the last participant leaves; there is no
// explicit close operation.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	logger *zap.Logger
}

type room struct {
	mu      sync.Mutex
	members map[string]chan Event
	order   []string
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{rooms: make(map[string]*room), logger: logger}
}

// Join admits a participant to the ticket's room and returns their event
// stream. Joining twice with the same key is a no-op returning the
// existing stream; the second return reports whether the membership
// already existed.
func (h *Hub) Join(ticketID, participantKey string) (<-chan Event, bool) {
	h.mu.Lock()
	rm, ok := h.rooms[ticketID]
	if !ok {
		rm = &room{members: make(map[string]chan Event)}
		h.rooms[ticketID] = rm
	}
	h.mu.Unlock()

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if ch, exists := rm.members[participantKey]; exists {
		return ch, true
	}
	ch := make(chan Event, memberBuffer)
	rm.members[participantKey] = ch
	rm.order = append(rm.order, participantKey)
	return ch, false
}

// Leave removes a participant and closes their stream. The room is torn
// down when its last member leaves.
func (h *Hub) Leave(ticketID, participantKey string) {
	h.mu.Lock()
	rm, ok := h.rooms[ticketID]
	h.mu.Unlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	ch, exists := rm.members[participantKey]
	if exists {
		delete(rm.members, participantKey)
		for i, key := range rm.order {
			if key == participantKey {
				rm.order = append(rm.order[:i], rm.order[i+1:]...)
				break
			}
		}
		close(ch)
	}
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if empty {
		h.mu.Lock()
		if current, ok := h.rooms[ticketID]; ok && current == rm {
			delete(h.rooms, ticketID)
		}
		h.mu.Unlock()
	}
}

// Deliver fans the event out to every current room participant, sender
// included. The room mutex is the single sequencing point: all members
// observe events in the same order. A member whose buffer is full misses
// the push and recovers through history.
func (h *Hub) Deliver(event Event) {
	h.mu.RLock()
	rm, ok := h.rooms[event.TicketID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, key := range rm.order {
		ch := rm.members[key]
		select {
		case ch <- event:
		default:
			h.logger.Warn("chat event dropped for slow participant",
				zap.String("ticket_id", event.TicketID),
				zap.String("participant", key),
			)
		}
	}
}

// Members returns the current participant count for the ticket's room.
func (h *Hub) Members(ticketID string) int {
	h.mu.RLock()
	rm, ok := h.rooms[ticketID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}
