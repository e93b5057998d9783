package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketTriaged  EventType = "ticket_triaged"
	EventTicketClosed   EventType = "ticket_closed"
	EventTicketDropped  EventType = "ticket_dropped"
	EventChatMessage    EventType = "chat_message_sent"
	EventBreakStarted   EventType = "break_started"
	EventCodeIssued     EventType = "verification_code_issued"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.SubjectType `json:"type"`
	ID   string             `json:"id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string    `json:"title"`
	Type     string    `json:"type"`
	Deadline time.Time `json:"deadline"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID string `json:"agent_id"`
}

// TicketTriagedPayload payload.
type TicketTriagedPayload struct {
	NewPriority int `json:"new_priority"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	Title         string `json:"title"`
}

// ChatMessagePayload payload. Carries only a preview, never the full body.
type ChatMessagePayload struct {
	MessageID   string  `json:"message_id"`
	SenderID    *string `json:"sender_id,omitempty"`
	BodyPreview string  `json:"body_preview"`
}

// BreakStartedPayload payload.
type BreakStartedPayload struct {
	AgentID     string    `json:"agent_id"`
	BreakNumber int       `json:"break_number"`
	EndsAt      time.Time `json:"ends_at"`
}

// CodeIssuedPayload payload. The code itself is never published.
type CodeIssuedPayload struct {
	Email   string                     `json:"email"`
	Purpose domain.VerificationPurpose `json:"purpose"`
}
