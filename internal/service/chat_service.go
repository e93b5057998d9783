package service

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/chat"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ChatService binds a ticket's customer and current assignee into one
// room. Authorization is computed from the ticket's current state at
// call time, never cached, so a room goes inert the moment the ticket
// completes or returns to the pool.
type ChatService struct {
	reg         *registry.Registry
	messages    repository.MessageRepository
	hub         *chat.Hub
	broadcaster chat.Broadcaster
	cipher      *chat.Cipher
	dispatcher  events.Dispatcher
	maxBytes    int
	now         func() time.Time
}

// ChatDependencies bundles collaborators.
type ChatDependencies struct {
	Registry    *registry.Registry
	MessageRepo repository.MessageRepository
	Hub         *chat.Hub
	Broadcaster chat.Broadcaster
	Cipher      *chat.Cipher
	Dispatcher  events.Dispatcher
	MaxBytes    int
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	maxBytes := deps.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 2000
	}
	return &ChatService{
		reg:         deps.Registry,
		messages:    deps.MessageRepo,
		hub:         deps.Hub,
		broadcaster: deps.Broadcaster,
		cipher:      deps.Cipher,
		dispatcher:  deps.Dispatcher,
		maxBytes:    maxBytes,
		now:         time.Now,
	}
}

// Participant identifies a chat caller.
type Participant struct {
	Type domain.SubjectType
	ID   string
}

func (p Participant) key() string {
	return strings.ToLower(string(p.Type)) + ":" + p.ID
}

// ChatEntry is a decrypted history item.
type ChatEntry struct {
	MessageID string
	SenderID  *string
	Body      string
	SentAt    time.Time
}

// Join admits the participant to the ticket's room. Idempotent: a
// second join with the same identity returns the existing stream.
func (s *ChatService) Join(ticketID string, p Participant) (<-chan chat.Event, error) {
	if err := s.authorize(ticketID, p); err != nil {
		return nil, err
	}
	stream, _ := s.hub.Join(ticketID, p.key())
	return stream, nil
}

// Leave removes the participant from the room.
func (s *ChatService) Leave(ticketID string, p Participant) {
	s.hub.Leave(ticketID, p.key())
}

// Send validates, encrypts and persists the message, then fans the
// plaintext event out to all current room participants, sender
// included, in acceptance order.
func (s *ChatService) Send(ctx context.Context, ticketID string, p Participant, body string) (*ChatEntry, error) {
	if err := s.authorize(ticketID, p); err != nil {
		return nil, err
	}
	if err := s.validateBody(body); err != nil {
		return nil, err
	}

	var senderID *string
	if p.Type == domain.SubjectTypeAgent {
		id := p.ID
		senderID = &id
	}

	msg := &domain.ChatMessage{
		TicketID:   ticketID,
		SenderID:   senderID,
		Ciphertext: s.cipher.Encrypt(body),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	event := chat.Event{
		TicketID:  ticketID,
		MessageID: msg.ID,
		SenderID:  senderID,
		Body:      body,
		SentAt:    msg.CreatedAt,
	}
	if err := s.broadcaster.Broadcast(ctx, event); err != nil {
		// message is durable; fan-out loss is recovered via history
		return nil, apperrors.NewDispatchError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventChatMessage,
		TicketID: ticketID,
		Actor:    events.Actor{Type: p.Type, ID: p.ID},
		Payload: events.ChatMessagePayload{
			MessageID:   msg.ID,
			SenderID:    senderID,
			BodyPreview: preview(body, 120),
		},
	})
	return &ChatEntry{MessageID: msg.ID, SenderID: senderID, Body: body, SentAt: msg.CreatedAt}, nil
}

// History returns all persisted messages for the ticket, decrypted, in
// storage order. A reconnecting participant replays missed pushes here.
func (s *ChatService) History(ctx context.Context, ticketID string, p Participant) ([]ChatEntry, error) {
	if err := s.authorizeHistory(ticketID, p); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	entries := make([]ChatEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, ChatEntry{
			MessageID: msg.ID,
			SenderID:  msg.SenderID,
			Body:      s.cipher.Decrypt(msg.Ciphertext),
			SentAt:    msg.CreatedAt,
		})
	}
	return entries, nil
}

// authorize admits only the ticket's customer or its current assignee.
func (s *ChatService) authorize(ticketID string, p Participant) error {
	ticket, ok := s.reg.Ticket(ticketID)
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	switch p.Type {
	case domain.SubjectTypeCustomer:
		if ticket.CreatorID == p.ID {
			return nil
		}
	case domain.SubjectTypeAgent:
		if ticket.HeldBy(p.ID) {
			return nil
		}
	}
	return apperrors.NewUnauthorized("not a participant of this ticket")
}

// authorizeHistory additionally admits the ticket's customer after
// completion and administrators.
func (s *ChatService) authorizeHistory(ticketID string, p Participant) error {
	if p.Type == domain.SubjectTypeAdmin {
		if _, ok := s.reg.Admin(p.ID); ok {
			return nil
		}
		return apperrors.NewUnauthorized("unknown admin")
	}
	return s.authorize(ticketID, p)
}

func (s *ChatService) validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return apperrors.NewValidationError("message body required", nil)
	}
	if len(body) > s.maxBytes {
		return apperrors.NewValidationError("message too long", map[string]any{"max_bytes": s.maxBytes})
	}
	if !utf8.ValidString(body) {
		return apperrors.NewValidationError("message must be valid UTF-8", nil)
	}
	for _, r := range body {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return apperrors.NewValidationError("message contains control characters", nil)
		}
	}
	return nil
}

// preview truncates to at most max bytes, cutting on a rune boundary so
// multi-byte characters are never split.
func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	cut := max
	if max > 3 {
		cut = max - 3
	}
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	if max <= 3 {
		return body[:cut]
	}
	return body[:cut] + "..."
}

func (s *ChatService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
