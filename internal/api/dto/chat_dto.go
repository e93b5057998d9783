package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// ChatSendRequest is the inbound websocket frame.
type ChatSendRequest struct {
	Body string `json:"body"`
}

// ChatMessageResponse is a decrypted chat item. SenderID is null for
// customer messages.
type ChatMessageResponse struct {
	MessageID string    `json:"message_id"`
	SenderID  *string   `json:"sender_id"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// ChatHistoryResponse wraps the ordered transcript.
type ChatHistoryResponse struct {
	TicketID string                `json:"ticket_id"`
	Messages []ChatMessageResponse `json:"messages"`
}

// NewChatMessageResponse maps a history entry.
func NewChatMessageResponse(entry service.ChatEntry) ChatMessageResponse {
	return ChatMessageResponse{
		MessageID: entry.MessageID,
		SenderID:  entry.SenderID,
		Body:      entry.Body,
		SentAt:    entry.SentAt,
	}
}
