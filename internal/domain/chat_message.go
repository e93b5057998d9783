package domain

import "time"

// ChatMessage is one persisted chat entry. SenderID nil means the
// ticket's customer authored it; otherwise it holds the agent id.
// Only ciphertext is ever persisted.
type ChatMessage struct {
	ID         string
	TicketID   string
	SenderID   *string
	Ciphertext []byte
	CreatedAt  time.Time
}
