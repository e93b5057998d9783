package domain

import "time"

// CustomerTicketState labels a customer's view of one of their tickets.
type CustomerTicketState string

const (
	CustomerTicketOpen   CustomerTicketState = "OPEN"
	CustomerTicketClosed CustomerTicketState = "CLOSED"
)

// Customer is the domain model for end-users who open tickets. Tickets
// keeps one entry per ticket the customer ever opened, so a closed
// ticket's record survives re-opening a new one.
type Customer struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	Tickets      map[string]CustomerTicketState
	RegisterDate time.Time
	UpdatedAt    time.Time
}

// Clone returns a copy that shares no mutable state with the receiver.
func (c Customer) Clone() Customer {
	if c.Tickets != nil {
		tickets := make(map[string]CustomerTicketState, len(c.Tickets))
		for id, state := range c.Tickets {
			tickets[id] = state
		}
		c.Tickets = tickets
	}
	return c
}
