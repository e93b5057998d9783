package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusUnassigned TicketStatus = "UNASSIGNED"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
)

// MaxPriority caps triage escalation.
const MaxPriority = 3

// TicketDeadline is the fixed window granted at creation, never recomputed.
const TicketDeadline = 24 * time.Hour

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Type        string
	CreatorID   string
	AssigneeID  *string
	Status      TicketStatus
	Priority    int
	Triaged     bool
	Deadline    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a copy that shares no mutable state with the receiver.
func (t Ticket) Clone() Ticket {
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		t.AssigneeID = &id
	}
	return t
}

// Active reports whether the ticket currently holds an assignee.
// Invariant: AssigneeID != nil exactly when Status is ASSIGNED or IN_PROGRESS.
func (t *Ticket) Active() bool {
	return t.Status == TicketStatusAssigned || t.Status == TicketStatusInProgress
}

// Terminal reports whether the ticket reached its final state.
func (t *Ticket) Terminal() bool {
	return t.Status == TicketStatusCompleted
}

// HeldBy reports whether agentID is the current assignee.
func (t *Ticket) HeldBy(agentID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == agentID && t.Active()
}

// RaisePriority escalates by one step, capped at MaxPriority.
func (t *Ticket) RaisePriority() {
	if t.Priority < MaxPriority {
		t.Priority++
	}
}

// ClampPriority bounds an explicit priority set to [0, MaxPriority].
func ClampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}
