package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// TicketResponse is the canonical ticket view.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        string              `json:"type"`
	CreatorID   string              `json:"creator_id"`
	AssigneeID  *string             `json:"assignee_id"`
	Status      domain.TicketStatus `json:"status"`
	Priority    int                 `json:"priority"`
	Triaged     bool                `json:"triaged"`
	Deadline    time.Time           `json:"deadline"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TicketListResponse wraps the visible ticket set.
type TicketListResponse struct {
	Items []TicketResponse `json:"items"`
	Count int              `json:"count"`
}

// NewTicketResponse maps the domain aggregate.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Type:        ticket.Type,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		Triaged:     ticket.Triaged,
		Deadline:    ticket.Deadline,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketListResponse maps a slice of tickets.
func NewTicketListResponse(tickets []domain.Ticket) TicketListResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return TicketListResponse{Items: items, Count: len(items)}
}
