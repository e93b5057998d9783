package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
)

// LifecycleService owns the ticket state machine: creation, triage,
// close, drop and visibility. Every mutation writes the store first and
// mirrors into the registry only after the store confirms.
type LifecycleService struct {
	reg        *registry.Registry
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	customers  repository.CustomerRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators.
type LifecycleDependencies struct {
	Registry     *registry.Registry
	TicketRepo   repository.TicketRepository
	AgentRepo    repository.AgentRepository
	CustomerRepo repository.CustomerRepository
	Dispatcher   events.Dispatcher
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		reg:        deps.Registry,
		tickets:    deps.TicketRepo,
		agents:     deps.AgentRepo,
		customers:  deps.CustomerRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Type        string
}

// CreateTicket opens a new unassigned ticket for a customer. The
// deadline is fixed at creation time and never recomputed.
func (s *LifecycleService) CreateTicket(ctx context.Context, customerID string, input TicketCreateInput) (*domain.Ticket, error) {
	if _, ok := s.reg.Customer(customerID); !ok {
		return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
	}
	if err := validateTicketInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Type:        strings.TrimSpace(input.Type),
		CreatorID:   customerID,
		Status:      domain.TicketStatusUnassigned,
		Priority:    0,
		Triaged:     false,
		Deadline:    now.Add(domain.TicketDeadline),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutTicket(*ticket)

	if err := s.customers.SetTicketState(ctx, customerID, ticket.ID, domain.CustomerTicketOpen); err != nil {
		// ticket row exists; surface the failure without losing it
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.SetCustomerTicketState(customerID, ticket.ID, domain.CustomerTicketOpen)

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.SubjectTypeCustomer, ID: customerID},
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Type:     ticket.Type,
			Deadline: ticket.Deadline,
		},
	})
	return ticket, nil
}

// Triage escalates priority by one (capped), flags the ticket and
// returns it to the unassigned pool. Only the current assignee may
// triage. The assignee's availability recovers unless they are
// independently on break.
func (s *LifecycleService) Triage(ctx context.Context, agentID, ticketID string) (*domain.Ticket, error) {
	current, ok := s.reg.Ticket(ticketID)
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !current.HeldBy(agentID) {
		return nil, apperrors.NewNotAssigned(ticketID)
	}

	priority := current.Priority
	if priority < domain.MaxPriority {
		priority++
	}
	ticket, err := s.tickets.Release(ctx, ticketID, agentID, priority, true)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, apperrors.NewNotAssigned(ticketID)
		}
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutTicket(*ticket)

	if err := s.releaseAgentHold(ctx, agentID, ticketID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketTriaged,
		TicketID: ticketID,
		Actor:    events.Actor{Type: domain.SubjectTypeAgent, ID: agentID},
		Payload:  events.TicketTriagedPayload{NewPriority: ticket.Priority},
	})
	return ticket, nil
}

// Close completes the ticket. Terminal: no further transitions are
// permitted. The customer is notified through the event pipeline;
// notification failure never rolls the close back.
func (s *LifecycleService) Close(ctx context.Context, agentID, ticketID string) (*domain.Ticket, error) {
	current, ok := s.reg.Ticket(ticketID)
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !current.HeldBy(agentID) {
		return nil, apperrors.NewNotAssigned(ticketID)
	}

	ticket, err := s.tickets.Complete(ctx, ticketID, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, apperrors.NewNotAssigned(ticketID)
		}
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutTicket(*ticket)

	if err := s.releaseAgentHold(ctx, agentID, ticketID); err != nil {
		return nil, err
	}

	if err := s.customers.SetTicketState(ctx, ticket.CreatorID, ticketID, domain.CustomerTicketClosed); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.SetCustomerTicketState(ticket.CreatorID, ticketID, domain.CustomerTicketClosed)
	customer, _ := s.reg.Customer(ticket.CreatorID)

	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticketID,
		Actor:    events.Actor{Type: domain.SubjectTypeAgent, ID: agentID},
		Payload: events.TicketClosedPayload{
			CustomerID:    ticket.CreatorID,
			CustomerEmail: customer.Email,
			Title:         ticket.Title,
		},
	})
	return ticket, nil
}

// Drop returns the ticket to the pool without touching priority or the
// triage flag: a dropped triaged ticket stays triaged at its raised
// priority.
func (s *LifecycleService) Drop(ctx context.Context, agentID, ticketID string) (*domain.Ticket, error) {
	current, ok := s.reg.Ticket(ticketID)
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !current.HeldBy(agentID) {
		return nil, apperrors.NewNotAssigned(ticketID)
	}

	ticket, err := s.tickets.Release(ctx, ticketID, agentID, current.Priority, current.Triaged)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, apperrors.NewNotAssigned(ticketID)
		}
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutTicket(*ticket)

	if err := s.releaseAgentHold(ctx, agentID, ticketID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketDropped,
		TicketID: ticketID,
		Actor:    events.Actor{Type: domain.SubjectTypeAgent, ID: agentID},
	})
	return ticket, nil
}

// StartProgress moves the agent's held ticket from ASSIGNED to
// IN_PROGRESS. The assignee invariant is unchanged.
func (s *LifecycleService) StartProgress(ctx context.Context, agentID, ticketID string) (*domain.Ticket, error) {
	current, ok := s.reg.Ticket(ticketID)
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !current.HeldBy(agentID) {
		return nil, apperrors.NewNotAssigned(ticketID)
	}

	ticket, err := s.tickets.SetStatus(ctx, ticketID, agentID, domain.TicketStatusInProgress)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, apperrors.NewNotAssigned(ticketID)
		}
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutTicket(*ticket)
	return ticket, nil
}

// Actor identifies the caller for visibility filtering.
type Actor struct {
	Type        domain.SubjectType
	ID          string
	AccessLevel int
}

// ListVisible returns every ticket except triaged ones for level-1
// agents. No ordering beyond store-assigned creation order is implied;
// priority and the triage flag are advisory client-side signals.
func (s *LifecycleService) ListVisible(actor Actor) []domain.Ticket {
	tickets := s.reg.Tickets()
	if actor.Type != domain.SubjectTypeAgent || actor.AccessLevel > 1 {
		return tickets
	}
	visible := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.Triaged {
			continue
		}
		visible = append(visible, ticket)
	}
	return visible
}

// DeleteTicket destroys a ticket record. Administrative only; not part
// of the lifecycle state machine.
func (s *LifecycleService) DeleteTicket(ctx context.Context, ticketID string) error {
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.NewStorageError(err)
	}
	s.reg.DeleteTicket(ticketID)
	return nil
}

// releaseAgentHold clears the agent's ticket hold in store then registry.
func (s *LifecycleService) releaseAgentHold(ctx context.Context, agentID, ticketID string) error {
	if err := s.agents.ReleaseTicket(ctx, agentID, ticketID); err != nil {
		if !errors.Is(err, repository.ErrConditionFailed) {
			return apperrors.NewStorageError(err)
		}
		// hold already cleared; registry refresh below still applies
	}
	s.reg.SetAgentHold(agentID, nil)
	return nil
}

func validateTicketInput(input TicketCreateInput) error {
	details := map[string]any{}
	title := strings.TrimSpace(input.Title)
	desc := strings.TrimSpace(input.Description)
	if title == "" || len(title) > maxTitleLen {
		details["title"] = "must be 1-200 characters"
	}
	if desc == "" || len(desc) > maxDescriptionLen {
		details["description"] = "must be 1-2000 characters"
	}
	if strings.TrimSpace(input.Type) == "" {
		details["type"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket fields", details)
	}
	return nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
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
