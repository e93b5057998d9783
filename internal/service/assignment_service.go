package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AssignmentService links agent availability to ticket assignment and
// break eligibility. Self-assign races are resolved by conditional
// store updates, never by check-then-act over separate calls; the
// registry is only updated after the store confirms.
type AssignmentService struct {
	reg        *registry.Registry
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	breaks     repository.BreakRepository
	settings   repository.BreakSettingsRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Registry     *registry.Registry
	TicketRepo   repository.TicketRepository
	AgentRepo    repository.AgentRepository
	BreakRepo    repository.BreakRepository
	SettingsRepo repository.BreakSettingsRepository
	Dispatcher   events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		reg:        deps.Registry,
		tickets:    deps.TicketRepo,
		agents:     deps.AgentRepo,
		breaks:     deps.BreakRepo,
		settings:   deps.SettingsRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// SelfAssign claims an unassigned ticket for the agent. An agent
// already holding a ticket or on a running break may not claim.
// Exactly one of two concurrent claims on the same ticket succeeds;
// the loser sees AlreadyAssigned. The agent hold is reserved first and
// compensated if the ticket claim loses the race, so no partial state
// is ever visible.
func (s *AssignmentService) SelfAssign(ctx context.Context, agentID, ticketID string) (*domain.Ticket, error) {
	agent, ok := s.reg.Agent(agentID)
	if !ok {
		return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
	}
	current, ok := s.reg.Ticket(ticketID)
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	// Fast-path rejections from the mirror. The store conditions below
	// remain authoritative under interleaving.
	if current.Status != domain.TicketStatusUnassigned {
		return nil, apperrors.NewAlreadyAssigned(ticketID)
	}
	if agent.TicketID != nil {
		return nil, apperrors.NewAgentBusy(agentID)
	}
	if agent.OnBreak {
		if err := s.clearExpiredBreak(ctx, &agent); err != nil {
			return nil, err
		}
		if agent.OnBreak {
			return nil, apperrors.NewAgentOnBreak(agentID)
		}
	}
	if current.Triaged && !agent.CanViewTriaged() {
		return nil, apperrors.NewForbidden("triaged tickets require access level 2")
	}

	if err := s.agents.ClaimTicket(ctx, agentID, ticketID); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, apperrors.NewAgentBusy(agentID)
		}
		return nil, apperrors.NewStorageError(err)
	}

	ticket, err := s.tickets.ClaimForAgent(ctx, ticketID, agentID)
	if err != nil {
		// lost the race for the ticket: compensate the agent reservation
		if releaseErr := s.agents.ReleaseTicket(ctx, agentID, ticketID); releaseErr != nil && !errors.Is(releaseErr, repository.ErrConditionFailed) {
			return nil, apperrors.NewStorageError(releaseErr)
		}
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, apperrors.NewAlreadyAssigned(ticketID)
		}
		return nil, apperrors.NewStorageError(err)
	}

	s.reg.SetAgentHold(agentID, &ticket.ID)
	s.reg.PutTicket(*ticket)

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID,
		Actor:    events.Actor{Type: domain.SubjectTypeAgent, ID: agentID},
		Payload:  events.TicketAssignedPayload{AgentID: agentID},
	})
	return ticket, nil
}

// BreakStatus is the outcome of a break request.
type BreakStatus struct {
	AlreadyOnBreak bool
	BreakNumber    int
	StartedAt      time.Time
	EndsAt         time.Time
	Remaining      time.Duration
}

// StartBreak begins a break for the agent if the working-hours window
// and the daily frequency allow it. An unexpired running break returns
// an informational status, not an error. Policy values are read from
// the store on every call so admin changes apply immediately.
func (s *AssignmentService) StartBreak(ctx context.Context, agentID string) (*BreakStatus, error) {
	agent, ok := s.reg.Agent(agentID)
	if !ok {
		return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
	}

	now := s.now()
	if !agent.WorkingAt(now) {
		return nil, apperrors.NewOutsideWorkingHours(agentID)
	}

	day := startOfDay(now)
	if err := s.breaks.PurgeBefore(ctx, agentID, day); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	latest, err := s.breaks.LatestForDay(ctx, agentID, day)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	running := latest != nil && now.Before(latest.BreakStart.Add(settings.Duration()))
	if !running && agent.OnBreak {
		// previous break ran out; reconcile the flag lazily
		if err := s.setOnBreak(ctx, &agent, false); err != nil {
			return nil, err
		}
	}

	// The frequency limit is checked before reporting a running break:
	// an agent on the last allowed break gets the rejection, not the
	// informational status.
	count, err := s.breaks.CountForDay(ctx, agentID, day)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if count >= settings.DailyFrequency {
		return nil, apperrors.NewBreakLimitExceeded(agentID, settings.DailyFrequency)
	}
	if running {
		endsAt := latest.BreakStart.Add(settings.Duration())
		return &BreakStatus{
			AlreadyOnBreak: true,
			BreakNumber:    latest.BreakNumber,
			StartedAt:      latest.BreakStart,
			EndsAt:         endsAt,
			Remaining:      endsAt.Sub(now),
		}, nil
	}

	record := &domain.BreakRecord{
		AgentID:     agentID,
		BreakDate:   day,
		BreakNumber: count + 1,
		BreakStart:  now,
	}
	if err := s.breaks.Insert(ctx, record); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if err := s.setOnBreak(ctx, &agent, true); err != nil {
		return nil, err
	}

	endsAt := now.Add(settings.Duration())
	s.publish(ctx, events.Event{
		Type:  events.EventBreakStarted,
		Actor: events.Actor{Type: domain.SubjectTypeAgent, ID: agentID},
		Payload: events.BreakStartedPayload{
			AgentID:     agentID,
			BreakNumber: record.BreakNumber,
			EndsAt:      endsAt,
		},
	})
	return &BreakStatus{
		BreakNumber: record.BreakNumber,
		StartedAt:   now,
		EndsAt:      endsAt,
		Remaining:   settings.Duration(),
	}, nil
}

// AvailabilityOf derives the agent's current availability from the two
// independent causes, reconciling a stale on-break flag against the
// latest break record at read time.
func (s *AssignmentService) AvailabilityOf(ctx context.Context, agentID string) (domain.Availability, error) {
	agent, ok := s.reg.Agent(agentID)
	if !ok {
		return "", apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
	}
	if agent.OnBreak {
		if err := s.clearExpiredBreak(ctx, &agent); err != nil {
			return "", err
		}
	}
	return agent.Availability(), nil
}

// clearExpiredBreak drops a stale on-break flag when the latest break
// record has already run out. The caller's agent copy is updated in place.
func (s *AssignmentService) clearExpiredBreak(ctx context.Context, agent *domain.Agent) error {
	now := s.now()
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	latest, err := s.breaks.LatestForDay(ctx, agent.ID, startOfDay(now))
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	if latest == nil || !now.Before(latest.BreakStart.Add(settings.Duration())) {
		return s.setOnBreak(ctx, agent, false)
	}
	return nil
}

// ConfigureBreaks updates the process-wide break policy.
func (s *AssignmentService) ConfigureBreaks(ctx context.Context, durationMinutes, dailyFrequency int) error {
	if durationMinutes <= 0 || dailyFrequency <= 0 {
		return apperrors.NewValidationError("duration and frequency must be positive", nil)
	}
	settings := domain.BreakSettings{
		DurationMinutes: durationMinutes,
		DailyFrequency:  dailyFrequency,
	}
	if err := s.settings.Update(ctx, settings); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (s *AssignmentService) setOnBreak(ctx context.Context, agent *domain.Agent, onBreak bool) error {
	if err := s.agents.SetOnBreak(ctx, agent.ID, onBreak); err != nil {
		return apperrors.NewStorageError(err)
	}
	agent.OnBreak = onBreak
	s.reg.SetAgentOnBreak(agent.ID, onBreak)
	return nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
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
