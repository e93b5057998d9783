package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// In-memory repositories with the same conditional-update semantics as
// the SQL implementations. All mutations are mutex-guarded so the
// concurrency tests exercise real interleavings.

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

var ids idSeq

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = ids.next("ticket")
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) ClaimForAgent(_ context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok || ticket.Status != domain.TicketStatusUnassigned {
		return nil, repository.ErrConditionFailed
	}
	id := agentID
	ticket.AssigneeID = &id
	ticket.Status = domain.TicketStatusAssigned
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Release(_ context.Context, ticketID, agentID string, priority int, triaged bool) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok || !ticket.HeldBy(agentID) {
		return nil, repository.ErrConditionFailed
	}
	ticket.AssigneeID = nil
	ticket.Status = domain.TicketStatusUnassigned
	ticket.Priority = priority
	ticket.Triaged = triaged
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Complete(_ context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok || !ticket.HeldBy(agentID) {
		return nil, repository.ErrConditionFailed
	}
	ticket.AssigneeID = nil
	ticket.Status = domain.TicketStatusCompleted
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) SetStatus(_ context.Context, ticketID, agentID string, status domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok || !ticket.HeldBy(agentID) {
		return nil, repository.ErrConditionFailed
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type fakeAgentRepo struct {
	mu     sync.Mutex
	agents map[string]*domain.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: map[string]*domain.Agent{}}
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agent.ID == "" {
		agent.ID = ids.next("agent")
	}
	agent.CreatedAt = time.Now()
	clone := *agent
	r.agents[agent.ID] = &clone
	return nil
}

func (r *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *agent
	return &clone, nil
}

func (r *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agent := range r.agents {
		if agent.Email == email {
			clone := *agent
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAgentRepo) ListAll(_ context.Context) ([]domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		result = append(result, *agent)
	}
	return result, nil
}

func (r *fakeAgentRepo) ClaimTicket(_ context.Context, agentID, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok || agent.TicketID != nil {
		return repository.ErrConditionFailed
	}
	id := ticketID
	agent.TicketID = &id
	return nil
}

func (r *fakeAgentRepo) ReleaseTicket(_ context.Context, agentID, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok || agent.TicketID == nil || *agent.TicketID != ticketID {
		return repository.ErrConditionFailed
	}
	agent.TicketID = nil
	return nil
}

func (r *fakeAgentRepo) SetOnBreak(_ context.Context, agentID string, onBreak bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	agent.OnBreak = onBreak
	return nil
}

func (r *fakeAgentRepo) SetWorkingHours(_ context.Context, agentID string, hours map[time.Weekday]domain.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	agent.WorkingHours = hours
	return nil
}

func (r *fakeAgentRepo) SetVerifiedByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agent := range r.agents {
		if agent.Email == email {
			agent.Verified = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*domain.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[string]*domain.Customer{}}
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer.ID == "" {
		customer.ID = ids.next("customer")
	}
	customer.RegisterDate = time.Now()
	clone := *customer
	r.customers[customer.ID] = &clone
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *customer
	return &clone, nil
}

func (r *fakeCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.customers {
		if customer.Email == email {
			clone := *customer
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCustomerRepo) ListAll(_ context.Context) ([]domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Customer, 0, len(r.customers))
	for _, customer := range r.customers {
		result = append(result, *customer)
	}
	return result, nil
}

func (r *fakeCustomerRepo) SetTicketState(_ context.Context, customerID, ticketID string, state domain.CustomerTicketState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[customerID]
	if !ok {
		return pgx.ErrNoRows
	}
	if customer.Tickets == nil {
		customer.Tickets = map[string]domain.CustomerTicketState{}
	}
	customer.Tickets[ticketID] = state
	return nil
}

func (r *fakeCustomerRepo) SetVerifiedByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.customers {
		if customer.Email == email {
			customer.Verified = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*domain.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: map[string]*domain.Admin{}}
}

func (r *fakeAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if admin.ID == "" {
		admin.ID = ids.next("admin")
	}
	admin.CreatedAt = time.Now()
	clone := *admin
	r.admins[admin.ID] = &clone
	return nil
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *admin
	return &clone, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.Email == email {
			clone := *admin
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdminRepo) ListAll(_ context.Context) ([]domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Admin, 0, len(r.admins))
	for _, admin := range r.admins {
		result = append(result, *admin)
	}
	return result, nil
}

func (r *fakeAdminRepo) SetVerifiedByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.Email == email {
			admin.Verified = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeBreakRepo struct {
	mu      sync.Mutex
	records []domain.BreakRecord
}

func newFakeBreakRepo() *fakeBreakRepo {
	return &fakeBreakRepo{}
}

func (r *fakeBreakRepo) Insert(_ context.Context, record *domain.BreakRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = ids.next("break")
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeBreakRepo) CountForDay(_ context.Context, agentID string, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, record := range r.records {
		if record.AgentID == agentID && record.BreakDate.Equal(day) {
			count++
		}
	}
	return count, nil
}

func (r *fakeBreakRepo) LatestForDay(_ context.Context, agentID string, day time.Time) (*domain.BreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.BreakRecord
	for i := range r.records {
		record := r.records[i]
		if record.AgentID != agentID || !record.BreakDate.Equal(day) {
			continue
		}
		if latest == nil || record.BreakStart.After(latest.BreakStart) {
			clone := record
			latest = &clone
		}
	}
	return latest, nil
}

func (r *fakeBreakRepo) PurgeBefore(_ context.Context, agentID string, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, record := range r.records {
		if record.AgentID == agentID && record.BreakDate.Before(day) {
			continue
		}
		kept = append(kept, record)
	}
	r.records = kept
	return nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings domain.BreakSettings
}

func newFakeSettingsRepo(durationMinutes, dailyFrequency int) *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: domain.BreakSettings{
		DurationMinutes: durationMinutes,
		DailyFrequency:  dailyFrequency,
	}}
}

func (r *fakeSettingsRepo) Get(_ context.Context) (domain.BreakSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings, nil
}

func (r *fakeSettingsRepo) Update(_ context.Context, settings domain.BreakSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	return nil
}

func (r *fakeSettingsRepo) Seed(_ context.Context, defaults domain.BreakSettings) error {
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Append(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = ids.next("msg")
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ChatMessage
	for _, msg := range r.messages {
		if msg.TicketID == ticketID {
			result = append(result, msg)
		}
	}
	return result, nil
}

type fakeVerificationRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.VerificationCode
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{codes: map[string]*domain.VerificationCode{}}
}

func (r *fakeVerificationRepo) Replace(_ context.Context, code *domain.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.codes {
		if existing.Email == code.Email {
			delete(r.codes, id)
		}
	}
	code.ID = ids.next("code")
	clone := *code
	r.codes[code.ID] = &clone
	return nil
}

func (r *fakeVerificationRepo) GetByEmailAndCode(_ context.Context, email, codeStr string, purpose domain.VerificationPurpose) (*domain.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range r.codes {
		if code.Email == email && code.Code == codeStr && code.Purpose == purpose {
			clone := *code
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeVerificationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.codes, id)
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*domain.Task{}}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = ids.next("task")
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) ListAll(_ context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		result = append(result, *task)
	}
	return result, nil
}

func (r *fakeTaskRepo) ListByAgent(_ context.Context, agentID string) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Task
	for _, task := range r.tasks {
		if task.AssignedToAgent(agentID) {
			result = append(result, *task)
		}
	}
	return result, nil
}

func (r *fakeTaskRepo) SetCompletion(_ context.Context, taskID, agentID string, done bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return pgx.ErrNoRows
	}
	if task.Completion == nil {
		task.Completion = map[string]bool{}
	}
	task.Completion[agentID] = done
	return nil
}

func (r *fakeTaskRepo) SetAssignees(_ context.Context, taskID string, agentIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return pgx.ErrNoRows
	}
	task.AssignedTo = agentIDs
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

// captureDispatcher records published events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// fakeMailer records sends and can be toggled to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("smtp unreachable")
	}
	m.sent = append(m.sent, to+"|"+subject+"|"+body)
	return nil
}
