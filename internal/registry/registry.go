// Package registry holds the process-wide in-memory mirror of persisted
// entities. Services read from it for fast lookup and write to it only
// after the store has confirmed the corresponding durable write, so the
// mirror never runs ahead of durable truth.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Registry indexes admins, agents, customers, tickets and tasks by id.
// All accessors return copies; mutations go through Put/Delete with
// store-confirmed values.
type Registry struct {
	mu        sync.RWMutex
	admins    map[string]domain.Admin
	agents    map[string]domain.Agent
	customers map[string]domain.Customer
	tickets   map[string]domain.Ticket
	tasks     map[string]domain.Task
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		admins:    make(map[string]domain.Admin),
		agents:    make(map[string]domain.Agent),
		customers: make(map[string]domain.Customer),
		tickets:   make(map[string]domain.Ticket),
		tasks:     make(map[string]domain.Task),
	}
}

// Sources bundles the repositories Load rebuilds from.
type Sources struct {
	Admins    repository.AdminRepository
	Agents    repository.AgentRepository
	Customers repository.CustomerRepository
	Tickets   repository.TicketRepository
	Tasks     repository.TaskRepository
}

// Load rebuilds the registry from the store. Called once at process start.
func (r *Registry) Load(ctx context.Context, src Sources) error {
	admins, err := src.Admins.ListAll(ctx)
	if err != nil {
		return err
	}
	agents, err := src.Agents.ListAll(ctx)
	if err != nil {
		return err
	}
	customers, err := src.Customers.ListAll(ctx)
	if err != nil {
		return err
	}
	tickets, err := src.Tickets.ListAll(ctx)
	if err != nil {
		return err
	}
	tasks, err := src.Tasks.ListAll(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range admins {
		r.admins[admin.ID] = admin
	}
	for _, agent := range agents {
		r.agents[agent.ID] = agent.Clone()
	}
	for _, customer := range customers {
		r.customers[customer.ID] = customer.Clone()
	}
	for _, ticket := range tickets {
		r.tickets[ticket.ID] = ticket.Clone()
	}
	for _, task := range tasks {
		r.tasks[task.ID] = task.Clone()
	}
	return nil
}

// Admin returns a copy of the admin with the given id.
func (r *Registry) Admin(id string) (domain.Admin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admin, ok := r.admins[id]
	return admin, ok
}

// Agent returns a copy of the agent with the given id.
func (r *Registry) Agent(id string) (domain.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	return agent.Clone(), ok
}

// Customer returns a copy of the customer with the given id.
func (r *Registry) Customer(id string) (domain.Customer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.customers[id]
	return customer.Clone(), ok
}

// Ticket returns a copy of the ticket with the given id.
func (r *Registry) Ticket(id string) (domain.Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	return ticket.Clone(), ok
}

// Task returns a copy of the task with the given id.
func (r *Registry) Task(id string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	return task.Clone(), ok
}

// PutAdmin stores a store-confirmed admin snapshot.
func (r *Registry) PutAdmin(admin domain.Admin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[admin.ID] = admin
}

// PutAgent stores a store-confirmed agent snapshot.
func (r *Registry) PutAgent(agent domain.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent.Clone()
}

// PutCustomer stores a store-confirmed customer snapshot.
func (r *Registry) PutCustomer(customer domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer.Clone()
}

// PutTicket stores a store-confirmed ticket snapshot.
func (r *Registry) PutTicket(ticket domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = ticket.Clone()
}

// PutTask stores a store-confirmed task snapshot.
func (r *Registry) PutTask(task domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task.Clone()
}

// SetCustomerTicketState records a ticket state on the customer's index
// under the registry lock, so concurrent writers on the same customer
// never lose each other's entries.
func (r *Registry) SetCustomerTicketState(customerID, ticketID string, state domain.CustomerTicketState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[customerID]
	if !ok {
		return
	}
	if customer.Tickets == nil {
		customer.Tickets = make(map[string]domain.CustomerTicketState)
	}
	customer.Tickets[ticketID] = state
	r.customers[customerID] = customer
}

// SetAgentHold sets or clears the agent's held ticket under the registry
// lock, leaving the agent's other fields untouched.
func (r *Registry) SetAgentHold(agentID string, ticketID *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok {
		return
	}
	if ticketID != nil {
		id := *ticketID
		agent.TicketID = &id
	} else {
		agent.TicketID = nil
	}
	r.agents[agentID] = agent
}

// SetAgentOnBreak flips the agent's break flag under the registry lock,
// leaving the agent's other fields untouched.
func (r *Registry) SetAgentOnBreak(agentID string, onBreak bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok {
		return
	}
	agent.OnBreak = onBreak
	r.agents[agentID] = agent
}

// SetTaskCompletion records one agent's completion mark under the
// registry lock.
func (r *Registry) SetTaskCompletion(taskID, agentID string, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return
	}
	completion := make(map[string]bool, len(task.Completion)+1)
	for id, d := range task.Completion {
		completion[id] = d
	}
	completion[agentID] = done
	task.Completion = completion
	r.tasks[taskID] = task
}

// SetVerifiedByEmail marks the subject with the given email verified
// under the registry lock.
func (r *Registry) SetVerifiedByEmail(subject domain.SubjectType, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch subject {
	case domain.SubjectTypeAdmin:
		for id, admin := range r.admins {
			if admin.Email == email {
				admin.Verified = true
				r.admins[id] = admin
				return
			}
		}
	case domain.SubjectTypeAgent:
		for id, agent := range r.agents {
			if agent.Email == email {
				agent.Verified = true
				r.agents[id] = agent
				return
			}
		}
	case domain.SubjectTypeCustomer:
		for id, customer := range r.customers {
			if customer.Email == email {
				customer.Verified = true
				r.customers[id] = customer
				return
			}
		}
	}
}

// DeleteTicket removes a ticket from the mirror.
func (r *Registry) DeleteTicket(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, id)
}

// DeleteTask removes a task from the mirror.
func (r *Registry) DeleteTask(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Tickets returns copies of all tickets, ordered by creation time.
func (r *Registry) Tickets() []domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		result = append(result, ticket.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Agents returns copies of all agents, ordered by creation time.
func (r *Registry) Agents() []domain.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		result = append(result, agent.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Admins returns copies of all admins, ordered by creation time.
func (r *Registry) Admins() []domain.Admin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Admin, 0, len(r.admins))
	for _, admin := range r.admins {
		result = append(result, admin)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Customers returns copies of all customers, ordered by registration time.
func (r *Registry) Customers() []domain.Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Customer, 0, len(r.customers))
	for _, customer := range r.customers {
		result = append(result, customer.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RegisterDate.Equal(result[j].RegisterDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].RegisterDate.Before(result[j].RegisterDate)
	})
	return result
}

// Tasks returns copies of all tasks, ordered by creation time.
func (r *Registry) Tasks() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		result = append(result, task.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
