package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestRegistryReturnsCopies(t *testing.T) {
	reg := New()
	reg.PutTicket(domain.Ticket{ID: "ticket-1", Title: "printer jam", Status: domain.TicketStatusUnassigned})

	got, ok := reg.Ticket("ticket-1")
	require.True(t, ok)
	got.Title = "mutated"
	got.Status = domain.TicketStatusCompleted

	// mutating the returned value must not touch the registry
	fresh, ok := reg.Ticket("ticket-1")
	require.True(t, ok)
	require.Equal(t, "printer jam", fresh.Title)
	require.Equal(t, domain.TicketStatusUnassigned, fresh.Status)
}

func TestRegistryIsolatesMapsAndSlices(t *testing.T) {
	reg := New()

	tickets := map[string]domain.CustomerTicketState{"ticket-1": domain.CustomerTicketOpen}
	reg.PutCustomer(domain.Customer{ID: "customer-1", Tickets: tickets})

	// the caller's map and the registry's map are independent both ways
	tickets["ticket-2"] = domain.CustomerTicketOpen
	got, ok := reg.Customer("customer-1")
	require.True(t, ok)
	require.Len(t, got.Tickets, 1)
	got.Tickets["ticket-3"] = domain.CustomerTicketClosed
	fresh, _ := reg.Customer("customer-1")
	require.Len(t, fresh.Tickets, 1)

	reg.PutTask(domain.Task{
		ID:         "task-1",
		AssignedTo: []string{"agent-1"},
		Completion: map[string]bool{"agent-1": false},
	})
	task, ok := reg.Task("task-1")
	require.True(t, ok)
	task.Completion["agent-1"] = true
	task.AssignedTo[0] = "agent-9"
	freshTask, _ := reg.Task("task-1")
	require.False(t, freshTask.Completion["agent-1"])
	require.Equal(t, "agent-1", freshTask.AssignedTo[0])

	ticketID := "ticket-1"
	reg.PutAgent(domain.Agent{
		ID:           "agent-1",
		TicketID:     &ticketID,
		WorkingHours: map[time.Weekday]domain.Shift{time.Monday: {StartMinute: 540, EndMinute: 1020}},
		TaskIDs:      []string{"task-1"},
	})
	agent, ok := reg.Agent("agent-1")
	require.True(t, ok)
	*agent.TicketID = "other"
	delete(agent.WorkingHours, time.Monday)
	freshAgent, _ := reg.Agent("agent-1")
	require.Equal(t, "ticket-1", *freshAgent.TicketID)
	require.Contains(t, freshAgent.WorkingHours, time.Monday)

	// list accessors isolate the same way
	for _, listed := range reg.Customers() {
		listed.Tickets["ticket-9"] = domain.CustomerTicketOpen
	}
	fresh, _ = reg.Customer("customer-1")
	require.Len(t, fresh.Tickets, 1)
}

func TestRegistryFieldMutators(t *testing.T) {
	reg := New()
	reg.PutCustomer(domain.Customer{ID: "customer-1"})
	reg.PutAgent(domain.Agent{ID: "agent-1"})
	reg.PutTask(domain.Task{ID: "task-1", AssignedTo: []string{"agent-1"}})

	reg.SetCustomerTicketState("customer-1", "ticket-1", domain.CustomerTicketOpen)
	reg.SetCustomerTicketState("customer-1", "ticket-2", domain.CustomerTicketClosed)
	customer, _ := reg.Customer("customer-1")
	require.Equal(t, domain.CustomerTicketOpen, customer.Tickets["ticket-1"])
	require.Equal(t, domain.CustomerTicketClosed, customer.Tickets["ticket-2"])

	// mutators applied after a stale read do not clobber each other
	ticketID := "ticket-1"
	reg.SetAgentOnBreak("agent-1", true)
	reg.SetAgentHold("agent-1", &ticketID)
	agent, _ := reg.Agent("agent-1")
	require.True(t, agent.OnBreak)
	require.NotNil(t, agent.TicketID)
	require.Equal(t, "ticket-1", *agent.TicketID)

	reg.SetTaskCompletion("task-1", "agent-1", true)
	task, _ := reg.Task("task-1")
	require.True(t, task.Completion["agent-1"])
	require.Equal(t, domain.TaskStatusCompleted, task.Status())

	// absent ids are ignored
	reg.SetCustomerTicketState("nope", "ticket-1", domain.CustomerTicketOpen)
	reg.SetAgentHold("nope", nil)
	reg.SetAgentOnBreak("nope", true)
	reg.SetTaskCompletion("nope", "agent-1", true)
}

func TestRegistryPutOverwrites(t *testing.T) {
	reg := New()
	reg.PutAgent(domain.Agent{ID: "agent-1", AccessLevel: 1})
	reg.PutAgent(domain.Agent{ID: "agent-1", AccessLevel: 3})

	agent, ok := reg.Agent("agent-1")
	require.True(t, ok)
	require.Equal(t, 3, agent.AccessLevel)
	require.Len(t, reg.Agents(), 1)
}

func TestRegistryDelete(t *testing.T) {
	reg := New()
	reg.PutTicket(domain.Ticket{ID: "ticket-1"})
	reg.PutTask(domain.Task{ID: "task-1"})

	reg.DeleteTicket("ticket-1")
	reg.DeleteTask("task-1")
	_, ok := reg.Ticket("ticket-1")
	require.False(t, ok)
	_, ok = reg.Task("task-1")
	require.False(t, ok)

	// deleting absent entries is harmless
	reg.DeleteTicket("ticket-1")
	reg.DeleteTask("task-1")
}

func TestRegistryListsOrderByCreation(t *testing.T) {
	reg := New()
	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	reg.PutTicket(domain.Ticket{ID: "ticket-b", CreatedAt: base.Add(2 * time.Hour)})
	reg.PutTicket(domain.Ticket{ID: "ticket-c", CreatedAt: base})
	reg.PutTicket(domain.Ticket{ID: "ticket-a", CreatedAt: base.Add(time.Hour)})
	// ties break on ID
	reg.PutTicket(domain.Ticket{ID: "ticket-d", CreatedAt: base})

	tickets := reg.Tickets()
	ids := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	require.Equal(t, []string{"ticket-c", "ticket-d", "ticket-a", "ticket-b"}, ids)
}

func TestRegistryMissLookups(t *testing.T) {
	reg := New()
	_, ok := reg.Admin("nope")
	require.False(t, ok)
	_, ok = reg.Customer("nope")
	require.False(t, ok)
	require.Empty(t, reg.Tasks())
}
