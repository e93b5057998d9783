package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/chat"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/registry"
)

// testEnv wires the services over in-memory repositories and a fresh
// registry, mirroring the production wiring in cmd/api.
type testEnv struct {
	reg        *registry.Registry
	tickets    *fakeTicketRepo
	agents     *fakeAgentRepo
	customers  *fakeCustomerRepo
	admins     *fakeAdminRepo
	breaks     *fakeBreakRepo
	settings   *fakeSettingsRepo
	messages   *fakeMessageRepo
	codes      *fakeVerificationRepo
	tasks      *fakeTaskRepo
	dispatcher *captureDispatcher
	mailer     *fakeMailer
	hub        *chat.Hub

	lifecycle    *LifecycleService
	assignment   *AssignmentService
	chat         *ChatService
	verification *VerificationService
	taskService  *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		reg:        registry.New(),
		tickets:    newFakeTicketRepo(),
		agents:     newFakeAgentRepo(),
		customers:  newFakeCustomerRepo(),
		admins:     newFakeAdminRepo(),
		breaks:     newFakeBreakRepo(),
		settings:   newFakeSettingsRepo(15, 2),
		messages:   newFakeMessageRepo(),
		codes:      newFakeVerificationRepo(),
		tasks:      newFakeTaskRepo(),
		dispatcher: &captureDispatcher{},
		mailer:     &fakeMailer{},
		hub:        chat.NewHub(zap.NewNop()),
	}

	cipher, err := chat.NewCipher(make([]byte, 32), make([]byte, 16))
	require.NoError(t, err)

	env.lifecycle = NewLifecycleService(LifecycleDependencies{
		Registry:     env.reg,
		TicketRepo:   env.tickets,
		AgentRepo:    env.agents,
		CustomerRepo: env.customers,
		Dispatcher:   env.dispatcher,
	})
	env.assignment = NewAssignmentService(AssignmentDependencies{
		Registry:     env.reg,
		TicketRepo:   env.tickets,
		AgentRepo:    env.agents,
		BreakRepo:    env.breaks,
		SettingsRepo: env.settings,
		Dispatcher:   env.dispatcher,
	})
	env.chat = NewChatService(ChatDependencies{
		Registry:    env.reg,
		MessageRepo: env.messages,
		Hub:         env.hub,
		Broadcaster: &chat.LocalBroadcaster{Hub: env.hub},
		Cipher:      cipher,
		Dispatcher:  env.dispatcher,
		MaxBytes:    2000,
	})
	env.verification = NewVerificationService(VerificationDependencies{
		CodeRepo:     env.codes,
		AdminRepo:    env.admins,
		AgentRepo:    env.agents,
		CustomerRepo: env.customers,
		Registry:     env.reg,
		Mailer:       env.mailer,
		Dispatcher:   env.dispatcher,
	})
	env.taskService = NewTaskService(TaskDependencies{
		Registry: env.reg,
		TaskRepo: env.tasks,
	})
	return env
}

// allDayHours covers every weekday so working-hours checks pass unless
// a test narrows them.
func allDayHours() map[time.Weekday]domain.Shift {
	hours := make(map[time.Weekday]domain.Shift, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		hours[day] = domain.Shift{StartMinute: 0, EndMinute: 1439}
	}
	return hours
}

func (e *testEnv) addAgent(t *testing.T, accessLevel int) domain.Agent {
	t.Helper()
	agent := &domain.Agent{
		Username:     "agent",
		Email:        ids.next("agent-mail") + "@example.com",
		AccessLevel:  accessLevel,
		WorkingHours: allDayHours(),
		Verified:     true,
	}
	require.NoError(t, e.agents.Create(context.Background(), agent))
	e.reg.PutAgent(*agent)
	return *agent
}

func (e *testEnv) addCustomer(t *testing.T) domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		Username: "customer",
		Email:    ids.next("customer-mail") + "@example.com",
		Verified: true,
		Tickets:  map[string]domain.CustomerTicketState{},
	}
	require.NoError(t, e.customers.Create(context.Background(), customer))
	e.reg.PutCustomer(*customer)
	return *customer
}

func (e *testEnv) addTicket(t *testing.T, customerID string) domain.Ticket {
	t.Helper()
	ticket, err := e.lifecycle.CreateTicket(context.Background(), customerID, TicketCreateInput{
		Title:       "printer on fire",
		Description: "smoke everywhere",
		Type:        "hardware",
	})
	require.NoError(t, err)
	return *ticket
}
