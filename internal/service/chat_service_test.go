package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/chat"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func chatSetup(t *testing.T) (*testEnv, domain.Customer, domain.Agent, domain.Ticket) {
	t.Helper()
	env := newTestEnv(t)
	customer := env.addCustomer(t)
	agent := env.addAgent(t, 1)
	ticket := env.addTicket(t, customer.ID)
	_, err := env.assignment.SelfAssign(context.Background(), agent.ID, ticket.ID)
	require.NoError(t, err)
	return env, customer, agent, ticket
}

func receive(t *testing.T, stream <-chan chat.Event) chat.Event {
	t.Helper()
	select {
	case event := <-stream:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for chat event")
		return chat.Event{}
	}
}

func TestChatSendFansOutToBothParticipants(t *testing.T) {
	env, customer, agent, ticket := chatSetup(t)

	customerPart := Participant{Type: domain.SubjectTypeCustomer, ID: customer.ID}
	agentPart := Participant{Type: domain.SubjectTypeAgent, ID: agent.ID}

	customerStream, err := env.chat.Join(ticket.ID, customerPart)
	require.NoError(t, err)
	agentStream, err := env.chat.Join(ticket.ID, agentPart)
	require.NoError(t, err)

	entry, err := env.chat.Send(context.Background(), ticket.ID, customerPart, "hello, anyone there?")
	require.NoError(t, err)
	require.Nil(t, entry.SenderID, "customer messages carry no sender id")

	// sender included in the fan-out
	got := receive(t, customerStream)
	require.Equal(t, "hello, anyone there?", got.Body)
	got = receive(t, agentStream)
	require.Equal(t, entry.MessageID, got.MessageID)
	require.Nil(t, got.SenderID)

	reply, err := env.chat.Send(context.Background(), ticket.ID, agentPart, "yes, looking into it")
	require.NoError(t, err)
	require.NotNil(t, reply.SenderID)
	require.Equal(t, agent.ID, *reply.SenderID)
	receive(t, customerStream)
	receive(t, agentStream)
}

func TestChatJoinIsIdempotent(t *testing.T) {
	env, customer, _, ticket := chatSetup(t)
	part := Participant{Type: domain.SubjectTypeCustomer, ID: customer.ID}

	first, err := env.chat.Join(ticket.ID, part)
	require.NoError(t, err)
	second, err := env.chat.Join(ticket.ID, part)
	require.NoError(t, err)

	require.Equal(t, 1, env.hub.Members(ticket.ID))

	// the second join returns the same stream, so one send means one event
	_, err = env.chat.Send(context.Background(), ticket.ID, part, "only once")
	require.NoError(t, err)
	receive(t, first)
	select {
	case extra := <-second:
		// same channel as first; nothing further may arrive
		require.Fail(t, "unexpected duplicate event", "%+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChatStoresOnlyCiphertext(t *testing.T) {
	env, customer, _, ticket := chatSetup(t)
	part := Participant{Type: domain.SubjectTypeCustomer, ID: customer.ID}

	const body = "my password is hunter2"
	_, err := env.chat.Send(context.Background(), ticket.ID, part, body)
	require.NoError(t, err)

	stored, err := env.messages.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotContains(t, string(stored[0].Ciphertext), "hunter2")

	history, err := env.chat.History(context.Background(), ticket.ID, part)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, body, history[0].Body)
}

func TestChatHistoryPreservesOrder(t *testing.T) {
	env, customer, agent, ticket := chatSetup(t)
	customerPart := Participant{Type: domain.SubjectTypeCustomer, ID: customer.ID}
	agentPart := Participant{Type: domain.SubjectTypeAgent, ID: agent.ID}

	bodies := []string{"first", "second", "third", "fourth"}
	for i, body := range bodies {
		sender := customerPart
		if i%2 == 1 {
			sender = agentPart
		}
		_, err := env.chat.Send(context.Background(), ticket.ID, sender, body)
		require.NoError(t, err)
	}

	history, err := env.chat.History(context.Background(), ticket.ID, customerPart)
	require.NoError(t, err)
	require.Len(t, history, len(bodies))
	for i, entry := range history {
		require.Equal(t, bodies[i], entry.Body)
	}
}

func TestChatRejectsOutsiders(t *testing.T) {
	env, _, _, ticket := chatSetup(t)
	stranger := env.addCustomer(t)
	otherAgent := env.addAgent(t, 1)

	_, err := env.chat.Join(ticket.ID, Participant{Type: domain.SubjectTypeCustomer, ID: stranger.ID})
	require.Equal(t, "UNAUTHORIZED", apperrors.CodeOf(err))

	// an agent who does not hold the ticket is not a participant
	_, err = env.chat.Send(context.Background(), ticket.ID, Participant{Type: domain.SubjectTypeAgent, ID: otherAgent.ID}, "hi")
	require.Equal(t, "UNAUTHORIZED", apperrors.CodeOf(err))
}

func TestChatAdminMayReadHistoryButNotSend(t *testing.T) {
	env, customer, _, ticket := chatSetup(t)
	admin := &domain.Admin{Username: "root", Email: "root@example.com"}
	require.NoError(t, env.admins.Create(context.Background(), admin))
	env.reg.PutAdmin(*admin)

	part := Participant{Type: domain.SubjectTypeCustomer, ID: customer.ID}
	_, err := env.chat.Send(context.Background(), ticket.ID, part, "for the record")
	require.NoError(t, err)

	adminPart := Participant{Type: domain.SubjectTypeAdmin, ID: admin.ID}
	history, err := env.chat.History(context.Background(), ticket.ID, adminPart)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = env.chat.Send(context.Background(), ticket.ID, adminPart, "admin interjection")
	require.Equal(t, "UNAUTHORIZED", apperrors.CodeOf(err))
}

func TestChatValidatesBody(t *testing.T) {
	env, customer, _, ticket := chatSetup(t)
	part := Participant{Type: domain.SubjectTypeCustomer, ID: customer.ID}

	cases := []string{
		"",
		"   ",
		strings.Repeat("x", 2001),
		"null\x00byte",
		string([]byte{0xff, 0xfe}),
	}
	for _, body := range cases {
		_, err := env.chat.Send(context.Background(), ticket.ID, part, body)
		require.Equal(t, "VALIDATION_FAILED", apperrors.CodeOf(err))
	}

	// newlines and tabs are allowed
	_, err := env.chat.Send(context.Background(), ticket.ID, part, "line one\n\tline two")
	require.NoError(t, err)
}

func TestChatLeaveUnblocksStreamDrainer(t *testing.T) {
	env, customer, _, ticket := chatSetup(t)
	part := Participant{Type: domain.SubjectTypeCustomer, ID: customer.ID}

	stream, err := env.chat.Join(ticket.ID, part)
	require.NoError(t, err)

	// the disconnect path leaves first and only then waits for the
	// drainer; the drainer must exit on the closed stream even when no
	// one is consuming events anymore
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range stream {
		}
	}()

	env.chat.Leave(ticket.ID, part)

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("stream drainer did not exit after leave")
	}
}

func TestPreviewNeverSplitsRunes(t *testing.T) {
	short := preview("hello", 120)
	require.Equal(t, "hello", short)

	long := preview(strings.Repeat("x", 200), 120)
	require.Equal(t, 120, len(long))
	require.True(t, strings.HasSuffix(long, "..."))

	// a multi-byte rune straddling the cut is dropped whole
	multibyte := preview(strings.Repeat("é", 100), 120)
	require.True(t, utf8.ValidString(multibyte))
	require.LessOrEqual(t, len(multibyte), 120)
	require.True(t, strings.HasSuffix(multibyte, "..."))

	fourByte := preview(strings.Repeat("\U0001F4AC", 40), 120)
	require.True(t, utf8.ValidString(fourByte))
	require.LessOrEqual(t, len(fourByte), 120)

	// tiny budgets truncate without an ellipsis
	tiny := preview("日本語", 3)
	require.True(t, utf8.ValidString(tiny))
	require.Equal(t, "日", tiny)
}
