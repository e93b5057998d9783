package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func newAuthService(env *testEnv) *AuthService {
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 5
	cfg.Auth.BcryptCost = 4
	return NewAuthService(cfg, AuthDependencies{
		AdminRepo:    env.admins,
		AgentRepo:    env.agents,
		CustomerRepo: env.customers,
		Registry:     env.reg,
	})
}

func TestRegisterCustomerStartsUnverified(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	customer, err := svc.RegisterCustomer(context.Background(), "alice", "Alice@Example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", customer.Email)
	require.False(t, customer.Verified)
	require.NotEqual(t, "correct horse", customer.PasswordHash)

	_, ok := env.reg.Customer(customer.ID)
	require.True(t, ok)

	// duplicate email is rejected
	_, err = svc.RegisterCustomer(context.Background(), "alice2", "alice@example.com", "another pass")
	require.Equal(t, "CONFLICT", apperrors.CodeOf(err))
}

func TestRegisterCustomerValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, err := svc.RegisterCustomer(context.Background(), "", "a@example.com", "long enough")
	require.Equal(t, "VALIDATION_FAILED", apperrors.CodeOf(err))
	_, err = svc.RegisterCustomer(context.Background(), "bob", "b@example.com", "short")
	require.Equal(t, "VALIDATION_FAILED", apperrors.CodeOf(err))
}

func TestLoginUnverifiedIsAGateNotAFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, err := svc.RegisterCustomer(context.Background(), "carol", "carol@example.com", "top secret pw")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), domain.SubjectTypeCustomer, "carol@example.com", "top secret pw")
	require.NoError(t, err)
	require.Equal(t, LoginUnverified, result.Outcome)
	require.Empty(t, result.Token)

	// verify, then the same credentials yield a token
	require.NoError(t, env.customers.SetVerifiedByEmail(context.Background(), "carol@example.com"))
	for _, customer := range env.reg.Customers() {
		if customer.Email == "carol@example.com" {
			customer.Verified = true
			env.reg.PutCustomer(customer)
		}
	}

	result, err = svc.Login(context.Background(), domain.SubjectTypeCustomer, "carol@example.com", "top secret pw")
	require.NoError(t, err)
	require.Equal(t, LoginOK, result.Outcome)
	require.NotEmpty(t, result.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, domain.SubjectTypeCustomer, claims.Subject)
	require.Equal(t, result.SubjectID, claims.SubjectID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, err := svc.RegisterCustomer(context.Background(), "dave", "dave@example.com", "top secret pw")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), domain.SubjectTypeCustomer, "dave@example.com", "wrong password")
	require.Equal(t, "UNAUTHORIZED", apperrors.CodeOf(err))
	_, err = svc.Login(context.Background(), domain.SubjectTypeCustomer, "ghost@example.com", "whatever pass")
	require.Equal(t, "UNAUTHORIZED", apperrors.CodeOf(err))
}

func TestRegisterAgentValidatesAccessLevel(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, err := svc.RegisterAgent(context.Background(), "eve", "eve@example.com", "long enough pw", 0, allDayHours(), nil)
	require.Equal(t, "VALIDATION_FAILED", apperrors.CodeOf(err))

	agent, err := svc.RegisterAgent(context.Background(), "eve", "eve@example.com", "long enough pw", 2, allDayHours(), []string{"billing"})
	require.NoError(t, err)
	require.Equal(t, 2, agent.AccessLevel)
	_, ok := env.reg.Agent(agent.ID)
	require.True(t, ok)
}
