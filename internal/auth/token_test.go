package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("round-trip-secret", 30)

	token, expiresAt, err := tm.GenerateToken("agent-7", domain.SubjectTypeAgent)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "agent-7", claims.SubjectID)
	require.Equal(t, domain.SubjectTypeAgent, claims.Subject)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 30)
	verifier := NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken("customer-1", domain.SubjectTypeCustomer)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	_, err := tm.ParseToken("not.a.token")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", 4)
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)
	require.NoError(t, ComparePassword(hash, "correct horse battery staple"))
	require.Error(t, ComparePassword(hash, "wrong password"))
}
