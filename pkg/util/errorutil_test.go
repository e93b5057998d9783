package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, "AGENT_BUSY", CodeOf(NewAgentBusy("agent-1")))
	require.Equal(t, "NOT_FOUND", CodeOf(fmt.Errorf("wrapped: %w", NewNotFound("ticket", nil))))
	require.Equal(t, "", CodeOf(errors.New("plain")))
	require.Equal(t, "", CodeOf(nil))
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStorageError(cause)
	require.True(t, errors.Is(err, cause))
	require.Contains(t, err.Error(), "connection reset")
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewBreakLimitExceeded("agent-1", 2)
	converted := ToDomainError(original)
	require.Equal(t, "BREAK_LIMIT_EXCEEDED", converted.Code)
	require.Equal(t, http.StatusConflict, converted.HTTPStatus)
}

func TestToDomainErrorWrapsForeignErrors(t *testing.T) {
	converted := ToDomainError(errors.New("boom"))
	require.Equal(t, "INTERNAL_ERROR", converted.Code)
	require.Equal(t, http.StatusInternalServerError, converted.HTTPStatus)

	converted = ToDomainError(sql.ErrNoRows)
	require.Equal(t, "NOT_FOUND", converted.Code)

	require.Nil(t, ToDomainError(nil))
}
