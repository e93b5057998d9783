package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewAlreadyAssigned signals a claim on a ticket that is no longer unassigned.
func NewAlreadyAssigned(ticketID string) error {
	return NewDomainError("ALREADY_ASSIGNED", "ticket is already assigned", http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

// NewAgentBusy signals the one-ticket-per-agent invariant would be violated.
func NewAgentBusy(agentID string) error {
	return NewDomainError("AGENT_BUSY", "agent already holds a ticket", http.StatusConflict,
		map[string]any{"agent_id": agentID})
}

// NewAgentOnBreak rejects ticket claims from an agent on a running break.
func NewAgentOnBreak(agentID string) error {
	return NewDomainError("AGENT_BUSY", "agent is on break", http.StatusConflict,
		map[string]any{"agent_id": agentID})
}

// NewNotAssigned signals the actor does not currently hold the ticket.
func NewNotAssigned(ticketID string) error {
	return NewDomainError("NOT_ASSIGNED", "ticket is not assigned to caller", http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

// NewOutsideWorkingHours rejects break requests outside the agent's shift.
func NewOutsideWorkingHours(agentID string) error {
	return NewDomainError("OUTSIDE_WORKING_HOURS", "outside configured working hours", http.StatusConflict,
		map[string]any{"agent_id": agentID})
}

// NewBreakLimitExceeded rejects break requests past the daily frequency.
func NewBreakLimitExceeded(agentID string, limit int) error {
	return NewDomainError("BREAK_LIMIT_EXCEEDED", "daily break limit reached", http.StatusConflict,
		map[string]any{"agent_id": agentID, "limit": limit})
}

// NewStorageError wraps a failed store write. Any in-memory mutation applied
// before the failure must be rolled back by the caller before this surfaces.
func NewStorageError(err error) error {
	return &DomainError{
		Code:       "STORAGE_ERROR",
		Message:    "storage operation failed",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewDispatchError reports a failed notification. The state change the
// notification describes is kept.
func NewDispatchError(err error) error {
	return &DomainError{
		Code:       "DISPATCH_ERROR",
		Message:    "notification dispatch failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf extracts the domain error code, or empty string for foreign errors.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
