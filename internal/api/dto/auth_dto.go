package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RegisterCustomerRequest payload.
type RegisterCustomerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterAgentRequest payload. Administrative.
type RegisterAgentRequest struct {
	Username     string                  `json:"username"`
	Email        string                  `json:"email"`
	Password     string                  `json:"password"`
	AccessLevel  int                     `json:"access_level"`
	WorkingHours map[string]ShiftPayload `json:"working_hours"`
	Specialties  []string                `json:"specialties"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the outcome. Token fields are empty when the
// account still needs verification.
type LoginResponse struct {
	Outcome     string             `json:"outcome"`
	SubjectType domain.SubjectType `json:"subject_type"`
	SubjectID   string             `json:"subject_id"`
	Token       string             `json:"token,omitempty"`
	ExpiresAt   *time.Time         `json:"expires_at,omitempty"`
}

// IssueCodeRequest payload.
type IssueCodeRequest struct {
	Email string `json:"email"`
}

// IssueCodeResponse reports whether the mail was handed off.
type IssueCodeResponse struct {
	Dispatched bool `json:"dispatched"`
}

// VerifyCodeRequest payload.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// CustomerResponse is the customer view.
type CustomerResponse struct {
	ID           string                                `json:"id"`
	Username     string                                `json:"username"`
	Email        string                                `json:"email"`
	Verified     bool                                  `json:"verified"`
	Tickets      map[string]domain.CustomerTicketState `json:"tickets"`
	RegisterDate time.Time                             `json:"register_date"`
}

// NewCustomerResponse maps the domain customer.
func NewCustomerResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           customer.ID,
		Username:     customer.Username,
		Email:        customer.Email,
		Verified:     customer.Verified,
		Tickets:      customer.Tickets,
		RegisterDate: customer.RegisterDate,
	}
}
