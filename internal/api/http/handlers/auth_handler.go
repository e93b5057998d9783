package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthHandler manages registration, login and code verification.
type AuthHandler struct {
	auth         *service.AuthService
	verification *service.VerificationService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, verificationService *service.VerificationService) *AuthHandler {
	return &AuthHandler{auth: authService, verification: verificationService}
}

// RegisterCustomer POST /auth/customers/register.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	var req dto.RegisterCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, err := h.auth.RegisterCustomer(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	// registration triggers the first code send; a mail outage is not fatal
	dispatched, err := h.verification.IssueCode(c.UserContext(), customer.Email, domain.VerificationPurposeEmail)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data":            dto.NewCustomerResponse(customer),
		"code_dispatched": dispatched,
	})
}

// LoginAdmin POST /auth/admins/login.
func (h *AuthHandler) LoginAdmin(c *fiber.Ctx) error {
	return h.login(c, domain.SubjectTypeAdmin)
}

// LoginAgent POST /auth/agents/login.
func (h *AuthHandler) LoginAgent(c *fiber.Ctx) error {
	return h.login(c, domain.SubjectTypeAgent)
}

// LoginCustomer POST /auth/customers/login.
func (h *AuthHandler) LoginCustomer(c *fiber.Ctx) error {
	return h.login(c, domain.SubjectTypeCustomer)
}

func (h *AuthHandler) login(c *fiber.Ctx, subject domain.SubjectType) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	result, err := h.auth.Login(c.UserContext(), subject, req.Email, req.Password)
	if err != nil {
		return err
	}
	resp := dto.LoginResponse{
		Outcome:     string(result.Outcome),
		SubjectType: result.SubjectType,
		SubjectID:   result.SubjectID,
	}
	if result.Outcome == service.LoginOK {
		resp.Token = result.Token
		resp.ExpiresAt = &result.ExpiresAt
	}
	return c.JSON(fiber.Map{"data": resp})
}

// IssueCode POST /auth/verification/issue.
func (h *AuthHandler) IssueCode(c *fiber.Ctx) error {
	var req dto.IssueCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	dispatched, err := h.verification.IssueCode(c.UserContext(), req.Email, domain.VerificationPurposeEmail)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueCodeResponse{Dispatched: dispatched}})
}

// VerifyCode POST /auth/verification/confirm.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}
	if err := h.verification.VerifyCode(c.UserContext(), req.Email, req.Code, domain.VerificationPurposeEmail); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"verified": true}})
}
