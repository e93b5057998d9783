package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AdminHandler manages policy and account administration.
type AdminHandler struct {
	auth       *service.AuthService
	assignment *service.AssignmentService
	lifecycle  *service.LifecycleService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, assignment *service.AssignmentService, lifecycle *service.LifecycleService) *AdminHandler {
	return &AdminHandler{auth: authService, assignment: assignment, lifecycle: lifecycle}
}

// CreateAgent POST /admin/agents.
func (h *AdminHandler) CreateAgent(c *fiber.Ctx) error {
	var req dto.RegisterAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	hours, ok := dto.ParseWorkingHours(req.WorkingHours)
	if !ok {
		return apperrors.NewValidationError("invalid working hours", nil)
	}
	agent, err := h.auth.RegisterAgent(c.UserContext(), req.Username, req.Email, req.Password, req.AccessLevel, hours, req.Specialties)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAgentResponse(agent)})
}

// ConfigureBreaks PUT /admin/breaks/settings.
func (h *AdminHandler) ConfigureBreaks(c *fiber.Ctx) error {
	var req dto.BreakSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.assignment.ConfigureBreaks(c.UserContext(), req.DurationMinutes, req.DailyFrequency); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"duration_minutes": req.DurationMinutes,
		"daily_frequency":  req.DailyFrequency,
	}})
}

// DeleteTicket DELETE /admin/tickets/:id.
func (h *AdminHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.lifecycle.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
