package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// BreaksHandler manages agent break and availability endpoints.
type BreaksHandler struct {
	assignment *service.AssignmentService
}

// NewBreaksHandler constructs handler.
func NewBreaksHandler(assignment *service.AssignmentService) *BreaksHandler {
	return &BreaksHandler{assignment: assignment}
}

// StartBreak POST /agent/breaks.
func (h *BreaksHandler) StartBreak(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	status, err := h.assignment.StartBreak(c.UserContext(), agent.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BreakStatusResponse{
		AlreadyOnBreak:   status.AlreadyOnBreak,
		BreakNumber:      status.BreakNumber,
		StartedAt:        status.StartedAt,
		EndsAt:           status.EndsAt,
		RemainingSeconds: int(status.Remaining.Seconds()),
	}})
}

// Availability GET /agent/availability.
func (h *BreaksHandler) Availability(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	availability, err := h.assignment.AvailabilityOf(c.UserContext(), agent.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{
		AgentID:      agent.ID,
		Availability: availability,
	}})
}
