package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AgentTicketsHandler manages agent-facing ticket operations.
type AgentTicketsHandler struct {
	lifecycle  *service.LifecycleService
	assignment *service.AssignmentService
}

// NewAgentTicketsHandler constructs handler.
func NewAgentTicketsHandler(lifecycle *service.LifecycleService, assignment *service.AssignmentService) *AgentTicketsHandler {
	return &AgentTicketsHandler{lifecycle: lifecycle, assignment: assignment}
}

// ListTickets GET /agent/tickets. Triaged tickets are hidden from
// level-1 agents.
func (h *AgentTicketsHandler) ListTickets(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	tickets := h.lifecycle.ListVisible(service.Actor{
		Type:        domain.SubjectTypeAgent,
		ID:          agent.ID,
		AccessLevel: agent.AccessLevel,
	})
	return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(tickets)})
}

// SelfAssign POST /agent/tickets/:id/claim.
func (h *AgentTicketsHandler) SelfAssign(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignment.SelfAssign(c.UserContext(), agent.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// StartProgress POST /agent/tickets/:id/start.
func (h *AgentTicketsHandler) StartProgress(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	ticket, err := h.lifecycle.StartProgress(c.UserContext(), agent.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Triage POST /agent/tickets/:id/triage.
func (h *AgentTicketsHandler) Triage(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	ticket, err := h.lifecycle.Triage(c.UserContext(), agent.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Close POST /agent/tickets/:id/close.
func (h *AgentTicketsHandler) Close(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	ticket, err := h.lifecycle.Close(c.UserContext(), agent.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Drop POST /agent/tickets/:id/drop.
func (h *AgentTicketsHandler) Drop(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	ticket, err := h.lifecycle.Drop(c.UserContext(), agent.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

func requireAgent(c *fiber.Ctx) (*domain.Agent, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	return principal.Agent, nil
}
