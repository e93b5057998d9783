package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TasksHandler manages administrative task endpoints.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: taskService}
}

// CreateTask POST /admin/tasks.
func (h *TasksHandler) CreateTask(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.Deadline != nil {
		input.Deadline = *req.Deadline
	}
	task, err := h.tasks.CreateTask(c.UserContext(), principal.Admin.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// ListTasks GET /admin/tasks.
func (h *TasksHandler) ListTasks(c *fiber.Ctx) error {
	tasks := h.tasks.ListAll()
	return c.JSON(fiber.Map{"data": dto.NewTaskListResponse(tasks)})
}

// Reassign PUT /admin/tasks/:id/assignees.
func (h *TasksHandler) Reassign(c *fiber.Ctx) error {
	var req dto.ReassignTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.AssignedTo) == 0 {
		return apperrors.NewValidationError("at least one assignee is required", nil)
	}
	task, err := h.tasks.Reassign(c.UserContext(), c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// DeleteTask DELETE /admin/tasks/:id.
func (h *TasksHandler) DeleteTask(c *fiber.Ctx) error {
	if err := h.tasks.DeleteTask(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListMyTasks GET /agent/tasks.
func (h *TasksHandler) ListMyTasks(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	tasks := h.tasks.ListForAgent(agent.ID)
	return c.JSON(fiber.Map{"data": dto.NewTaskListResponse(tasks)})
}

// CompleteTask POST /agent/tasks/:id/complete.
func (h *TasksHandler) CompleteTask(c *fiber.Ctx) error {
	agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Complete(c.UserContext(), c.Params("id"), agent.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}
