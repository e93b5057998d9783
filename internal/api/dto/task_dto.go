package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTaskRequest payload. Administrative.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  []string   `json:"assigned_to"`
	Deadline    *time.Time `json:"deadline"`
}

// ReassignTaskRequest payload.
type ReassignTaskRequest struct {
	AssignedTo []string `json:"assigned_to"`
}

// TaskResponse is the task view with derived status.
type TaskResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CreatorID   string            `json:"creator_id"`
	AssignedTo  []string          `json:"assigned_to"`
	Completion  map[string]bool   `json:"completion"`
	Status      domain.TaskStatus `json:"status"`
	Deadline    time.Time         `json:"deadline"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TaskListResponse wraps a task set.
type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
	Count int            `json:"count"`
}

// NewTaskResponse maps the domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		CreatorID:   task.CreatorID,
		AssignedTo:  task.AssignedTo,
		Completion:  task.Completion,
		Status:      task.Status(),
		Deadline:    task.Deadline,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// NewTaskListResponse maps a slice of tasks.
func NewTaskListResponse(tasks []domain.Task) TaskListResponse {
	items := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, NewTaskResponse(&tasks[i]))
	}
	return TaskListResponse{Items: items, Count: len(items)}
}
