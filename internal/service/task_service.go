package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TaskService manages administrative tasks assigned to agents.
type TaskService struct {
	reg   *registry.Registry
	tasks repository.TaskRepository
	now   func() time.Time
}

// TaskDependencies bundles collaborators for the task service.
type TaskDependencies struct {
	Registry *registry.Registry
	TaskRepo repository.TaskRepository
}

// NewTaskService builds the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		reg:   deps.Registry,
		tasks: deps.TaskRepo,
		now:   time.Now,
	}
}

// CreateTaskInput is the admin-facing creation payload.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  []string
	Deadline    time.Time
}

// CreateTask records a task and assigns it to the given agents. Every
// assignee must be a known agent.
func (s *TaskService) CreateTask(ctx context.Context, adminID string, input CreateTaskInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if len(input.AssignedTo) == 0 {
		return nil, apperrors.NewValidationError("at least one assignee is required", nil)
	}
	assignees, err := s.dedupeAgents(input.AssignedTo)
	if err != nil {
		return nil, err
	}

	deadline := input.Deadline
	if deadline.IsZero() {
		deadline = s.now().Add(domain.TicketDeadline)
	}

	completion := make(map[string]bool, len(assignees))
	for _, agentID := range assignees {
		completion[agentID] = false
	}
	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		CreatorID:   adminID,
		AssignedTo:  assignees,
		Completion:  completion,
		Deadline:    deadline,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutTask(*task)
	return task, nil
}

// Reassign replaces the assignee set. Completion flags of agents kept
// across the change survive; new agents start pending.
func (s *TaskService) Reassign(ctx context.Context, taskID string, agentIDs []string) (*domain.Task, error) {
	task, ok := s.reg.Task(taskID)
	if !ok {
		return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
	}
	assignees, err := s.dedupeAgents(agentIDs)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.SetAssignees(ctx, taskID, assignees); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	kept := task.Completion
	task.AssignedTo = assignees
	task.Completion = make(map[string]bool, len(assignees))
	for _, agentID := range assignees {
		task.Completion[agentID] = kept[agentID]
		if err := s.tasks.SetCompletion(ctx, taskID, agentID, kept[agentID]); err != nil {
			return nil, apperrors.NewStorageError(err)
		}
	}
	s.reg.PutTask(task)
	return &task, nil
}

// Complete marks the calling agent's share of the task done. Only
// assignees may complete.
func (s *TaskService) Complete(ctx context.Context, taskID, agentID string) (*domain.Task, error) {
	task, ok := s.reg.Task(taskID)
	if !ok {
		return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
	}
	if !task.AssignedToAgent(agentID) {
		return nil, apperrors.NewForbidden("task is not assigned to this agent")
	}
	if task.Completion[agentID] {
		return &task, nil
	}

	if err := s.tasks.SetCompletion(ctx, taskID, agentID, true); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.SetTaskCompletion(taskID, agentID, true)
	if task, ok = s.reg.Task(taskID); !ok {
		return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
	}
	return &task, nil
}

// ListForAgent returns tasks assigned to the agent, oldest first.
func (s *TaskService) ListForAgent(agentID string) []domain.Task {
	all := s.reg.Tasks()
	var result []domain.Task
	for _, task := range all {
		if task.AssignedToAgent(agentID) {
			result = append(result, task)
		}
	}
	return result
}

// ListAll returns every task, oldest first. Administrative view.
func (s *TaskService) ListAll() []domain.Task {
	return s.reg.Tasks()
}

// DeleteTask removes a task. Administrative operation.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	if _, ok := s.reg.Task(taskID); !ok {
		return apperrors.NewNotFound("task", map[string]any{"id": taskID})
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("task", map[string]any{"id": taskID})
		}
		return apperrors.NewStorageError(err)
	}
	s.reg.DeleteTask(taskID)
	return nil
}

func (s *TaskService) dedupeAgents(agentIDs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(agentIDs))
	var result []string
	for _, agentID := range agentIDs {
		if _, dup := seen[agentID]; dup {
			continue
		}
		if _, ok := s.reg.Agent(agentID); !ok {
			return nil, apperrors.NewNotFound("agent", map[string]any{"id": agentID})
		}
		seen[agentID] = struct{}{}
		result = append(result, agentID)
	}
	sort.Strings(result)
	return result, nil
}
