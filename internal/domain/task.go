package domain

import "time"

// TaskStatus is derived from per-agent completion.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// Task is an administrative work item assigned to one or more agents,
// distinct from customer tickets.
type Task struct {
	ID          string
	Title       string
	Description string
	CreatorID   string
	AssignedTo  []string
	Completion  map[string]bool
	Deadline    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a copy that shares no mutable state with the receiver.
func (t Task) Clone() Task {
	if t.AssignedTo != nil {
		t.AssignedTo = append([]string(nil), t.AssignedTo...)
	}
	if t.Completion != nil {
		completion := make(map[string]bool, len(t.Completion))
		for agentID, done := range t.Completion {
			completion[agentID] = done
		}
		t.Completion = completion
	}
	return t
}

// Status is COMPLETED only when every assignee has completed.
func (t *Task) Status() TaskStatus {
	if len(t.AssignedTo) == 0 {
		return TaskStatusPending
	}
	for _, agentID := range t.AssignedTo {
		if !t.Completion[agentID] {
			return TaskStatusPending
		}
	}
	return TaskStatusCompleted
}

// AssignedToAgent reports whether agentID is among the task's assignees.
func (t *Task) AssignedToAgent(agentID string) bool {
	for _, id := range t.AssignedTo {
		if id == agentID {
			return true
		}
	}
	return false
}
