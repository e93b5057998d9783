package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TaskRepository encapsulates administrative task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListAll(ctx context.Context) ([]domain.Task, error)
	ListByAgent(ctx context.Context, agentID string) ([]domain.Task, error)
	SetCompletion(ctx context.Context, taskID, agentID string, done bool) error
	SetAssignees(ctx context.Context, taskID string, agentIDs []string) error
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, title, description, creator_id, assigned_to, completion, deadline, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	completion, err := json.Marshal(task.Completion)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tasks (title, description, creator_id, assigned_to, completion, deadline)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.CreatorID,
		task.AssignedTo,
		completion,
		task.Deadline,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, id))
}

func (r *taskRepository) ListAll(ctx context.Context) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *taskRepository) ListByAgent(ctx context.Context, agentID string) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE $1::uuid = ANY(assigned_to) ORDER BY created_at`
	return r.list(ctx, query, agentID)
}

func (r *taskRepository) SetCompletion(ctx context.Context, taskID, agentID string, done bool) error {
	const query = `
        UPDATE tasks
        SET completion = jsonb_set(completion, ARRAY[$2], to_jsonb($3::boolean)), updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, taskID, agentID, done)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) SetAssignees(ctx context.Context, taskID string, agentIDs []string) error {
	const query = `UPDATE tasks SET assigned_to=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, taskID, agentIDs)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) list(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		task, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func (r *taskRepository) scanRow(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var completion []byte
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.CreatorID,
		&task.AssignedTo,
		&completion,
		&task.Deadline,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(completion) > 0 {
		if err := json.Unmarshal(completion, &task.Completion); err != nil {
			return nil, err
		}
	}
	if task.Completion == nil {
		task.Completion = map[string]bool{}
	}
	return &task, nil
}
