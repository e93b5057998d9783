package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// BreakRepository persists per-day break records. Rows from prior days
// are purged lazily on the next eligibility check, not by a sweep.
type BreakRepository interface {
	Insert(ctx context.Context, record *domain.BreakRecord) error
	CountForDay(ctx context.Context, agentID string, day time.Time) (int, error)
	LatestForDay(ctx context.Context, agentID string, day time.Time) (*domain.BreakRecord, error)
	PurgeBefore(ctx context.Context, agentID string, day time.Time) error
}

type breakRepository struct {
	pool *pgxpool.Pool
}

// NewBreakRepository instantiates repository.
func NewBreakRepository(pool *pgxpool.Pool) BreakRepository {
	return &breakRepository{pool: pool}
}

func (r *breakRepository) Insert(ctx context.Context, record *domain.BreakRecord) error {
	const query = `
        INSERT INTO break_records (agent_id, break_date, break_number, break_start)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		record.AgentID,
		record.BreakDate,
		record.BreakNumber,
		record.BreakStart,
	).Scan(&record.ID)
}

func (r *breakRepository) CountForDay(ctx context.Context, agentID string, day time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM break_records WHERE agent_id=$1 AND break_date=$2`
	var count int
	if err := r.pool.QueryRow(ctx, query, agentID, day).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *breakRepository) LatestForDay(ctx context.Context, agentID string, day time.Time) (*domain.BreakRecord, error) {
	const query = `
        SELECT id, agent_id, break_date, break_number, break_start
        FROM break_records WHERE agent_id=$1 AND break_date=$2
        ORDER BY break_number DESC LIMIT 1`
	var record domain.BreakRecord
	err := r.pool.QueryRow(ctx, query, agentID, day).Scan(
		&record.ID,
		&record.AgentID,
		&record.BreakDate,
		&record.BreakNumber,
		&record.BreakStart,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *breakRepository) PurgeBefore(ctx context.Context, agentID string, day time.Time) error {
	const query = `DELETE FROM break_records WHERE agent_id=$1 AND break_date < $2`
	_, err := r.pool.Exec(ctx, query, agentID, day)
	return err
}
