package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AgentRepository encapsulates agent persistence. ClaimTicket and
// ReleaseTicket are conditional single statements guarding the
// one-ticket-per-agent invariant at the store.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
	ListAll(ctx context.Context) ([]domain.Agent, error)
	// ClaimTicket records the hold iff the agent holds no ticket.
	ClaimTicket(ctx context.Context, agentID, ticketID string) error
	// ReleaseTicket clears the hold iff the agent holds exactly ticketID.
	ReleaseTicket(ctx context.Context, agentID, ticketID string) error
	SetOnBreak(ctx context.Context, agentID string, onBreak bool) error
	SetWorkingHours(ctx context.Context, agentID string, hours map[time.Weekday]domain.Shift) error
	SetVerifiedByEmail(ctx context.Context, email string) error
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

const agentColumns = `id, username, email, password_hash, access_level, working_hours, specialties, ticket_id, on_break, verified, created_at, updated_at`

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	hours, err := json.Marshal(agent.WorkingHours)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO agents (username, email, password_hash, access_level, working_hours, specialties)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		agent.Username,
		agent.Email,
		agent.PasswordHash,
		agent.AccessLevel,
		hours,
		agent.Specialties,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	const query = `SELECT ` + agentColumns + ` FROM agents WHERE id=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, id))
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	const query = `SELECT ` + agentColumns + ` FROM agents WHERE email=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, email))
}

func (r *agentRepository) ListAll(ctx context.Context) ([]domain.Agent, error) {
	const query = `SELECT ` + agentColumns + ` FROM agents ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Agent
	for rows.Next() {
		agent, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *agent)
	}
	return result, rows.Err()
}

func (r *agentRepository) ClaimTicket(ctx context.Context, agentID, ticketID string) error {
	const query = `
        UPDATE agents SET ticket_id=$2, updated_at=NOW()
        WHERE id=$1 AND ticket_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, agentID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *agentRepository) ReleaseTicket(ctx context.Context, agentID, ticketID string) error {
	const query = `
        UPDATE agents SET ticket_id=NULL, updated_at=NOW()
        WHERE id=$1 AND ticket_id=$2`
	cmd, err := r.pool.Exec(ctx, query, agentID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *agentRepository) SetOnBreak(ctx context.Context, agentID string, onBreak bool) error {
	const query = `UPDATE agents SET on_break=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, agentID, onBreak)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *agentRepository) SetWorkingHours(ctx context.Context, agentID string, hours map[time.Weekday]domain.Shift) error {
	encoded, err := json.Marshal(hours)
	if err != nil {
		return err
	}
	const query = `UPDATE agents SET working_hours=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, agentID, encoded)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *agentRepository) SetVerifiedByEmail(ctx context.Context, email string) error {
	const query = `UPDATE agents SET verified=TRUE, updated_at=NOW() WHERE email=$1`
	cmd, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *agentRepository) scanRow(row pgx.Row) (*domain.Agent, error) {
	var agent domain.Agent
	var hours []byte
	if err := row.Scan(
		&agent.ID,
		&agent.Username,
		&agent.Email,
		&agent.PasswordHash,
		&agent.AccessLevel,
		&hours,
		&agent.Specialties,
		&agent.TicketID,
		&agent.OnBreak,
		&agent.Verified,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &agent.WorkingHours); err != nil {
			return nil, err
		}
	}
	return &agent, nil
}
