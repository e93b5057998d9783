package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Assignment-critical
// mutations are single conditional statements so two racing callers
// resolve at the store, not in application code.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	// ClaimForAgent assigns the ticket iff it is still UNASSIGNED.
	ClaimForAgent(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error)
	// Release returns the ticket to the pool iff agentID holds it,
	// writing the given priority/triaged values in the same statement.
	Release(ctx context.Context, ticketID, agentID string, priority int, triaged bool) (*domain.Ticket, error)
	// Complete moves the ticket to its terminal state iff agentID holds it.
	Complete(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error)
	// SetStatus flips between ASSIGNED and IN_PROGRESS for the holder.
	SetStatus(ctx context.Context, ticketID, agentID string, status domain.TicketStatus) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, type, creator_id, assigned_to, status, priority, triaged, deadline, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, type, creator_id, status, priority, triaged, deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Type,
		ticket.CreatorID,
		ticket.Status,
		ticket.Priority,
		ticket.Triaged,
		ticket.Deadline,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ClaimForAgent(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET assigned_to=$2, status=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4
        RETURNING ` + ticketColumns
	ticket, err := r.scanRow(r.pool.QueryRow(ctx, query,
		ticketID, agentID, domain.TicketStatusAssigned, domain.TicketStatusUnassigned))
	if err == pgx.ErrNoRows {
		return nil, ErrConditionFailed
	}
	return ticket, err
}

func (r *ticketRepository) Release(ctx context.Context, ticketID, agentID string, priority int, triaged bool) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET assigned_to=NULL, status=$3, priority=$4, triaged=$5, updated_at=NOW()
        WHERE id=$1 AND assigned_to=$2 AND status IN ($6,$7)
        RETURNING ` + ticketColumns
	ticket, err := r.scanRow(r.pool.QueryRow(ctx, query,
		ticketID, agentID, domain.TicketStatusUnassigned, priority, triaged,
		domain.TicketStatusAssigned, domain.TicketStatusInProgress))
	if err == pgx.ErrNoRows {
		return nil, ErrConditionFailed
	}
	return ticket, err
}

func (r *ticketRepository) Complete(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET assigned_to=NULL, status=$3, updated_at=NOW()
        WHERE id=$1 AND assigned_to=$2 AND status IN ($4,$5)
        RETURNING ` + ticketColumns
	ticket, err := r.scanRow(r.pool.QueryRow(ctx, query,
		ticketID, agentID, domain.TicketStatusCompleted,
		domain.TicketStatusAssigned, domain.TicketStatusInProgress))
	if err == pgx.ErrNoRows {
		return nil, ErrConditionFailed
	}
	return ticket, err
}

func (r *ticketRepository) SetStatus(ctx context.Context, ticketID, agentID string, status domain.TicketStatus) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET status=$3, updated_at=NOW()
        WHERE id=$1 AND assigned_to=$2 AND status IN ($4,$5)
        RETURNING ` + ticketColumns
	ticket, err := r.scanRow(r.pool.QueryRow(ctx, query,
		ticketID, agentID, status,
		domain.TicketStatusAssigned, domain.TicketStatusInProgress))
	if err == pgx.ErrNoRows {
		return nil, ErrConditionFailed
	}
	return ticket, err
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) scanRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Type,
		&ticket.CreatorID,
		&ticket.AssigneeID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Triaged,
		&ticket.Deadline,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
