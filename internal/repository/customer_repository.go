package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CustomerRepository encapsulates customer persistence.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	ListAll(ctx context.Context) ([]domain.Customer, error)
	SetTicketState(ctx context.Context, customerID, ticketID string, state domain.CustomerTicketState) error
	SetVerifiedByEmail(ctx context.Context, email string) error
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerColumns = `id, username, email, password_hash, verified, tickets, register_date, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (username, email, password_hash)
        VALUES ($1,$2,$3)
        RETURNING id, register_date, updated_at`
	return r.pool.QueryRow(ctx, query,
		customer.Username,
		customer.Email,
		customer.PasswordHash,
	).Scan(&customer.ID, &customer.RegisterDate, &customer.UpdatedAt)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, id))
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const query = `SELECT ` + customerColumns + ` FROM customers WHERE email=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, email))
}

func (r *customerRepository) ListAll(ctx context.Context) ([]domain.Customer, error) {
	const query = `SELECT ` + customerColumns + ` FROM customers ORDER BY register_date`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		customer, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *customer)
	}
	return result, rows.Err()
}

func (r *customerRepository) SetTicketState(ctx context.Context, customerID, ticketID string, state domain.CustomerTicketState) error {
	const query = `
        UPDATE customers
        SET tickets = jsonb_set(tickets, ARRAY[$2], to_jsonb($3::text)), updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, customerID, ticketID, string(state))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) SetVerifiedByEmail(ctx context.Context, email string) error {
	const query = `UPDATE customers SET verified=TRUE, updated_at=NOW() WHERE email=$1`
	cmd, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) scanRow(row pgx.Row) (*domain.Customer, error) {
	var customer domain.Customer
	var tickets []byte
	if err := row.Scan(
		&customer.ID,
		&customer.Username,
		&customer.Email,
		&customer.PasswordHash,
		&customer.Verified,
		&tickets,
		&customer.RegisterDate,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(tickets) > 0 {
		if err := json.Unmarshal(tickets, &customer.Tickets); err != nil {
			return nil, err
		}
	}
	if customer.Tickets == nil {
		customer.Tickets = map[string]domain.CustomerTicketState{}
	}
	return &customer, nil
}
