package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// VerificationRepository persists one-time codes. Replace deletes prior
// codes for the email and inserts the new one in a single transaction,
// so at most one active code exists per email.
type VerificationRepository interface {
	Replace(ctx context.Context, code *domain.VerificationCode) error
	GetByEmailAndCode(ctx context.Context, email, code string, purpose domain.VerificationPurpose) (*domain.VerificationCode, error)
	Delete(ctx context.Context, id string) error
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository instantiates repository.
func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

func (r *verificationRepository) Replace(ctx context.Context, code *domain.VerificationCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM verification_codes WHERE email=$1`, code.Email); err != nil {
		return err
	}
	const query = `
        INSERT INTO verification_codes (email, code, purpose, created_at, expires_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	if err := tx.QueryRow(ctx, query,
		code.Email,
		code.Code,
		code.Purpose,
		code.CreatedAt,
		code.ExpiresAt,
	).Scan(&code.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *verificationRepository) GetByEmailAndCode(ctx context.Context, email, codeStr string, purpose domain.VerificationPurpose) (*domain.VerificationCode, error) {
	const query = `
        SELECT id, email, code, purpose, created_at, expires_at
        FROM verification_codes WHERE email=$1 AND code=$2 AND purpose=$3`
	var code domain.VerificationCode
	if err := r.pool.QueryRow(ctx, query, email, codeStr, purpose).Scan(
		&code.ID,
		&code.Email,
		&code.Code,
		&code.Purpose,
		&code.CreatedAt,
		&code.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *verificationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM verification_codes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
