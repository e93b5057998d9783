package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// BreakSettingsRepository holds the single break policy row. Get reads
// the store on every call so admin updates take effect immediately.
type BreakSettingsRepository interface {
	Get(ctx context.Context) (domain.BreakSettings, error)
	Update(ctx context.Context, settings domain.BreakSettings) error
	Seed(ctx context.Context, defaults domain.BreakSettings) error
}

type breakSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewBreakSettingsRepository instantiates repository.
func NewBreakSettingsRepository(pool *pgxpool.Pool) BreakSettingsRepository {
	return &breakSettingsRepository{pool: pool}
}

func (r *breakSettingsRepository) Get(ctx context.Context) (domain.BreakSettings, error) {
	const query = `SELECT duration_minutes, daily_frequency FROM break_settings WHERE id=1`
	var settings domain.BreakSettings
	err := r.pool.QueryRow(ctx, query).Scan(&settings.DurationMinutes, &settings.DailyFrequency)
	return settings, err
}

func (r *breakSettingsRepository) Update(ctx context.Context, settings domain.BreakSettings) error {
	const query = `UPDATE break_settings SET duration_minutes=$1, daily_frequency=$2 WHERE id=1`
	_, err := r.pool.Exec(ctx, query, settings.DurationMinutes, settings.DailyFrequency)
	return err
}

func (r *breakSettingsRepository) Seed(ctx context.Context, defaults domain.BreakSettings) error {
	const query = `
        INSERT INTO break_settings (id, duration_minutes, daily_frequency)
        VALUES (1, $1, $2)
        ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, defaults.DurationMinutes, defaults.DailyFrequency)
	return err
}
