package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PeriodRepository struct {
	pool *pgxpool.Pool
}

func NewPeriodRepository(pool *pgxpool.Pool) *PeriodRepository {
	return &PeriodRepository{pool: pool}
}

// GetCurrent prefers the active period and falls back to the pending one.
func (r *PeriodRepository) GetCurrent(ctx context.Context) (*models.PlanningPeriod, error) {
	query := `
        SELECT id, name, start_date, end_date, estimated_diners, status, created_at
        FROM planning_periods
        WHERE status IN ('active', 'pending')
        ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END, start_date
        LIMIT 1
    `
	period := &models.PlanningPeriod{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&period.ID,
		&period.Name,
		&period.StartDate,
		&period.EndDate,
		&period.EstimatedDiners,
		&period.Status,
		&period.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return period, nil
}

func (r *PeriodRepository) ActivateDue(ctx context.Context, today time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE planning_periods
        SET status = 'active'
        WHERE status = 'pending' AND start_date <= $1
    `, today)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PeriodRepository) FinalizeExpired(ctx context.Context, today time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE planning_periods
        SET status = 'finalized'
        WHERE status = 'active' AND end_date < $1
    `, today)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PeriodRepository) Create(ctx context.Context, period *models.PlanningPeriod) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO planning_periods (id, name, start_date, end_date, estimated_diners, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `,
		period.ID,
		period.Name,
		period.StartDate,
		period.EndDate,
		period.EstimatedDiners,
		period.Status,
		period.CreatedAt,
	)
	return err
}
