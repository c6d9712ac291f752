package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendanceRepository struct {
	pool *pgxpool.Pool
}

func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// GetAttendance returns the recorded diner count for one date and slot.
// Zero with no error means nothing was recorded.
func (r *AttendanceRepository) GetAttendance(ctx context.Context, date time.Time, slot models.ServiceSlot) (int, error) {
	query := `
        SELECT count(*)
        FROM attendance_records
        WHERE date = $1 AND slot = $2 AND present
    `
	var count int
	err := r.pool.QueryRow(ctx, query, date, slot).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}
