package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AlertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

const alertColumns = `id, ingredient_id, kind, notify_count, state, first_seen, last_sent, resolved_at`

func (r *AlertRepository) GetActiveAlert(ctx context.Context, ingredientID string) (*models.Alert, error) {
	query := `
        SELECT ` + alertColumns + `
        FROM alerts
        WHERE ingredient_id = $1 AND state IN ('active', 'completed')
    `
	alert := &models.Alert{}
	err := r.pool.QueryRow(ctx, query, ingredientID).Scan(
		&alert.ID,
		&alert.IngredientID,
		&alert.Kind,
		&alert.NotifyCount,
		&alert.State,
		&alert.FirstSeen,
		&alert.LastSent,
		&alert.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read alert for %s: %w", ingredientID, err)
	}
	return alert, nil
}

func (r *AlertRepository) GetOpenAlerts(ctx context.Context) ([]*models.Alert, error) {
	query := `
        SELECT ` + alertColumns + `
        FROM alerts
        WHERE state IN ('active', 'completed')
        ORDER BY first_seen
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert := &models.Alert{}
		err := rows.Scan(
			&alert.ID,
			&alert.IngredientID,
			&alert.Kind,
			&alert.NotifyCount,
			&alert.State,
			&alert.FirstSeen,
			&alert.LastSent,
			&alert.ResolvedAt,
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// CreateAlert inserts a new open alert. A partial unique index on
// (ingredient_id) WHERE state IN ('active','completed') keeps the at-most-one
// open alert invariant even when two pollers race; the losing insert is
// dropped silently.
func (r *AlertRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	query := `
        INSERT INTO alerts (id, ingredient_id, kind, notify_count, state, first_seen)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT DO NOTHING
    `
	_, err := r.pool.Exec(ctx, query,
		alert.ID,
		alert.IngredientID,
		alert.Kind,
		alert.NotifyCount,
		alert.State,
		alert.FirstSeen,
	)
	return err
}

// UpdateKind re-labels an open alert after the stock condition changed
// severity. Resolved alerts keep the kind they closed with.
func (r *AlertRepository) UpdateKind(ctx context.Context, alertID string, kind models.AlertKind) error {
	query := `
        UPDATE alerts
        SET kind = $2
        WHERE id = $1 AND state IN ('active', 'completed')
    `
	_, err := r.pool.Exec(ctx, query, alertID, kind)
	return err
}

// IncrementAlert advances the escalation counter in a single conditional
// update. The guard rejects resolved alerts and counters already at the cap;
// hitting the cap flips the state to completed in the same statement.
func (r *AlertRepository) IncrementAlert(ctx context.Context, alertID string, sentAt time.Time) (*models.Alert, error) {
	query := `
        UPDATE alerts
        SET notify_count = notify_count + 1,
            last_sent = $2,
            state = CASE WHEN notify_count + 1 >= $3 THEN 'completed' ELSE 'active' END
        WHERE id = $1 AND state = 'active' AND notify_count < $3
        RETURNING ` + alertColumns + `
    `
	alert := &models.Alert{}
	err := r.pool.QueryRow(ctx, query, alertID, sentAt, models.MaxAlertNotifications).Scan(
		&alert.ID,
		&alert.IngredientID,
		&alert.Kind,
		&alert.NotifyCount,
		&alert.State,
		&alert.FirstSeen,
		&alert.LastSent,
		&alert.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// lost the race against a resolve or the cap; nothing advanced
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment alert %s: %w", alertID, err)
	}
	return alert, nil
}

func (r *AlertRepository) ResolveAlert(ctx context.Context, alertID string, resolvedAt time.Time) error {
	query := `
        UPDATE alerts
        SET state = 'resolved', resolved_at = $2
        WHERE id = $1 AND state IN ('active', 'completed')
    `
	_, err := r.pool.Exec(ctx, query, alertID, resolvedAt)
	return err
}
