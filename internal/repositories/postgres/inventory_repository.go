package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

const stockColumns = `
        s.ingredient_id,
        i.name,
        s.quantity,
        s.unit,
        s.min_threshold,
        s.max_threshold,
        s.status,
        s.updated_at
`

func (r *InventoryRepository) GetStock(ctx context.Context, ingredientID string) (*models.StockRecord, error) {
	query := `
        SELECT ` + stockColumns + `
        FROM stock_records s
        JOIN ingredients i ON i.id = s.ingredient_id
        WHERE s.ingredient_id = $1
    `
	record := &models.StockRecord{}
	err := r.pool.QueryRow(ctx, query, ingredientID).Scan(
		&record.IngredientID,
		&record.IngredientName,
		&record.Quantity,
		&record.Unit,
		&record.MinThreshold,
		&record.MaxThreshold,
		&record.Status,
		&record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stock for %s: %w", ingredientID, err)
	}
	return record, nil
}

func (r *InventoryRepository) GetAbnormalStock(ctx context.Context) ([]*models.StockRecord, error) {
	query := `
        SELECT ` + stockColumns + `
        FROM stock_records s
        JOIN ingredients i ON i.id = s.ingredient_id
        WHERE s.status IN ('critical', 'depleted')
        ORDER BY s.ingredient_id
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.StockRecord
	for rows.Next() {
		record := &models.StockRecord{}
		err := rows.Scan(
			&record.IngredientID,
			&record.IngredientName,
			&record.Quantity,
			&record.Unit,
			&record.MinThreshold,
			&record.MaxThreshold,
			&record.Status,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *InventoryRepository) SetStatus(ctx context.Context, ingredientID string, status models.StockStatus) error {
	query := `
        UPDATE stock_records
        SET status = $2, updated_at = now()
        WHERE ingredient_id = $1
    `
	_, err := r.pool.Exec(ctx, query, ingredientID, status)
	return err
}

func (r *InventoryRepository) BulkCreateIngredients(ctx context.Context, ingredients []*models.Ingredient) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"ingredients"},
		[]string{"id", "name", "unit", "category"},
		pgx.CopyFromSlice(len(ingredients), func(i int) ([]interface{}, error) {
			return []interface{}{
				ingredients[i].ID,
				ingredients[i].Name,
				ingredients[i].Unit,
				ingredients[i].Category,
			}, nil
		}),
	)
	return err
}

func (r *InventoryRepository) BulkCreateStock(ctx context.Context, records []*models.StockRecord) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"stock_records"},
		[]string{"ingredient_id", "quantity", "unit", "min_threshold", "max_threshold", "status", "updated_at"},
		pgx.CopyFromSlice(len(records), func(i int) ([]interface{}, error) {
			return []interface{}{
				records[i].IngredientID,
				records[i].Quantity,
				records[i].Unit,
				records[i].MinThreshold,
				records[i].MaxThreshold,
				records[i].ComputedStatus(),
				records[i].UpdatedAt,
			}, nil
		}),
	)
	return err
}
