package postgres

import (
	"context"
	"fmt"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateOrder persists the order and all of its lines in one transaction.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO purchase_orders (id, supplier_id, status, origin, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `,
		order.ID,
		order.SupplierID,
		order.Status,
		order.Origin,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order for supplier %s: %w", order.SupplierID, err)
	}

	for _, line := range order.Lines {
		_, err = tx.Exec(ctx, `
            INSERT INTO order_lines (order_id, ingredient_id, quantity, unit)
            VALUES ($1, $2, $3, $4)
        `,
			order.ID,
			line.IngredientID,
			line.Quantity,
			line.Unit,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order line %s: %w", line.IngredientID, err)
		}
	}

	return tx.Commit(ctx)
}
