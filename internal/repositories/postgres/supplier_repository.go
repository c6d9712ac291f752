package postgres

import (
	"context"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SupplierRepository struct {
	pool *pgxpool.Pool
}

func NewSupplierRepository(pool *pgxpool.Pool) *SupplierRepository {
	return &SupplierRepository{pool: pool}
}

func (r *SupplierRepository) GetSuppliersFor(ctx context.Context, ingredientID string) ([]string, error) {
	query := `
        SELECT supplier_id
        FROM supplier_ingredients
        WHERE ingredient_id = $1
        ORDER BY supplier_id
    `
	rows, err := r.pool.Query(ctx, query, ingredientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, id)
	}
	return suppliers, rows.Err()
}

func (r *SupplierRepository) BulkCreate(ctx context.Context, suppliers []*models.Supplier) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"suppliers"},
		[]string{"id", "name", "phone", "email", "created_at"},
		pgx.CopyFromSlice(len(suppliers), func(i int) ([]interface{}, error) {
			return []interface{}{
				suppliers[i].ID,
				suppliers[i].Name,
				suppliers[i].Phone,
				suppliers[i].Email,
				suppliers[i].CreatedAt,
			}, nil
		}),
	)
	return err
}

func (r *SupplierRepository) BulkCreateMappings(ctx context.Context, supplierID string, ingredientIDs []string) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"supplier_ingredients"},
		[]string{"supplier_id", "ingredient_id"},
		pgx.CopyFromSlice(len(ingredientIDs), func(i int) ([]interface{}, error) {
			return []interface{}{supplierID, ingredientIDs[i]}, nil
		}),
	)
	return err
}
