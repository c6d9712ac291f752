package postgres

import (
	"context"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

func (r *MenuRepository) GetAssignments(ctx context.Context, from, to time.Time) ([]models.DayAssignment, error) {
	query := `
        SELECT id, period_id, date, slot, COALESCE(recipe_id, '')
        FROM day_assignments
        WHERE date >= $1 AND date <= $2
        ORDER BY date, slot
    `
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.DayAssignment
	for rows.Next() {
		var a models.DayAssignment
		if err := rows.Scan(&a.ID, &a.PeriodID, &a.Date, &a.Slot, &a.RecipeID); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *MenuRepository) GetRecipeIngredients(ctx context.Context, recipeID string) ([]models.RecipeIngredient, error) {
	query := `
        SELECT ingredient_id, qty_per_portion, unit
        FROM recipe_ingredients
        WHERE recipe_id = $1
    `
	rows, err := r.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []models.RecipeIngredient
	for rows.Next() {
		var ri models.RecipeIngredient
		if err := rows.Scan(&ri.IngredientID, &ri.QtyPerPortion, &ri.Unit); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ri)
	}
	return ingredients, rows.Err()
}

func (r *MenuRepository) BulkCreateAssignments(ctx context.Context, assignments []models.DayAssignment) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"day_assignments"},
		[]string{"id", "period_id", "date", "slot", "recipe_id"},
		pgx.CopyFromSlice(len(assignments), func(i int) ([]interface{}, error) {
			return []interface{}{
				assignments[i].ID,
				assignments[i].PeriodID,
				assignments[i].Date,
				assignments[i].Slot,
				assignments[i].RecipeID,
			}, nil
		}),
	)
	return err
}

func (r *MenuRepository) BulkCreateRecipeIngredients(ctx context.Context, recipeID string, ingredients []models.RecipeIngredient) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"recipe_ingredients"},
		[]string{"recipe_id", "ingredient_id", "qty_per_portion", "unit"},
		pgx.CopyFromSlice(len(ingredients), func(i int) ([]interface{}, error) {
			return []interface{}{
				recipeID,
				ingredients[i].IngredientID,
				ingredients[i].QtyPerPortion,
				ingredients[i].Unit,
			}, nil
		}),
	)
	return err
}
