package models

import "time"

type Ingredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"` // inventory-native unit, e.g. "Gramos"
	Category string `json:"category"`
}

type RecipeIngredient struct {
	IngredientID  string  `json:"ingredient_id"`
	QtyPerPortion float64 `json:"qty_per_portion"`
	Unit          string  `json:"unit"`
}

type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
