// Package factories builds demo data for local runs of the engine.
package factories

import (
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/units"
)

var fake = faker.New()

type IngredientFactory struct{}

type catalogEntry struct {
	name     string
	unit     string
	category string
}

var ingredientCatalog = []catalogEntry{
	{"Harina de trigo", units.Gramos, "dry_goods"},
	{"Arroz", units.Gramos, "dry_goods"},
	{"Frijol", units.Gramos, "dry_goods"},
	{"Azúcar", units.Gramos, "dry_goods"},
	{"Sal", units.Gramos, "condiments"},
	{"Aceite vegetal", units.Mililitros, "condiments"},
	{"Leche", units.Mililitros, "dairy"},
	{"Queso fresco", units.Gramos, "dairy"},
	{"Pollo", units.Gramos, "protein"},
	{"Carne de res", units.Gramos, "protein"},
	{"Huevo", units.Unidades, "protein"},
	{"Tomate", units.Gramos, "produce"},
	{"Cebolla", units.Gramos, "produce"},
	{"Papa", units.Gramos, "produce"},
	{"Zanahoria", units.Gramos, "produce"},
	{"Plátano", units.Unidades, "produce"},
}

// CreateIngredients returns the full demo catalog with fresh ids.
func (f *IngredientFactory) CreateIngredients() []*models.Ingredient {
	ingredients := make([]*models.Ingredient, len(ingredientCatalog))
	for i, entry := range ingredientCatalog {
		ingredients[i] = &models.Ingredient{
			ID:       cuid.New(),
			Name:     entry.name,
			Unit:     entry.unit,
			Category: entry.category,
		}
	}
	return ingredients
}

// CreateStock builds a stock record for an ingredient with plausible levels;
// roughly one in four starts below its minimum threshold so the alert poller
// has something to chew on.
func (f *IngredientFactory) CreateStock(ingredient *models.Ingredient) *models.StockRecord {
	min := fake.Float64(0, 500, 5000)
	record := &models.StockRecord{
		IngredientID:   ingredient.ID,
		IngredientName: ingredient.Name,
		Unit:           ingredient.Unit,
		MinThreshold:   min,
		MaxThreshold:   min * fake.Float64(1, 3, 6),
		Quantity:       min * fake.Float64(1, 2, 4),
		UpdatedAt:      time.Now(),
	}
	if rand.Intn(4) == 0 {
		record.Quantity = min * fake.Float64(2, 0, 90) / 100
	}
	record.Status = record.ComputedStatus()
	return record
}
