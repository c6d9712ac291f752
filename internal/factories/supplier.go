package factories

import (
	"math/rand"
	"time"

	"github.com/lucsky/cuid"

	"github.com/comedorlabs/suministro/internal/models"
)

type SupplierFactory struct{}

func (sf *SupplierFactory) CreateSupplier() *models.Supplier {
	return &models.Supplier{
		ID:        cuid.New(),
		Name:      fake.Company().Name(),
		Phone:     fake.Phone().Number(),
		Email:     fake.Internet().CompanyEmail(),
		CreatedAt: time.Now(),
	}
}

// AssignIngredients picks a random subset of the catalog for one supplier.
// A deliberately small share of ingredients ends up with no supplier at all,
// which exercises the unfulfillable path of the order generator.
func (sf *SupplierFactory) AssignIngredients(ingredients []*models.Ingredient) []string {
	var assigned []string
	for _, ingredient := range ingredients {
		if rand.Intn(10) < 7 {
			assigned = append(assigned, ingredient.ID)
		}
	}
	return assigned
}
