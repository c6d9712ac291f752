package factories

import (
	"math/rand"
	"time"

	"github.com/lucsky/cuid"

	"github.com/comedorlabs/suministro/internal/models"
)

type MenuFactory struct{}

// CreatePeriod builds a week-long active planning period starting today.
func (mf *MenuFactory) CreatePeriod(estimatedDiners int) *models.PlanningPeriod {
	start := time.Now().Truncate(24 * time.Hour)
	return &models.PlanningPeriod{
		ID:              cuid.New(),
		Name:            "Semana " + start.Format("2006-01-02"),
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, 6),
		EstimatedDiners: estimatedDiners,
		Status:          models.PeriodActive,
		CreatedAt:       time.Now(),
	}
}

// CreateRecipe draws 3 to 6 ingredients from the catalog with per-portion
// quantities in each ingredient's own unit.
func (mf *MenuFactory) CreateRecipe(ingredients []*models.Ingredient) (string, []models.RecipeIngredient) {
	recipeID := cuid.New()
	count := rand.Intn(4) + 3
	picked := rand.Perm(len(ingredients))[:count]

	lines := make([]models.RecipeIngredient, 0, count)
	for _, idx := range picked {
		lines = append(lines, models.RecipeIngredient{
			IngredientID:  ingredients[idx].ID,
			QtyPerPortion: fake.Float64(0, 10, 250),
			Unit:          ingredients[idx].Unit,
		})
	}
	return recipeID, lines
}

// CreateAssignments fills every day and slot of the period, leaving a few
// slots without a recipe so aggregation reports skips.
func (mf *MenuFactory) CreateAssignments(period *models.PlanningPeriod, recipeIDs []string) []models.DayAssignment {
	var assignments []models.DayAssignment
	for day := period.StartDate; !day.After(period.EndDate); day = day.AddDate(0, 0, 1) {
		for _, slot := range models.ServiceSlots {
			recipeID := ""
			if rand.Intn(10) < 9 {
				recipeID = recipeIDs[rand.Intn(len(recipeIDs))]
			}
			assignments = append(assignments, models.DayAssignment{
				ID:       cuid.New(),
				PeriodID: period.ID,
				Date:     day,
				Slot:     slot,
				RecipeID: recipeID,
			})
		}
	}
	return assignments
}
