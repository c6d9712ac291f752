package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/comedorlabs/suministro/internal/factories"
	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/repositories/postgres"
)

var (
	seedDiners    int
	seedSuppliers int
	seedRecipes   int
)

// seedCmd loads a demo dataset: the ingredient catalog with stock levels, a
// week-long active planning period with assignments, and suppliers mapped to
// a subset of the catalog.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo ingredients, stock, menus and suppliers",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := runSeed(cmd.Context(), cfg); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedDiners, "diners", 119, "Estimated diners for the demo period")
	seedCmd.Flags().IntVar(&seedSuppliers, "suppliers", 4, "Number of demo suppliers")
	seedCmd.Flags().IntVar(&seedRecipes, "recipes", 8, "Number of demo recipes")
}

func runSeed(ctx context.Context, cfg *models.Config) error {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	inventoryRepo := postgres.NewInventoryRepository(pool)
	menuRepo := postgres.NewMenuRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	periodRepo := postgres.NewPeriodRepository(pool)

	ingredientFactory := &factories.IngredientFactory{}
	supplierFactory := &factories.SupplierFactory{}
	menuFactory := &factories.MenuFactory{}

	ingredients := ingredientFactory.CreateIngredients()
	bar := progressbar.Default(int64(4+seedSuppliers+seedRecipes), "seeding")

	if err := inventoryRepo.BulkCreateIngredients(ctx, ingredients); err != nil {
		return fmt.Errorf("failed to seed ingredients: %w", err)
	}
	bar.Add(1)

	stock := make([]*models.StockRecord, len(ingredients))
	for i, ingredient := range ingredients {
		stock[i] = ingredientFactory.CreateStock(ingredient)
	}
	if err := inventoryRepo.BulkCreateStock(ctx, stock); err != nil {
		return fmt.Errorf("failed to seed stock: %w", err)
	}
	bar.Add(1)

	for i := 0; i < seedSuppliers; i++ {
		supplier := supplierFactory.CreateSupplier()
		if err := supplierRepo.BulkCreate(ctx, []*models.Supplier{supplier}); err != nil {
			return fmt.Errorf("failed to seed supplier: %w", err)
		}
		mapped := supplierFactory.AssignIngredients(ingredients)
		if err := supplierRepo.BulkCreateMappings(ctx, supplier.ID, mapped); err != nil {
			return fmt.Errorf("failed to seed supplier mappings: %w", err)
		}
		bar.Add(1)
	}

	recipeIDs := make([]string, 0, seedRecipes)
	for i := 0; i < seedRecipes; i++ {
		recipeID, lines := menuFactory.CreateRecipe(ingredients)
		if err := menuRepo.BulkCreateRecipeIngredients(ctx, recipeID, lines); err != nil {
			return fmt.Errorf("failed to seed recipe: %w", err)
		}
		recipeIDs = append(recipeIDs, recipeID)
		bar.Add(1)
	}

	period := menuFactory.CreatePeriod(seedDiners)
	if err := periodRepo.Create(ctx, period); err != nil {
		return fmt.Errorf("failed to seed period: %w", err)
	}
	bar.Add(1)

	assignments := menuFactory.CreateAssignments(period, recipeIDs)
	if err := menuRepo.BulkCreateAssignments(ctx, assignments); err != nil {
		return fmt.Errorf("failed to seed assignments: %w", err)
	}
	bar.Add(1)

	log.Printf("Seeded %d ingredients, %d suppliers, %d recipes, period %s with %d assignments",
		len(ingredients), seedSuppliers, seedRecipes, period.ID, len(assignments))
	return nil
}
