package repositories

import (
	"context"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
)

// MenuRepository supplies planned day/service/recipe assignments and
// per-recipe ingredient lists.
type MenuRepository interface {
	GetAssignments(ctx context.Context, from, to time.Time) ([]models.DayAssignment, error)
	GetRecipeIngredients(ctx context.Context, recipeID string) ([]models.RecipeIngredient, error)
}

// InventoryRepository supplies current stock, thresholds and status per
// ingredient.
type InventoryRepository interface {
	GetStock(ctx context.Context, ingredientID string) (*models.StockRecord, error)
	// GetAbnormalStock returns every record whose stored status is critical
	// or depleted.
	GetAbnormalStock(ctx context.Context) ([]*models.StockRecord, error)
	SetStatus(ctx context.Context, ingredientID string, status models.StockStatus) error
}

// SupplierRepository routes shortfall ingredients to the suppliers able to
// fulfil them.
type SupplierRepository interface {
	GetSuppliersFor(ctx context.Context, ingredientID string) ([]string, error)
}

// OrderRepository persists generated purchase orders. CreateOrder is
// transactional: the order and all its lines succeed or none do.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.PurchaseOrder) error
}

// AlertRepository persists per-ingredient alert state. IncrementAlert must be
// a single atomic conditional update so a stock movement racing an alert
// check cannot lose a counter advance or push it past the cap.
type AlertRepository interface {
	GetActiveAlert(ctx context.Context, ingredientID string) (*models.Alert, error)
	GetOpenAlerts(ctx context.Context) ([]*models.Alert, error)
	CreateAlert(ctx context.Context, alert *models.Alert) error
	// UpdateKind re-labels an open alert when the stock condition changes
	// severity, e.g. critical stock running out entirely.
	UpdateKind(ctx context.Context, alertID string, kind models.AlertKind) error
	IncrementAlert(ctx context.Context, alertID string, sentAt time.Time) (*models.Alert, error)
	ResolveAlert(ctx context.Context, alertID string, resolvedAt time.Time) error
}

// PeriodRepository tracks planning periods and their lifecycle.
type PeriodRepository interface {
	// GetCurrent returns the single period eligible for aggregation: the
	// active one, or failing that the pending one. Nil when neither exists.
	GetCurrent(ctx context.Context) (*models.PlanningPeriod, error)
	// ActivateDue promotes pending periods whose start date has arrived.
	ActivateDue(ctx context.Context, today time.Time) (int, error)
	// FinalizeExpired closes active periods whose end date has passed.
	FinalizeExpired(ctx context.Context, today time.Time) (int, error)
}

// AttendanceRepository reports real recorded diners per day and slot, for
// callers that prefer actual attendance over the period estimate.
type AttendanceRepository interface {
	GetAttendance(ctx context.Context, date time.Time, slot models.ServiceSlot) (int, error)
}
