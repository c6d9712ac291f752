// Package generator diffs aggregated requirements against live stock and
// turns shortfalls into supplier-grouped draft purchase orders.
package generator

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/lucsky/cuid"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/planner"
	"github.com/comedorlabs/suministro/internal/repositories"
	"github.com/comedorlabs/suministro/internal/units"
)

// DefaultSafetyBuffer is the over-order fraction applied when an ingredient
// has no usable max threshold: order 120% of the shortfall.
const DefaultSafetyBuffer = 0.2

// Shortfall describes one ingredient whose stock does not cover the
// requirement. Quantities are in the ingredient's best display unit except
// OrderQty, which is in the inventory-native unit orders are recorded in.
type Shortfall struct {
	IngredientID   string  `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	Required       float64 `json:"required"`
	Available      float64 `json:"available"`
	Deficit        float64 `json:"deficit"`
	Unit           string  `json:"unit"`
	OrderQty       float64 `json:"order_qty"`
	OrderUnit      string  `json:"order_unit"`
	SupplierID     string  `json:"supplier_id,omitempty"`
}

// OrderFailure records one supplier whose order could not be persisted.
type OrderFailure struct {
	SupplierID string `json:"supplier_id"`
	Err        string `json:"error"`
}

// Result enumerates everything a run produced. Unfulfillable ingredients and
// failed orders are reported, not raised; partial success is expected.
type Result struct {
	OrdersCreated []*models.PurchaseOrder `json:"orders_created"`
	Shortfalls    []Shortfall             `json:"shortfalls"`
	Unfulfillable []string                `json:"unfulfillable"`
	// UnitMismatch lists ingredients whose stock unit cannot be converted to
	// the requirement unit; no order is generated from incomparable
	// magnitudes.
	UnitMismatch []string       `json:"unit_mismatch,omitempty"`
	Failed       []OrderFailure `json:"failed,omitempty"`
}

type Generator struct {
	inventory repositories.InventoryRepository
	suppliers repositories.SupplierRepository
	orders    repositories.OrderRepository

	mu           sync.RWMutex
	safetyBuffer float64
	now          func() time.Time
}

func NewGenerator(inventory repositories.InventoryRepository, suppliers repositories.SupplierRepository, orders repositories.OrderRepository) *Generator {
	return &Generator{
		inventory:    inventory,
		suppliers:    suppliers,
		orders:       orders,
		safetyBuffer: DefaultSafetyBuffer,
		now:          time.Now,
	}
}

// SetSafetyBuffer updates the over-order fraction for ingredients without a
// max threshold. Non-positive values fall back to the default. Safe to call
// while a generation run is in flight.
func (g *Generator) SetSafetyBuffer(buffer float64) {
	if buffer <= 0 {
		buffer = DefaultSafetyBuffer
	}
	g.mu.Lock()
	g.safetyBuffer = buffer
	g.mu.Unlock()
}

// Generate reads each ingredient's stock exactly once, decides its shortfall
// in the best display unit, and groups order lines into one draft purchase
// order per supplier. Orders are persisted transactionally per supplier; one
// supplier's failure never aborts the others.
func (g *Generator) Generate(ctx context.Context, requirements map[string]*planner.Requirement) (*Result, error) {
	result := &Result{}
	drafts := make(map[string]*models.PurchaseOrder)

	for _, ingredientID := range sortedKeys(requirements) {
		req := requirements[ingredientID]

		stock, err := g.inventory.GetStock(ctx, ingredientID)
		if err != nil {
			return nil, fmt.Errorf("failed to read stock for %s: %w", ingredientID, err)
		}

		if stock != nil && !units.Convertible(stock.Unit, req.Unit) {
			log.Printf("Skipping %s: stock unit %s is not comparable with requirement unit %s",
				ingredientID, stock.Unit, req.Unit)
			result.UnitMismatch = append(result.UnitMismatch, ingredientID)
			continue
		}

		shortfall, ok := g.diff(req, stock)
		if !ok {
			continue
		}

		supplierIDs, err := g.suppliers.GetSuppliersFor(ctx, ingredientID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve suppliers for %s: %w", ingredientID, err)
		}
		if len(supplierIDs) == 0 {
			result.Unfulfillable = append(result.Unfulfillable, ingredientID)
			result.Shortfalls = append(result.Shortfalls, shortfall)
			continue
		}

		supplierID := supplierIDs[0]
		order, exists := drafts[supplierID]
		if !exists {
			order = &models.PurchaseOrder{
				ID:         cuid.New(),
				SupplierID: supplierID,
				Status:     models.OrderDraft,
				Origin:     models.OriginGenerated,
				CreatedAt:  g.now(),
			}
			drafts[supplierID] = order
		}
		order.Lines = append(order.Lines, models.OrderLine{
			IngredientID: ingredientID,
			Quantity:     shortfall.OrderQty,
			Unit:         shortfall.OrderUnit,
		})
		shortfall.SupplierID = supplierID
		result.Shortfalls = append(result.Shortfalls, shortfall)
	}

	for _, supplierID := range sortedKeys(drafts) {
		order := drafts[supplierID]
		if err := g.orders.CreateOrder(ctx, order); err != nil {
			log.Printf("Failed to persist order for supplier %s: %v", supplierID, err)
			result.Failed = append(result.Failed, OrderFailure{SupplierID: supplierID, Err: err.Error()})
			continue
		}
		result.OrdersCreated = append(result.OrdersCreated, order)
	}

	return result, nil
}

// diff compares one requirement against its stock in the requirement's best
// display unit and, on a shortfall, computes the order quantity back in the
// stock's native unit. Missing stock counts as zero on hand in the
// requirement's own unit.
func (g *Generator) diff(req *planner.Requirement, stock *models.StockRecord) (Shortfall, bool) {
	required, bestUnit := units.BestUnit(req.Quantity, req.Unit)

	nativeUnit := req.Unit
	var available, maxThreshold float64
	name := req.IngredientID
	if stock != nil {
		nativeUnit = stock.Unit
		available = units.Convert(stock.Quantity, stock.Unit, bestUnit)
		maxThreshold = stock.MaxThreshold
		if stock.IngredientName != "" {
			name = stock.IngredientName
		}
	}

	deficit := available - required
	if deficit >= 0 {
		return Shortfall{}, false
	}

	g.mu.RLock()
	buffer := g.safetyBuffer
	g.mu.RUnlock()

	// prefer restocking to the max threshold; fall back to the shortfall
	// plus the safety buffer
	target := math.Abs(deficit) * (1 + buffer)
	if maxThreshold > 0 {
		target = units.Convert(maxThreshold, nativeUnit, bestUnit)
	}

	return Shortfall{
		IngredientID:   req.IngredientID,
		IngredientName: name,
		Required:       required,
		Available:      available,
		Deficit:        deficit,
		Unit:           bestUnit,
		OrderQty:       units.Convert(target, bestUnit, nativeUnit),
		OrderUnit:      nativeUnit,
	}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
