package models

import "time"

type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderSubmitted OrderStatus = "submitted"
	OrderReceived  OrderStatus = "received"
	OrderCancelled OrderStatus = "cancelled"
)

type OrderOrigin string

const (
	OriginManual    OrderOrigin = "manual"
	OriginGenerated OrderOrigin = "generated"
)

// PurchaseOrder groups the shortfall lines routed to one supplier. Line
// quantities are always in each ingredient's inventory-native unit, never
// display units.
type PurchaseOrder struct {
	ID         string      `json:"id"`
	SupplierID string      `json:"supplier_id"`
	Status     OrderStatus `json:"status"`
	Origin     OrderOrigin `json:"origin"`
	CreatedAt  time.Time   `json:"created_at"`
	Lines      []OrderLine `json:"lines"`
}

type OrderLine struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}
