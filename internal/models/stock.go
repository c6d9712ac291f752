package models

import "time"

type StockStatus string

const (
	StockNormal   StockStatus = "normal"
	StockCritical StockStatus = "critical"
	StockDepleted StockStatus = "depleted"
)

// StockRecord is the current inventory position of one ingredient. Status is
// always a pure function of quantity vs thresholds; use ComputedStatus after
// every mutation instead of trusting the stored value.
type StockRecord struct {
	IngredientID   string      `json:"ingredient_id"`
	IngredientName string      `json:"ingredient_name"`
	Quantity       float64     `json:"quantity"`
	Unit           string      `json:"unit"`
	MinThreshold   float64     `json:"min_threshold"`
	MaxThreshold   float64     `json:"max_threshold"`
	Status         StockStatus `json:"status"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ComputedStatus derives the status the record should carry given its
// current quantity and thresholds.
func (s *StockRecord) ComputedStatus() StockStatus {
	switch {
	case s.Quantity <= 0:
		return StockDepleted
	case s.Quantity <= s.MinThreshold:
		return StockCritical
	default:
		return StockNormal
	}
}
