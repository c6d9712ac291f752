package models

import "time"

type PeriodStatus string

const (
	PeriodPending   PeriodStatus = "pending"
	PeriodActive    PeriodStatus = "active"
	PeriodFinalized PeriodStatus = "finalized"
	PeriodCancelled PeriodStatus = "cancelled"
)

type ServiceSlot string

const (
	SlotBreakfast ServiceSlot = "breakfast"
	SlotLunch     ServiceSlot = "lunch"
	SlotSnack     ServiceSlot = "snack"
)

// ServiceSlots lists the slots in serving order. The split diner resolver
// assigns the division remainder to the last slot in this list.
var ServiceSlots = []ServiceSlot{SlotBreakfast, SlotLunch, SlotSnack}

// PlanningPeriod is the date range over which menus and supply needs are
// computed. At most one pending or active period is eligible for aggregation
// at a time.
type PlanningPeriod struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	EstimatedDiners int          `json:"estimated_diners"`
	Status          PeriodStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
}

// DayAssignment is one (date, service slot, recipe) tuple within a period.
// RecipeID is empty when no recipe has been assigned yet.
type DayAssignment struct {
	ID       string      `json:"id"`
	PeriodID string      `json:"period_id"`
	Date     time.Time   `json:"date"`
	Slot     ServiceSlot `json:"slot"`
	RecipeID string      `json:"recipe_id"`
}
