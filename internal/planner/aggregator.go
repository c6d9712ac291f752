// Package planner turns a planned menu window into per-ingredient
// requirement totals.
package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/repositories"
	"github.com/comedorlabs/suministro/internal/units"
)

// Window is the date range requirements are aggregated over, usually a
// planning period's dates.
type Window struct {
	From time.Time
	To   time.Time
}

// Requirement is the aggregated need for one ingredient across the window.
// It is derived per run and never persisted.
type Requirement struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Assignments  int     `json:"assignments"`
}

// Result carries the aggregated requirements plus the bookkeeping a caller
// needs to judge the run: how many assignments contributed and how many were
// skipped for lacking a resolved recipe.
type Result struct {
	Requirements map[string]*Requirement `json:"requirements"`
	Contributing int                     `json:"contributing"`
	Skipped      int                     `json:"skipped"`
}

// Sorted returns the requirements ordered by ingredient id, for stable
// reports.
func (r *Result) Sorted() []*Requirement {
	reqs := make([]*Requirement, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].IngredientID < reqs[j].IngredientID })
	return reqs
}

type Aggregator struct {
	menu repositories.MenuRepository
}

func NewAggregator(menu repositories.MenuRepository) *Aggregator {
	return &Aggregator{menu: menu}
}

// Aggregate walks every day assignment in the window and accumulates
// qtyPerPortion × diners(slot) per ingredient. Assignments without a
// resolved recipe are counted and skipped, never fatal. A resolver error
// aborts the whole run: a silent zero here would generate empty orders.
func (a *Aggregator) Aggregate(ctx context.Context, window Window, resolver DinerResolver) (*Result, error) {
	if resolver == nil {
		return nil, models.NewValidationError("missing diner resolver")
	}

	assignments, err := a.menu.GetAssignments(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	result := &Result{Requirements: make(map[string]*Requirement)}
	for _, assignment := range assignments {
		if assignment.RecipeID == "" {
			result.Skipped++
			continue
		}

		diners, err := resolver.DinersFor(ctx, assignment.Date, assignment.Slot)
		if err != nil {
			return nil, err
		}

		ingredients, err := a.menu.GetRecipeIngredients(ctx, assignment.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ingredients for recipe %s: %w", assignment.RecipeID, err)
		}

		for _, ri := range ingredients {
			qty := ri.QtyPerPortion * float64(diners)
			req, ok := result.Requirements[ri.IngredientID]
			if !ok {
				result.Requirements[ri.IngredientID] = &Requirement{
					IngredientID: ri.IngredientID,
					Quantity:     qty,
					Unit:         units.Normalize(ri.Unit),
					Assignments:  1,
				}
				continue
			}
			// recipes may express the same ingredient in different units
			req.Quantity += units.Convert(qty, ri.Unit, req.Unit)
			req.Assignments++
		}
		result.Contributing++
	}

	return result, nil
}
