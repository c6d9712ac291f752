package planner

import (
	"context"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/repositories"
)

// DinerResolver maps a (date, slot) pair to the number of diners to plan
// for. The strategy is the caller's choice; the aggregator never embeds one.
type DinerResolver interface {
	DinersFor(ctx context.Context, date time.Time, slot models.ServiceSlot) (int, error)
}

// PeriodEstimateResolver plans every service slot for the full period
// estimate: every expected diner eats every service.
type PeriodEstimateResolver struct {
	Estimate int
}

func (r *PeriodEstimateResolver) DinersFor(ctx context.Context, date time.Time, slot models.ServiceSlot) (int, error) {
	if r.Estimate <= 0 {
		return 0, models.NewValidationError("missing diner estimate for planning period")
	}
	return r.Estimate, nil
}

// SplitEstimateResolver divides the period estimate evenly across the three
// service slots, with the division remainder landing on the last slot.
type SplitEstimateResolver struct {
	Estimate int
}

func (r *SplitEstimateResolver) DinersFor(ctx context.Context, date time.Time, slot models.ServiceSlot) (int, error) {
	if r.Estimate <= 0 {
		return 0, models.NewValidationError("missing diner estimate for planning period")
	}
	share := r.Estimate / len(models.ServiceSlots)
	if slot == models.ServiceSlots[len(models.ServiceSlots)-1] {
		return share + r.Estimate%len(models.ServiceSlots), nil
	}
	return share, nil
}

// AttendanceResolver uses real recorded attendance per day and slot.
type AttendanceResolver struct {
	Attendance repositories.AttendanceRepository
}

func (r *AttendanceResolver) DinersFor(ctx context.Context, date time.Time, slot models.ServiceSlot) (int, error) {
	return r.Attendance.GetAttendance(ctx, date, slot)
}
