package models

import "time"

type AlertState string

const (
	// AlertActive alerts still dispatch notifications on each poll.
	AlertActive AlertState = "active"
	// AlertCompleted alerts have exhausted their notification attempts but
	// remain open until the stock recovers or an operator acknowledges them.
	AlertCompleted AlertState = "completed"
	AlertResolved  AlertState = "resolved"
)

type AlertKind string

const (
	AlertStockCritical AlertKind = "stock_critical"
	AlertStockDepleted AlertKind = "stock_depleted"
)

// MaxAlertNotifications caps the escalation counter. The counter only
// advances on a confirmed dispatch; a delivery failure does not consume an
// attempt.
const MaxAlertNotifications = 3

// Alert tracks the escalation state for one ingredient. At most one alert
// per ingredient may be open (active or completed) at a time.
type Alert struct {
	ID           string     `json:"id"`
	IngredientID string     `json:"ingredient_id"`
	Kind         AlertKind  `json:"kind"`
	NotifyCount  int        `json:"notify_count"`
	State        AlertState `json:"state"`
	FirstSeen    time.Time  `json:"first_seen"`
	LastSent     *time.Time `json:"last_sent,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// Open reports whether the alert still tracks an unresolved condition.
func (a *Alert) Open() bool {
	return a.State == AlertActive || a.State == AlertCompleted
}
