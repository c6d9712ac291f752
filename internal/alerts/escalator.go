// Package alerts drives the bounded notification-escalation loop for
// critical stock.
package alerts

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lucsky/cuid"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/notify"
	"github.com/comedorlabs/suministro/internal/repositories"
	"github.com/comedorlabs/suministro/internal/units"
)

// PollResult summarises one escalation pass.
type PollResult struct {
	Checked     int `json:"checked"`
	Created     int `json:"created"`
	Escalated   int `json:"escalated"`
	Capped      int `json:"capped"`
	Resolved    int `json:"resolved"`
	Undelivered int `json:"undelivered"`
	Corrected   int `json:"corrected"` // stale statuses recomputed
}

type Escalator struct {
	inventory repositories.InventoryRepository
	alerts    repositories.AlertRepository
	gateway   notify.Gateway

	mu          sync.RWMutex
	chatID      int64
	sendTimeout time.Duration
	now         func() time.Time
}

func NewEscalator(inventory repositories.InventoryRepository, alerts repositories.AlertRepository, gateway notify.Gateway, chatID int64, sendTimeout time.Duration) *Escalator {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Escalator{
		inventory:   inventory,
		alerts:      alerts,
		gateway:     gateway,
		chatID:      chatID,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// SetNow overrides the escalator's clock; tests use this for deterministic
// timestamps.
func (e *Escalator) SetNow(now func() time.Time) {
	e.now = now
}

// Reconfigure updates the destination chat and send timeout; the next
// dispatch picks them up. Non-positive timeouts fall back to the default.
func (e *Escalator) Reconfigure(chatID int64, sendTimeout time.Duration) {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	e.mu.Lock()
	e.chatID = chatID
	e.sendTimeout = sendTimeout
	e.mu.Unlock()
}

// Poll runs one escalation pass: resolve open alerts whose stock recovered,
// then create or escalate alerts for stock that is still abnormal. The
// counter only advances on a confirmed dispatch, so a gateway outage never
// burns through the notification attempts.
func (e *Escalator) Poll(ctx context.Context) (*PollResult, error) {
	result := &PollResult{}

	if err := e.resolveRecovered(ctx, result); err != nil {
		return result, err
	}

	records, err := e.inventory.GetAbnormalStock(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load abnormal stock: %w", err)
	}

	for _, stock := range records {
		result.Checked++
		if err := e.check(ctx, stock, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Acknowledge is the operator escape hatch: it force-resolves the open alert
// for an ingredient regardless of the counter.
func (e *Escalator) Acknowledge(ctx context.Context, ingredientID string) error {
	alert, err := e.alerts.GetActiveAlert(ctx, ingredientID)
	if err != nil {
		return err
	}
	if alert == nil {
		return fmt.Errorf("no open alert for ingredient %s", ingredientID)
	}
	return e.alerts.ResolveAlert(ctx, alert.ID, e.now())
}

func (e *Escalator) resolveRecovered(ctx context.Context, result *PollResult) error {
	open, err := e.alerts.GetOpenAlerts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open alerts: %w", err)
	}
	for _, alert := range open {
		stock, err := e.inventory.GetStock(ctx, alert.IngredientID)
		if err != nil {
			return err
		}
		if stock == nil || stock.ComputedStatus() != models.StockNormal {
			continue
		}
		if stock.Status != models.StockNormal {
			if err := e.inventory.SetStatus(ctx, alert.IngredientID, models.StockNormal); err != nil {
				return err
			}
			result.Corrected++
		}
		if err := e.alerts.ResolveAlert(ctx, alert.ID, e.now()); err != nil {
			return err
		}
		result.Resolved++
		log.Printf("Alert for %s resolved, stock back to normal", alert.IngredientID)
	}
	return nil
}

// check re-validates one abnormal stock record and advances its alert state
// machine.
func (e *Escalator) check(ctx context.Context, stock *models.StockRecord, result *PollResult) error {
	// reject stale or false positives before creating anything: the stored
	// status may lag behind the quantity
	computed := stock.ComputedStatus()
	if computed != stock.Status {
		if err := e.inventory.SetStatus(ctx, stock.IngredientID, computed); err != nil {
			return err
		}
		result.Corrected++
		if computed == models.StockNormal {
			return nil
		}
	}

	alert, err := e.alerts.GetActiveAlert(ctx, stock.IngredientID)
	if err != nil {
		return err
	}

	kind := kindFor(computed)
	if alert == nil {
		alert = &models.Alert{
			ID:           cuid.New(),
			IngredientID: stock.IngredientID,
			Kind:         kind,
			NotifyCount:  0,
			State:        models.AlertActive,
			FirstSeen:    e.now(),
		}
		if err := e.alerts.CreateAlert(ctx, alert); err != nil {
			return fmt.Errorf("failed to create alert for %s: %w", stock.IngredientID, err)
		}
		result.Created++
	} else if alert.Kind != kind {
		// stock decayed further (or partially recovered) since the alert
		// opened; keep the persisted kind in step with the computed status
		if err := e.alerts.UpdateKind(ctx, alert.ID, kind); err != nil {
			return err
		}
		alert.Kind = kind
	}

	if alert.State != models.AlertActive || alert.NotifyCount >= models.MaxAlertNotifications {
		result.Capped++
		return nil
	}

	if !e.dispatch(ctx, stock, alert) {
		result.Undelivered++
		return nil
	}

	updated, err := e.alerts.IncrementAlert(ctx, alert.ID, e.now())
	if err != nil {
		return err
	}
	if updated != nil {
		result.Escalated++
		if updated.State == models.AlertCompleted {
			log.Printf("Alert for %s reached %d notifications, escalation complete", stock.IngredientID, updated.NotifyCount)
		}
	}
	return nil
}

// dispatch sends one notification bounded by the send timeout. Any failure
// is logged and treated as not delivered; the retry happens on the next
// scheduled poll, never here.
func (e *Escalator) dispatch(ctx context.Context, stock *models.StockRecord, alert *models.Alert) bool {
	e.mu.RLock()
	chatID, sendTimeout := e.chatID, e.sendTimeout
	e.mu.RUnlock()

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	delivery, err := e.gateway.Send(sendCtx, chatID, e.message(stock, alert))
	if err != nil {
		log.Printf("Failed to deliver alert for %s: %v", stock.IngredientID, err)
		return false
	}
	return delivery.Delivered
}

func (e *Escalator) message(stock *models.StockRecord, alert *models.Alert) string {
	qty, unit := units.BestUnit(stock.Quantity, stock.Unit)
	minQty, minUnit := units.BestUnit(stock.MinThreshold, stock.Unit)
	label := "Stock crítico"
	if stock.ComputedStatus() == models.StockDepleted {
		label = "Stock agotado"
	}
	return fmt.Sprintf("⚠️ %s: %s — %g %s (mínimo %g %s). Aviso %d/%d.",
		label, stock.IngredientName, qty, unit, minQty, minUnit,
		alert.NotifyCount+1, models.MaxAlertNotifications)
}

func kindFor(status models.StockStatus) models.AlertKind {
	if status == models.StockDepleted {
		return models.AlertStockDepleted
	}
	return models.AlertStockCritical
}
