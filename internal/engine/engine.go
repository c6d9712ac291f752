// Package engine wires the aggregator, generator and escalator into the
// scheduler's named jobs and the operator's manual trigger entry points.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comedorlabs/suministro/internal/alerts"
	"github.com/comedorlabs/suministro/internal/cloudwriter"
	"github.com/comedorlabs/suministro/internal/generator"
	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/notify"
	"github.com/comedorlabs/suministro/internal/planner"
	"github.com/comedorlabs/suministro/internal/repositories"
	"github.com/comedorlabs/suministro/internal/scheduler"
)

// RequirementsReport is the weekly insumo generation result.
type RequirementsReport struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	PeriodID     string                 `json:"period_id"`
	Window       planner.Window         `json:"window"`
	Requirements []*planner.Requirement `json:"requirements"`
	Contributing int                    `json:"contributing"`
	Skipped      int                    `json:"skipped"`
}

// OrdersReport is the weekly order generation result.
type OrdersReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	PeriodID    string            `json:"period_id"`
	Result      *generator.Result `json:"result"`
}

// FinalizationReport is the daily period lifecycle result.
type FinalizationReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	Activated   int       `json:"activated"`
	Finalized   int       `json:"finalized"`
}

type Engine struct {
	mu  sync.RWMutex
	cfg *models.Config

	periods    repositories.PeriodRepository
	inventory  repositories.InventoryRepository
	attendance repositories.AttendanceRepository

	aggregator *planner.Aggregator
	generator  *generator.Generator
	escalator  *alerts.Escalator

	gateway notify.Gateway
	output  OutputDestination
	archive cloudwriter.CloudWriterFactory

	now func() time.Time
}

type Deps struct {
	Periods    repositories.PeriodRepository
	Menu       repositories.MenuRepository
	Inventory  repositories.InventoryRepository
	Suppliers  repositories.SupplierRepository
	Orders     repositories.OrderRepository
	Alerts     repositories.AlertRepository
	Attendance repositories.AttendanceRepository
	Gateway    notify.Gateway
	Output     OutputDestination
	Archive    cloudwriter.CloudWriterFactory
}

func New(cfg *models.Config, deps Deps) *Engine {
	gen := generator.NewGenerator(deps.Inventory, deps.Suppliers, deps.Orders)
	gen.SetSafetyBuffer(cfg.SafetyBuffer)
	esc := alerts.NewEscalator(deps.Inventory, deps.Alerts, deps.Gateway, cfg.Telegram.ChatID, cfg.Telegram.SendTimeout)
	return &Engine{
		cfg:        cfg,
		periods:    deps.Periods,
		inventory:  deps.Inventory,
		attendance: deps.Attendance,
		aggregator: planner.NewAggregator(deps.Menu),
		generator:  gen,
		escalator:  esc,
		gateway:    deps.Gateway,
		output:     deps.Output,
		archive:    deps.Archive,
		now:        time.Now,
	}
}

// Escalator exposes the alert state machine for operator acknowledgments.
func (e *Engine) Escalator() *alerts.Escalator {
	return e.escalator
}

// Reconfigure applies a freshly loaded configuration to the running engine:
// the safety buffer, the diner strategy, report archiving and the alert chat
// settings all take effect on the next run without a restart.
func (e *Engine) Reconfigure(cfg *models.Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()

	e.generator.SetSafetyBuffer(cfg.SafetyBuffer)
	e.escalator.Reconfigure(cfg.Telegram.ChatID, cfg.Telegram.SendTimeout)
	log.Printf("Engine reconfigured: safety buffer %.2f, diner strategy %q", cfg.SafetyBuffer, cfg.DinerStrategy)
}

func (e *Engine) config() *models.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// GenerateRequirements aggregates the current period's menu into ingredient
// requirements. It is both the weekly-insumo-generation job and the manual
// `generate insumos` entry point.
func (e *Engine) GenerateRequirements(ctx context.Context) (*RequirementsReport, error) {
	period, window, resolver, err := e.currentRun(ctx)
	if err != nil {
		return nil, err
	}

	result, err := e.aggregator.Aggregate(ctx, window, resolver)
	if err != nil {
		return nil, err
	}

	report := &RequirementsReport{
		GeneratedAt:  e.now(),
		PeriodID:     period.ID,
		Window:       window,
		Requirements: result.Sorted(),
		Contributing: result.Contributing,
		Skipped:      result.Skipped,
	}
	e.publish(TopicRequirements, report)
	e.archiveReport("requirements", report)
	log.Printf("Generated requirements for period %s: %d ingredients, %d assignments, %d skipped",
		period.ID, len(report.Requirements), report.Contributing, report.Skipped)
	return report, nil
}

// GenerateOrders aggregates requirements and turns shortfalls into draft
// purchase orders. Partial failures are enumerated in the report, not
// raised.
func (e *Engine) GenerateOrders(ctx context.Context) (*OrdersReport, error) {
	period, window, resolver, err := e.currentRun(ctx)
	if err != nil {
		return nil, err
	}

	aggregated, err := e.aggregator.Aggregate(ctx, window, resolver)
	if err != nil {
		return nil, err
	}

	result, err := e.generator.Generate(ctx, aggregated.Requirements)
	if err != nil {
		return nil, err
	}

	report := &OrdersReport{GeneratedAt: e.now(), PeriodID: period.ID, Result: result}
	e.publish(TopicOrders, report)
	e.archiveReport("orders", report)
	e.notifyOrderSummary(ctx, report)
	log.Printf("Generated orders for period %s: %d created, %d shortfalls, %d unfulfillable, %d failed",
		period.ID, len(result.OrdersCreated), len(result.Shortfalls), len(result.Unfulfillable), len(result.Failed))
	return report, nil
}

// FinalizePeriods advances the period lifecycle: pending periods whose start
// date arrived become active, active periods past their end date are
// finalized.
func (e *Engine) FinalizePeriods(ctx context.Context) (*FinalizationReport, error) {
	today := e.now().Truncate(24 * time.Hour)
	activated, err := e.periods.ActivateDue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to activate periods: %w", err)
	}
	finalized, err := e.periods.FinalizeExpired(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize periods: %w", err)
	}

	report := &FinalizationReport{GeneratedAt: e.now(), Activated: activated, Finalized: finalized}
	if activated > 0 || finalized > 0 {
		e.publish(TopicPeriods, report)
		log.Printf("Period lifecycle: %d activated, %d finalized", activated, finalized)
	}
	return report, nil
}

// PollAlerts runs one alert escalation pass.
func (e *Engine) PollAlerts(ctx context.Context) (*alerts.PollResult, error) {
	result, err := e.escalator.Poll(ctx)
	if result != nil && (result.Created > 0 || result.Escalated > 0 || result.Resolved > 0) {
		e.publish(TopicAlerts, result)
	}
	return result, err
}

// Jobs maps the scheduler's job names to their implementations.
func (e *Engine) Jobs() map[string]scheduler.Job {
	return map[string]scheduler.Job{
		models.JobWeeklyInsumoGeneration: func(ctx context.Context) error {
			_, err := e.GenerateRequirements(ctx)
			return err
		},
		models.JobWeeklyOrderGeneration: func(ctx context.Context) error {
			_, err := e.GenerateOrders(ctx)
			return err
		},
		models.JobDailyFinalization: func(ctx context.Context) error {
			_, err := e.FinalizePeriods(ctx)
			return err
		},
		models.JobPeriodicAlertPoll: func(ctx context.Context) error {
			_, err := e.PollAlerts(ctx)
			return err
		},
	}
}

// currentRun resolves the explicit inputs of one generation run: the single
// eligible period, its window, and the diner resolver the configuration
// selects.
func (e *Engine) currentRun(ctx context.Context) (*models.PlanningPeriod, planner.Window, planner.DinerResolver, error) {
	period, err := e.periods.GetCurrent(ctx)
	if err != nil {
		return nil, planner.Window{}, nil, fmt.Errorf("failed to load current period: %w", err)
	}
	if period == nil {
		return nil, planner.Window{}, nil, models.NewValidationError("no pending or active planning period")
	}

	window := planner.Window{From: period.StartDate, To: period.EndDate}
	resolver, err := e.resolverFor(period)
	if err != nil {
		return nil, planner.Window{}, nil, err
	}
	return period, window, resolver, nil
}

func (e *Engine) resolverFor(period *models.PlanningPeriod) (planner.DinerResolver, error) {
	switch e.config().DinerStrategy {
	case "", "estimate":
		return &planner.PeriodEstimateResolver{Estimate: period.EstimatedDiners}, nil
	case "split":
		return &planner.SplitEstimateResolver{Estimate: period.EstimatedDiners}, nil
	case "attendance":
		if e.attendance == nil {
			return nil, fmt.Errorf("attendance strategy configured but no attendance source wired")
		}
		return &planner.AttendanceResolver{Attendance: e.attendance}, nil
	default:
		return nil, fmt.Errorf("unknown diner strategy %q", e.config().DinerStrategy)
	}
}

func (e *Engine) publish(topic string, payload interface{}) {
	if e.output == nil {
		return
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error serializing %s report: %v", topic, err)
		return
	}
	if err := e.output.WriteMessage(topic, msg); err != nil {
		log.Printf("Failed to write message to %s: %v", topic, err)
	}
}

// archiveReport uploads the report JSON to the configured archive bucket.
// Archival is best effort; a failed upload never fails the run.
func (e *Engine) archiveReport(kind string, payload interface{}) {
	archiveCfg := e.config().Archive
	if e.archive == nil || !archiveCfg.Enabled {
		return
	}
	msg, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Printf("Error serializing %s archive: %v", kind, err)
		return
	}
	objectPath := fmt.Sprintf("%s%s/%s.json", archiveCfg.Prefix, kind, e.now().Format("2006-01-02T15-04-05"))
	w, err := e.archive.NewWriter(archiveCfg.Bucket, objectPath)
	if err != nil {
		log.Printf("Failed to open archive writer for %s: %v", objectPath, err)
		return
	}
	if _, err := w.Write(msg); err != nil {
		log.Printf("Failed to write archive %s: %v", objectPath, err)
		return
	}
	if err := w.Close(); err != nil {
		log.Printf("Failed to upload archive %s: %v", objectPath, err)
	}
}

// notifyOrderSummary posts a short order run summary to the alert chat when
// one is configured.
func (e *Engine) notifyOrderSummary(ctx context.Context, report *OrdersReport) {
	telegramCfg := e.config().Telegram
	if e.gateway == nil || telegramCfg.ChatID == 0 {
		return
	}
	if telegramCfg.SendTimeout <= 0 {
		telegramCfg.SendTimeout = 10 * time.Second
	}
	result := report.Result
	if len(result.OrdersCreated) == 0 && len(result.Unfulfillable) == 0 {
		return
	}
	text := fmt.Sprintf("📦 Órdenes generadas: %d (faltantes: %d, sin proveedor: %d)",
		len(result.OrdersCreated), len(result.Shortfalls), len(result.Unfulfillable))
	sendCtx, cancel := context.WithTimeout(ctx, telegramCfg.SendTimeout)
	defer cancel()
	if _, err := e.gateway.Send(sendCtx, telegramCfg.ChatID, text); err != nil {
		log.Printf("Failed to deliver order summary: %v", err)
	}
}
