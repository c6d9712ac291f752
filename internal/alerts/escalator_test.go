package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/notify"
	"github.com/comedorlabs/suministro/internal/units"
)

type memInventory struct {
	stock map[string]*models.StockRecord
}

func (m *memInventory) GetStock(ctx context.Context, ingredientID string) (*models.StockRecord, error) {
	return m.stock[ingredientID], nil
}

func (m *memInventory) GetAbnormalStock(ctx context.Context) ([]*models.StockRecord, error) {
	var abnormal []*models.StockRecord
	for _, record := range m.stock {
		if record.Status != models.StockNormal {
			abnormal = append(abnormal, record)
		}
	}
	return abnormal, nil
}

func (m *memInventory) SetStatus(ctx context.Context, ingredientID string, status models.StockStatus) error {
	m.stock[ingredientID].Status = status
	return nil
}

// memAlerts mirrors the conditional-update semantics of the Postgres
// repository.
type memAlerts struct {
	alerts map[string]*models.Alert
}

func newMemAlerts() *memAlerts {
	return &memAlerts{alerts: make(map[string]*models.Alert)}
}

func (m *memAlerts) GetActiveAlert(ctx context.Context, ingredientID string) (*models.Alert, error) {
	for _, alert := range m.alerts {
		if alert.IngredientID == ingredientID && alert.Open() {
			return alert, nil
		}
	}
	return nil, nil
}

func (m *memAlerts) GetOpenAlerts(ctx context.Context) ([]*models.Alert, error) {
	var open []*models.Alert
	for _, alert := range m.alerts {
		if alert.Open() {
			open = append(open, alert)
		}
	}
	return open, nil
}

func (m *memAlerts) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if existing, _ := m.GetActiveAlert(ctx, alert.IngredientID); existing != nil {
		return nil
	}
	copied := *alert
	m.alerts[alert.ID] = &copied
	return nil
}

func (m *memAlerts) UpdateKind(ctx context.Context, alertID string, kind models.AlertKind) error {
	alert, ok := m.alerts[alertID]
	if !ok || !alert.Open() {
		return nil
	}
	alert.Kind = kind
	return nil
}

func (m *memAlerts) IncrementAlert(ctx context.Context, alertID string, sentAt time.Time) (*models.Alert, error) {
	alert, ok := m.alerts[alertID]
	if !ok || alert.State != models.AlertActive || alert.NotifyCount >= models.MaxAlertNotifications {
		return nil, nil
	}
	alert.NotifyCount++
	alert.LastSent = &sentAt
	if alert.NotifyCount >= models.MaxAlertNotifications {
		alert.State = models.AlertCompleted
	}
	copied := *alert
	return &copied, nil
}

func (m *memAlerts) ResolveAlert(ctx context.Context, alertID string, resolvedAt time.Time) error {
	alert, ok := m.alerts[alertID]
	if !ok || !alert.Open() {
		return nil
	}
	alert.State = models.AlertResolved
	alert.ResolvedAt = &resolvedAt
	return nil
}

type fakeGateway struct {
	fail     bool
	sent     []string
	chats    []int64
	attempts int
}

func (g *fakeGateway) Send(ctx context.Context, chatID int64, text string) (notify.Delivery, error) {
	g.attempts++
	if g.fail {
		return notify.Delivery{}, errors.New("gateway unreachable")
	}
	g.sent = append(g.sent, text)
	g.chats = append(g.chats, chatID)
	return notify.Delivery{Delivered: true, MessageID: g.attempts}, nil
}

func criticalStock(id string) *models.StockRecord {
	return &models.StockRecord{
		IngredientID:   id,
		IngredientName: id,
		Quantity:       2,
		Unit:           units.Kilogramos,
		MinThreshold:   5,
		MaxThreshold:   10,
		Status:         models.StockCritical,
	}
}

func newTestEscalator(inv *memInventory, alerts *memAlerts, gateway *fakeGateway) *Escalator {
	e := NewEscalator(inv, alerts, gateway, 1234, time.Second)
	e.SetNow(func() time.Time { return time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC) })
	return e
}

func TestPollCreatesAlertAndDispatches(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}

	result, err := newTestEscalator(inv, alerts, gateway).Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Escalated)
	require.Len(t, gateway.sent, 1)
	assert.Contains(t, gateway.sent[0], "harina")
	assert.Contains(t, gateway.sent[0], "1/3")

	alert, _ := alerts.GetActiveAlert(context.Background(), "harina")
	require.NotNil(t, alert)
	assert.Equal(t, 1, alert.NotifyCount)
	assert.Equal(t, models.AlertActive, alert.State)
}

func TestPollFailedDispatchDoesNotAdvanceCounter(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{fail: true}
	escalator := newTestEscalator(inv, alerts, gateway)

	result, err := escalator.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Escalated)
	assert.Equal(t, 1, result.Undelivered)

	alert, _ := alerts.GetActiveAlert(context.Background(), "harina")
	require.NotNil(t, alert)
	assert.Equal(t, 0, alert.NotifyCount)

	// the gateway recovers; the next poll retries and only then advances
	gateway.fail = false
	_, err = escalator.Poll(context.Background())
	require.NoError(t, err)

	alert, _ = alerts.GetActiveAlert(context.Background(), "harina")
	assert.Equal(t, 1, alert.NotifyCount)
}

func TestPollCapsAtThreeNotifications(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := escalator.Poll(ctx)
		require.NoError(t, err)
	}

	assert.Len(t, gateway.sent, 3)
	alert, _ := alerts.GetActiveAlert(ctx, "harina")
	require.NotNil(t, alert)
	assert.Equal(t, models.MaxAlertNotifications, alert.NotifyCount)
	assert.Equal(t, models.AlertCompleted, alert.State)
}

func TestPollSingleOpenAlertPerIngredient(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := escalator.Poll(ctx)
		require.NoError(t, err)
	}

	open, _ := alerts.GetOpenAlerts(ctx)
	assert.Len(t, open, 1)
}

func TestPollResolvesWhenStockRecovers(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	_, err := escalator.Poll(ctx)
	require.NoError(t, err)

	// a delivery arrives
	inv.stock["harina"].Quantity = 20

	result, err := escalator.Poll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Resolved)
	assert.Equal(t, models.StockNormal, inv.stock["harina"].Status)
	alert, _ := alerts.GetActiveAlert(ctx, "harina")
	assert.Nil(t, alert)
}

func TestPollRejectsStaleStatusWithoutAlerting(t *testing.T) {
	// stored status says critical but the quantity is healthy
	stale := criticalStock("harina")
	stale.Quantity = 50
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": stale}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}

	result, err := newTestEscalator(inv, alerts, gateway).Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Corrected)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, models.StockNormal, inv.stock["harina"].Status)
	assert.Empty(t, gateway.sent)
}

func TestPollUpgradesCriticalToDepleted(t *testing.T) {
	depleted := criticalStock("harina")
	depleted.Quantity = 0
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": depleted}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}

	result, err := newTestEscalator(inv, alerts, gateway).Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Corrected)
	assert.Equal(t, models.StockDepleted, inv.stock["harina"].Status)
	require.Len(t, gateway.sent, 1)
	assert.Contains(t, gateway.sent[0], "agotado")
}

func TestPollRelabelsAlertWhenStockRunsOut(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	_, err := escalator.Poll(ctx)
	require.NoError(t, err)

	alert, _ := alerts.GetActiveAlert(ctx, "harina")
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertStockCritical, alert.Kind)

	// the remaining stock is consumed before the next poll
	inv.stock["harina"].Quantity = 0

	_, err = escalator.Poll(ctx)
	require.NoError(t, err)

	alert, _ = alerts.GetActiveAlert(ctx, "harina")
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertStockDepleted, alert.Kind)
	assert.Equal(t, 2, alert.NotifyCount)
	require.Len(t, gateway.sent, 2)
	assert.Contains(t, gateway.sent[1], "agotado")
}

func TestCappedAlertResolvesOnRecovery(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := escalator.Poll(ctx)
		require.NoError(t, err)
	}
	alert, _ := alerts.GetActiveAlert(ctx, "harina")
	require.NotNil(t, alert)
	require.Equal(t, models.AlertCompleted, alert.State)

	// a delivery arrives after escalation exhausted its attempts
	inv.stock["harina"].Quantity = 20

	result, err := escalator.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Resolved)
	assert.Equal(t, models.StockNormal, inv.stock["harina"].Status)
	alert, _ = alerts.GetActiveAlert(ctx, "harina")
	assert.Nil(t, alert)

	// stock runs low again: a fresh alert opens with a fresh counter
	inv.stock["harina"].Quantity = 2
	inv.stock["harina"].Status = models.StockCritical

	result, err = escalator.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	alert, _ = alerts.GetActiveAlert(ctx, "harina")
	require.NotNil(t, alert)
	assert.Equal(t, 1, alert.NotifyCount)
	assert.Len(t, gateway.sent, 4)
}

func TestAcknowledgeResolvesCappedAlert(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := escalator.Poll(ctx)
		require.NoError(t, err)
	}

	require.NoError(t, escalator.Acknowledge(ctx, "harina"))

	alert, _ := alerts.GetActiveAlert(ctx, "harina")
	assert.Nil(t, alert)
	assert.Len(t, gateway.sent, 3)
}

func TestReconfigureRedirectsDispatch(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	_, err := escalator.Poll(ctx)
	require.NoError(t, err)

	escalator.Reconfigure(4321, 2*time.Second)

	_, err = escalator.Poll(ctx)
	require.NoError(t, err)

	require.Len(t, gateway.chats, 2)
	assert.Equal(t, int64(1234), gateway.chats[0])
	assert.Equal(t, int64(4321), gateway.chats[1])
}

func TestAcknowledgeForcesResolution(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{"harina": criticalStock("harina")}}
	alerts := newMemAlerts()
	gateway := &fakeGateway{}
	escalator := newTestEscalator(inv, alerts, gateway)

	ctx := context.Background()
	_, err := escalator.Poll(ctx)
	require.NoError(t, err)

	require.NoError(t, escalator.Acknowledge(ctx, "harina"))

	alert, _ := alerts.GetActiveAlert(ctx, "harina")
	assert.Nil(t, alert)

	// stock is still critical, so the next poll opens a fresh alert
	result, err := escalator.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
}

func TestAcknowledgeWithoutOpenAlert(t *testing.T) {
	inv := &memInventory{stock: map[string]*models.StockRecord{}}
	escalator := newTestEscalator(inv, newMemAlerts(), &fakeGateway{})

	err := escalator.Acknowledge(context.Background(), "harina")
	assert.Error(t, err)
}
