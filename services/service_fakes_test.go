package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
	"github.com/ostendo-io/wawagardenbar-app-sub002/repository"
)

// In-memory repository fakes with the same guard semantics as the Mongo
// implementations: guarded updates miss (ErrNotFound or false) when the
// filter does not match, and every read hands back a copy.

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	failMu sync.Mutex
	fail   error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*models.Order)}
}

func (r *memOrderRepo) put(order *models.Order) string {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID.Hex()] = &cp
	return order.ID.Hex()
}

func (r *memOrderRepo) failWith(err error) {
	r.failMu.Lock()
	r.fail = err
	r.failMu.Unlock()
}

func (r *memOrderRepo) injected() error {
	r.failMu.Lock()
	defer r.failMu.Unlock()
	return r.fail
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*models.Order, error) {
	if err := r.injected(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *memOrderRepo) FindByPaymentReference(_ context.Context, ref string) (*models.Order, error) {
	if err := r.injected(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.PaymentReference == ref {
			cp := *order
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memOrderRepo) MarkPaid(_ context.Context, id, transactionRef string, paidAt time.Time) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.PaymentStatus != models.PaymentStatusPending {
		return nil, repository.ErrNotFound
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.TransactionReference = transactionRef
	order.PaidAt = &paidAt
	cp := *order
	return &cp, nil
}

func (r *memOrderRepo) MarkPaymentFailed(_ context.Context, id string, status models.PaymentStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.PaymentStatus != models.PaymentStatusPending {
		return nil, repository.ErrNotFound
	}
	order.PaymentStatus = status
	cp := *order
	return &cp, nil
}

func (r *memOrderRepo) ClaimInventoryDeduction(_ context.Context, id, actor string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if order.InventoryDeducted {
		return false, nil
	}
	order.InventoryDeducted = true
	order.InventoryDeductedAt = &at
	order.InventoryDeductedBy = actor
	return true, nil
}

func (r *memOrderRepo) AppendStatus(_ context.Context, id string, from, to models.OrderStatus, entry models.StatusChange) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return nil, repository.ErrNotFound
	}
	order.Status = to
	order.StatusHistory = append(order.StatusHistory, entry)
	cp := *order
	cp.StatusHistory = append([]models.StatusChange(nil), order.StatusHistory...)
	return &cp, nil
}

type memTabRepo struct {
	mu   sync.Mutex
	tabs map[string]*models.Tab
}

func newMemTabRepo() *memTabRepo {
	return &memTabRepo{tabs: make(map[string]*models.Tab)}
}

func (r *memTabRepo) put(tab *models.Tab) string {
	if tab.ID.IsZero() {
		tab.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tab
	r.tabs[tab.ID.Hex()] = &cp
	return tab.ID.Hex()
}

func (r *memTabRepo) FindByID(_ context.Context, id string) (*models.Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.tabs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *tab
	return &cp, nil
}

func (r *memTabRepo) FindByPaymentReference(_ context.Context, ref string) (*models.Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tab := range r.tabs {
		if tab.PaymentReference == ref {
			cp := *tab
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTabRepo) MarkPaid(_ context.Context, id, transactionRef string, paidAt time.Time, entry models.StatusChange) (*models.Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.tabs[id]
	if !ok || tab.PaymentStatus != models.PaymentStatusPending {
		return nil, repository.ErrNotFound
	}
	tab.PaymentStatus = models.PaymentStatusPaid
	tab.Status = models.TabStatusClosed
	tab.TransactionReference = transactionRef
	tab.PaidAt = &paidAt
	tab.StatusHistory = append(tab.StatusHistory, entry)
	cp := *tab
	return &cp, nil
}

func (r *memTabRepo) MarkPaymentFailed(_ context.Context, id string, status models.PaymentStatus, entry models.StatusChange) (*models.Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.tabs[id]
	if !ok || tab.PaymentStatus != models.PaymentStatusPending {
		return nil, repository.ErrNotFound
	}
	tab.PaymentStatus = status
	tab.Status = models.TabStatusOpen
	tab.StatusHistory = append(tab.StatusHistory, entry)
	cp := *tab
	return &cp, nil
}

type memInventoryRepo struct {
	mu      sync.Mutex
	records map[string]*models.InventoryRecord
	fail    error
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{records: make(map[string]*models.InventoryRecord)}
}

func (r *memInventoryRepo) put(rec *models.InventoryRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.MenuItemID] = &cp
}

func (r *memInventoryRepo) FindByMenuItemID(_ context.Context, menuItemID string) (*models.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[menuItemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memInventoryRepo) ApplyMovement(_ context.Context, menuItemID string, movement models.StockMovement) (*models.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	rec, ok := r.records[menuItemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.CurrentStock += movement.Quantity
	rec.StockHistory = append(rec.StockHistory, movement)
	cp := *rec
	cp.StockHistory = append([]models.StockMovement(nil), rec.StockHistory...)
	return &cp, nil
}

type memRewardRepo struct {
	mu      sync.Mutex
	rewards map[string]*models.Reward
	codes   map[string]bool
	rules   []models.RewardRule
}

func newMemRewardRepo() *memRewardRepo {
	return &memRewardRepo{rewards: make(map[string]*models.Reward), codes: make(map[string]bool)}
}

func (r *memRewardRepo) Create(_ context.Context, reward *models.Reward) error {
	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *reward
	r.rewards[reward.ID.Hex()] = &cp
	r.codes[reward.Code] = true
	return nil
}

func (r *memRewardRepo) FindByID(_ context.Context, id string) (*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward, ok := r.rewards[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *reward
	return &cp, nil
}

func (r *memRewardRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[code], nil
}

func (r *memRewardRepo) Redeem(_ context.Context, id, orderID string, at time.Time) (*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward, ok := r.rewards[id]
	if !ok || reward.Status != models.RewardStatusActive {
		return nil, repository.ErrNotFound
	}
	reward.Status = models.RewardStatusRedeemed
	reward.RedeemedInOrderID = orderID
	reward.RedeemedAt = &at
	cp := *reward
	return &cp, nil
}

func (r *memRewardRepo) Expire(_ context.Context, id string) (*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward, ok := r.rewards[id]
	if !ok || reward.Status != models.RewardStatusActive {
		return nil, repository.ErrNotFound
	}
	reward.Status = models.RewardStatusExpired
	cp := *reward
	return &cp, nil
}

func (r *memRewardRepo) ActiveRules(_ context.Context) ([]models.RewardRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []models.RewardRule
	for _, rule := range r.rules {
		if rule.IsActive {
			active = append(active, rule)
		}
	}
	return active, nil
}

func (r *memRewardRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rewards)
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *memAuditRepo) Append(_ context.Context, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func (r *memAuditRepo) find(action string) (models.AuditEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Action == action {
			return e, true
		}
	}
	return models.AuditEntry{}, false
}

// stubCatalog resolves line items by their embedded menu item id and
// marks ids in the untracked set as not stock-tracked.
type stubCatalog struct {
	untracked map[string]bool
}

func (c *stubCatalog) StockItemID(_ context.Context, item models.OrderItem) (string, bool, error) {
	if item.MenuItemID == "" {
		return "", false, nil
	}
	if c.untracked[item.MenuItemID] {
		return "", false, nil
	}
	return item.MenuItemID, true, nil
}

type recordedEmit struct {
	Topic   string
	Payload interface{}
}

type memBroadcaster struct {
	mu    sync.Mutex
	emits []recordedEmit
}

func (b *memBroadcaster) Emit(_ context.Context, topic string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emits = append(b.emits, recordedEmit{Topic: topic, Payload: payload})
	return nil
}

func (b *memBroadcaster) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.emits))
	for _, e := range b.emits {
		out = append(out, e.Topic)
	}
	return out
}

type memNotifier struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (n *memNotifier) SendOrderEvent(event models.OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// testBundle wires the full service stack over in-memory fakes.
type testBundle struct {
	orders      *memOrderRepo
	tabs        *memTabRepo
	inventory   *memInventoryRepo
	rewards     *memRewardRepo
	auditRepo   *memAuditRepo
	catalog     *stubCatalog
	broadcaster *memBroadcaster
	notifier    *memNotifier

	auditSvc     *AuditService
	inventorySvc *InventoryService
	statusSvc    *StatusService
	rewardSvc    *RewardService
	paymentSvc   *PaymentService
}

func newTestBundle() *testBundle {
	b := &testBundle{
		orders:      newMemOrderRepo(),
		tabs:        newMemTabRepo(),
		inventory:   newMemInventoryRepo(),
		rewards:     newMemRewardRepo(),
		auditRepo:   &memAuditRepo{},
		catalog:     &stubCatalog{untracked: make(map[string]bool)},
		broadcaster: &memBroadcaster{},
		notifier:    &memNotifier{},
	}

	logger := zap.NewNop()
	b.auditSvc = NewAuditService(b.auditRepo, logger)
	b.inventorySvc = NewInventoryService(b.orders, b.inventory, b.catalog, b.auditSvc, logger)
	b.statusSvc = NewStatusService(b.orders, b.inventorySvc, b.auditSvc, b.broadcaster, b.notifier, logger)
	b.rewardSvc = NewRewardService(b.rewards, b.auditSvc, logger, 1.0)
	b.paymentSvc = NewPaymentService(b.orders, b.tabs, b.statusSvc, b.inventorySvc, b.rewardSvc, b.auditSvc, b.broadcaster, b.notifier, logger)
	return b
}

func pendingOrder(ref string, items ...models.OrderItem) *models.Order {
	if len(items) == 0 {
		items = []models.OrderItem{{MenuItemID: "item-jollof", Name: "Jollof Rice", Price: 2500, Quantity: 2}}
	}
	subtotal := 0
	for _, it := range items {
		subtotal += it.Price * it.Quantity
	}
	return &models.Order{
		OrderNumber:      "WGB-1001",
		UserID:           "user-1",
		Items:            items,
		Subtotal:         subtotal,
		Total:            subtotal,
		Status:           models.OrderStatusPending,
		StatusHistory:    []models.StatusChange{{Status: string(models.OrderStatusPending), Timestamp: time.Now().UTC()}},
		PaymentStatus:    models.PaymentStatusPending,
		PaymentReference: ref,
		CreatedAt:        time.Now().UTC(),
	}
}
