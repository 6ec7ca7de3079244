package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/kafka"
	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
	"github.com/ostendo-io/wawagardenbar-app-sub002/realtime"
	"github.com/ostendo-io/wawagardenbar-app-sub002/repository"
)

// GatewayEvent is a gateway callback normalized to the internal payment
// vocabulary. The webhook controllers verify authenticity and map each
// gateway's status words before handing the event to Reconcile, so both
// gateways drive the exact same state changes.
type GatewayEvent struct {
	Gateway              string
	PaymentReference     string
	TransactionReference string
	Status               models.PaymentStatus
	AmountPaid           int
}

// PaymentService reconciles gateway callbacks against the ledger.
// Webhooks are delivered at least once and possibly out of order; every
// path through Reconcile is safe to repeat because the pending→paid and
// pending→failed transitions are compare-and-set updates.
type PaymentService struct {
	orders      repository.OrderRepository
	tabs        repository.TabRepository
	status      *StatusService
	inventory   *InventoryService
	rewards     *RewardService
	audit       *AuditService
	broadcaster realtime.Broadcaster
	notifier    kafka.Notifier
	logger      *zap.Logger
}

func NewPaymentService(
	orders repository.OrderRepository,
	tabs repository.TabRepository,
	status *StatusService,
	inventory *InventoryService,
	rewards *RewardService,
	audit *AuditService,
	broadcaster realtime.Broadcaster,
	notifier kafka.Notifier,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		orders:      orders,
		tabs:        tabs,
		status:      status,
		inventory:   inventory,
		rewards:     rewards,
		audit:       audit,
		broadcaster: broadcaster,
		notifier:    notifier,
		logger:      logger,
	}
}

// Reconcile resolves the payment reference to exactly one order or tab
// and applies the gateway outcome. A nil return acknowledges the
// webhook; models.ErrEntityNotFound means the reference matched nothing
// and should be logged loudly by the caller while still acknowledging.
func (s *PaymentService) Reconcile(ctx context.Context, ev GatewayEvent) error {
	if ev.Status == models.PaymentStatusPending {
		// Intermediate gateway state, nothing to apply yet.
		return nil
	}

	order, err := s.orders.FindByPaymentReference(ctx, ev.PaymentReference)
	if err == nil {
		return s.reconcileOrder(ctx, order, ev)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("resolve order by payment reference: %w", err)
	}

	tab, err := s.tabs.FindByPaymentReference(ctx, ev.PaymentReference)
	if err == nil {
		return s.reconcileTab(ctx, tab, ev)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("resolve tab by payment reference: %w", err)
	}

	return fmt.Errorf("payment reference %s: %w", ev.PaymentReference, models.ErrEntityNotFound)
}

func (s *PaymentService) reconcileOrder(ctx context.Context, order *models.Order, ev GatewayEvent) error {
	orderID := order.ID.Hex()

	if ev.Status != models.PaymentStatusPaid {
		return s.failOrder(ctx, order, ev)
	}

	updated, err := s.orders.MarkPaid(ctx, orderID, ev.TransactionReference, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The guard was not satisfied: either a redelivered webhook
			// (already paid, the normal case) or a success report for an
			// order whose payment already failed. Both are acknowledged.
			return s.logDuplicateOrder(ctx, orderID, ev)
		}
		return fmt.Errorf("mark order %s paid: %w", orderID, err)
	}

	s.logger.Info("Payment confirmed",
		zap.String("gateway", ev.Gateway),
		zap.String("order_id", orderID),
		zap.String("order_number", updated.OrderNumber),
		zap.String("transaction_reference", ev.TransactionReference),
	)

	s.audit.Record(ctx, "system", "payment.confirmed", "order", orderID, map[string]interface{}{
		"gateway":               ev.Gateway,
		"order_number":          updated.OrderNumber,
		"transaction_reference": ev.TransactionReference,
		"amount_paid":           ev.AmountPaid,
	})

	// Everything past this point is best-effort. Payment is recorded;
	// reporting failure to the gateway now would only trigger a
	// redelivery storm.
	note := fmt.Sprintf("Payment confirmed via %s", ev.Gateway)
	if _, err := s.status.Transition(ctx, orderID, models.OrderStatusConfirmed, note, "system"); err != nil {
		s.logger.Error("Failed to confirm order after payment",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}

	if err := s.inventory.DeductStockForOrder(ctx, orderID, "system"); err != nil {
		s.logger.Error("Inventory deduction failed after payment",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}

	if updated.UserID != "" {
		if _, err := s.rewards.CalculateReward(ctx, updated.UserID, orderID, updated.Total); err != nil {
			s.logger.Error("Reward issuance failed after payment",
				zap.String("order_id", orderID),
				zap.String("user_id", updated.UserID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *PaymentService) failOrder(ctx context.Context, order *models.Order, ev GatewayEvent) error {
	orderID := order.ID.Hex()

	updated, err := s.orders.MarkPaymentFailed(ctx, orderID, ev.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.logDuplicateOrder(ctx, orderID, ev)
		}
		return fmt.Errorf("mark order %s payment %s: %w", orderID, ev.Status, err)
	}

	s.logger.Warn("Payment not completed",
		zap.String("gateway", ev.Gateway),
		zap.String("order_id", orderID),
		zap.String("order_number", updated.OrderNumber),
		zap.String("payment_status", string(ev.Status)),
	)

	s.audit.Record(ctx, "system", "payment.failed", "order", orderID, map[string]interface{}{
		"gateway":        ev.Gateway,
		"order_number":   updated.OrderNumber,
		"payment_status": string(ev.Status),
	})

	note := fmt.Sprintf("Payment %s via %s", ev.Status, ev.Gateway)
	if _, err := s.status.Transition(ctx, orderID, models.OrderStatusCancelled, note, "system"); err != nil {
		s.logger.Error("Failed to cancel order after payment failure",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *PaymentService) logDuplicateOrder(ctx context.Context, orderID string, ev GatewayEvent) error {
	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("re-read order %s: %w", orderID, err)
	}
	if current.PaymentStatus == ev.Status {
		s.logger.Info("Skipping duplicate payment webhook",
			zap.String("gateway", ev.Gateway),
			zap.String("order_id", orderID),
			zap.String("payment_status", string(current.PaymentStatus)),
		)
		return nil
	}
	s.logger.Warn("Gateway outcome conflicts with recorded payment status",
		zap.String("gateway", ev.Gateway),
		zap.String("order_id", orderID),
		zap.String("recorded", string(current.PaymentStatus)),
		zap.String("reported", string(ev.Status)),
	)
	return nil
}

func (s *PaymentService) reconcileTab(ctx context.Context, tab *models.Tab, ev GatewayEvent) error {
	tabID := tab.ID.Hex()
	now := time.Now().UTC()

	if ev.Status == models.PaymentStatusPaid {
		entry := models.StatusChange{
			Status:    string(models.TabStatusClosed),
			Timestamp: now,
			Note:      fmt.Sprintf("Payment confirmed via %s", ev.Gateway),
		}

		updated, err := s.tabs.MarkPaid(ctx, tabID, ev.TransactionReference, now, entry)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return s.logDuplicateTab(ctx, tabID, ev)
			}
			return fmt.Errorf("mark tab %s paid: %w", tabID, err)
		}

		s.logger.Info("Tab payment confirmed",
			zap.String("gateway", ev.Gateway),
			zap.String("tab_id", tabID),
			zap.String("tab_number", updated.TabNumber),
		)

		s.audit.Record(ctx, "system", "payment.confirmed", "tab", tabID, map[string]interface{}{
			"gateway":               ev.Gateway,
			"tab_number":            updated.TabNumber,
			"transaction_reference": ev.TransactionReference,
			"amount_paid":           ev.AmountPaid,
		})

		if updated.UserID != "" {
			if _, err := s.rewards.CalculateReward(ctx, updated.UserID, tabID, updated.Total); err != nil {
				s.logger.Error("Reward issuance failed after tab payment",
					zap.String("tab_id", tabID),
					zap.Error(err),
				)
			}
		}

		s.publishTab(ctx, updated, models.EventOrderUpdated)
		return nil
	}

	entry := models.StatusChange{
		Status:    string(models.TabStatusOpen),
		Timestamp: now,
		Note:      fmt.Sprintf("Payment %s via %s, tab reopened", ev.Status, ev.Gateway),
	}

	updated, err := s.tabs.MarkPaymentFailed(ctx, tabID, ev.Status, entry)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.logDuplicateTab(ctx, tabID, ev)
		}
		return fmt.Errorf("mark tab %s payment %s: %w", tabID, ev.Status, err)
	}

	s.logger.Warn("Tab payment not completed, tab remains open",
		zap.String("gateway", ev.Gateway),
		zap.String("tab_id", tabID),
		zap.String("tab_number", updated.TabNumber),
		zap.String("payment_status", string(ev.Status)),
	)

	s.audit.Record(ctx, "system", "payment.failed", "tab", tabID, map[string]interface{}{
		"gateway":        ev.Gateway,
		"tab_number":     updated.TabNumber,
		"payment_status": string(ev.Status),
	})

	s.publishTab(ctx, updated, models.EventOrderUpdated)
	return nil
}

func (s *PaymentService) logDuplicateTab(ctx context.Context, tabID string, ev GatewayEvent) error {
	current, err := s.tabs.FindByID(ctx, tabID)
	if err != nil {
		return fmt.Errorf("re-read tab %s: %w", tabID, err)
	}
	if current.PaymentStatus == ev.Status {
		s.logger.Info("Skipping duplicate tab payment webhook",
			zap.String("gateway", ev.Gateway),
			zap.String("tab_id", tabID),
			zap.String("payment_status", string(current.PaymentStatus)),
		)
		return nil
	}
	s.logger.Warn("Gateway outcome conflicts with recorded tab payment status",
		zap.String("gateway", ev.Gateway),
		zap.String("tab_id", tabID),
		zap.String("recorded", string(current.PaymentStatus)),
		zap.String("reported", string(ev.Status)),
	)
	return nil
}

func (s *PaymentService) publishTab(ctx context.Context, tab *models.Tab, topic string) {
	event := models.OrderEvent{
		Type:          topic,
		OrderID:       tab.ID.Hex(),
		OrderNumber:   tab.TabNumber,
		UserID:        tab.UserID,
		Status:        string(tab.Status),
		PaymentStatus: string(tab.PaymentStatus),
		Total:         tab.Total,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.broadcaster.Emit(ctx, topic, event); err != nil {
		s.logger.Warn("Failed to broadcast tab event",
			zap.String("tab_id", event.OrderID),
			zap.Error(err),
		)
	}
	if err := s.notifier.SendOrderEvent(event); err != nil {
		s.logger.Warn("Failed to publish tab notification event",
			zap.String("tab_id", event.OrderID),
			zap.Error(err),
		)
	}
}
