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

// legalTransitions is the order lifecycle. completed and cancelled are
// terminal. Any non-terminal status may be cancelled.
var legalTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:        {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:      {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:      {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:          {models.OrderStatusOutForDelivery, models.OrderStatusDelivered, models.OrderStatusCompleted, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:      {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusService is the order state machine. Every transition appends
// exactly one status-history entry with a server timestamp; the history
// is append-only and its last entry always matches the current status.
type StatusService struct {
	orders      repository.OrderRepository
	inventory   *InventoryService
	audit       *AuditService
	broadcaster realtime.Broadcaster
	notifier    kafka.Notifier
	logger      *zap.Logger
}

func NewStatusService(
	orders repository.OrderRepository,
	inventory *InventoryService,
	audit *AuditService,
	broadcaster realtime.Broadcaster,
	notifier kafka.Notifier,
	logger *zap.Logger,
) *StatusService {
	return &StatusService{
		orders:      orders,
		inventory:   inventory,
		audit:       audit,
		broadcaster: broadcaster,
		notifier:    notifier,
		logger:      logger,
	}
}

// Transition moves an order to target and returns the post-write order.
// Transitioning to the status the order is already in is a success
// no-op and appends nothing. Transitioning to completed triggers the
// inventory deduction; a deduction failure is logged and audited but
// never aborts the transition the customer observes.
func (s *StatusService) Transition(ctx context.Context, orderID string, target models.OrderStatus, note, actor string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, models.ErrEntityNotFound)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if order.Status == target {
		return order, nil
	}

	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("order %s is %s and cannot change: %w",
			order.OrderNumber, order.Status, models.ErrInvalidTransition)
	}
	if !transitionAllowed(order.Status, target) {
		return nil, fmt.Errorf("cannot move order %s from %s to %s: %w",
			order.OrderNumber, order.Status, target, models.ErrInvalidTransition)
	}

	if actor == "" {
		actor = "system"
	}
	if note == "" {
		note = fmt.Sprintf("%s by %s", capitalize(string(target)), actor)
	}

	entry := models.StatusChange{
		Status:    string(target),
		Timestamp: time.Now().UTC(),
		Note:      note,
	}

	updated, err := s.orders.AppendStatus(ctx, orderID, order.Status, target, entry)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a race against a concurrent transition. Re-read: if the
			// other writer already put the order in our target status this
			// call is a no-op, otherwise the edge is no longer legal.
			current, readErr := s.orders.FindByID(ctx, orderID)
			if readErr == nil && current.Status == target {
				return current, nil
			}
			return nil, fmt.Errorf("order %s changed concurrently: %w", orderID, models.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("persist status transition: %w", err)
	}

	s.audit.Record(ctx, actor, "order.status_changed", "order", orderID, map[string]interface{}{
		"order_number": updated.OrderNumber,
		"from":         string(order.Status),
		"to":           string(target),
		"note":         note,
	})

	if target == models.OrderStatusCompleted && !updated.InventoryDeducted {
		if err := s.inventory.DeductStockForOrder(ctx, orderID, actor); err != nil {
			// The completion stands regardless; stock bookkeeping is
			// reconciled later via the movement ledger.
			s.logger.Error("Inventory deduction failed after completion",
				zap.String("order_id", orderID),
				zap.String("order_number", updated.OrderNumber),
				zap.Error(err),
			)
			s.audit.Record(ctx, actor, "inventory.deduction_failed", "order", orderID, map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.publish(ctx, updated)
	return updated, nil
}

// publish emits the live-update event and the notification event. Both
// are best-effort and never fail the transition.
func (s *StatusService) publish(ctx context.Context, order *models.Order) {
	topic := models.EventOrderUpdated
	if order.Status == models.OrderStatusCancelled {
		topic = models.EventOrderCancelled
	}

	event := models.OrderEvent{
		Type:          topic,
		OrderID:       order.ID.Hex(),
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Total:         order.Total,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.broadcaster.Emit(ctx, topic, event); err != nil {
		s.logger.Warn("Failed to broadcast order event",
			zap.String("topic", topic),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
	if err := s.notifier.SendOrderEvent(event); err != nil {
		s.logger.Warn("Failed to publish notification event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
