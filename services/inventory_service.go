package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
	"github.com/ostendo-io/wawagardenbar-app-sub002/repository"
)

// InventoryService owns stock bookkeeping. Deduction for an order runs
// exactly once no matter how many times it is triggered: the order's
// inventoryDeducted guard is claimed with an atomic compare-and-set
// before any stock is touched, so concurrent triggers cannot both pass.
type InventoryService struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	catalog   CatalogResolver
	audit     *AuditService
	logger    *zap.Logger
}

func NewInventoryService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	catalog CatalogResolver,
	audit *AuditService,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		orders:    orders,
		inventory: inventory,
		catalog:   catalog,
		audit:     audit,
		logger:    logger,
	}
}

// DeductStockForOrder decrements stock for every stock-tracked line item
// of the order. Repeat invocations are a success no-op. Untracked items
// and missing inventory records are skipped; store failures propagate to
// the caller.
func (s *InventoryService) DeductStockForOrder(ctx context.Context, orderID, actor string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("order %s: %w", orderID, models.ErrEntityNotFound)
		}
		return fmt.Errorf("load order for deduction: %w", err)
	}

	if order.InventoryDeducted {
		s.logger.Debug("Inventory already deducted, skipping",
			zap.String("order_id", orderID),
		)
		return nil
	}

	if actor == "" {
		actor = "system"
	}

	claimed, err := s.orders.ClaimInventoryDeduction(ctx, orderID, actor, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("claim deduction for order %s: %w", orderID, err)
	}
	if !claimed {
		// A concurrent trigger won the guard; its deduction counts.
		s.logger.Debug("Deduction guard already claimed",
			zap.String("order_id", orderID),
		)
		return nil
	}

	deducted := 0
	for _, item := range order.Items {
		stockItemID, tracked, err := s.catalog.StockItemID(ctx, item)
		if err != nil {
			s.logger.Warn("Failed to resolve line item against catalog",
				zap.String("order_id", orderID),
				zap.String("item", item.Name),
				zap.Error(err),
			)
			continue
		}
		if !tracked {
			continue
		}

		movement := models.StockMovement{
			Quantity:    -item.Quantity,
			Type:        models.StockMovementDeduction,
			Reason:      fmt.Sprintf("Order %s", order.OrderNumber),
			OrderID:     orderID,
			Timestamp:   time.Now().UTC(),
			PerformedBy: actor,
		}

		rec, err := s.inventory.ApplyMovement(ctx, stockItemID, movement)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("No inventory record for stock-tracked item",
					zap.String("order_id", orderID),
					zap.String("menu_item_id", stockItemID),
				)
				continue
			}
			return fmt.Errorf("deduct stock for item %s: %w", stockItemID, err)
		}
		deducted++

		if rec.CurrentStock < 0 {
			// Data integrity violation: the order was accepted against
			// stock that no longer exists. Report it, do not clamp.
			s.logger.Error("Stock went negative after deduction",
				zap.String("menu_item_id", stockItemID),
				zap.String("order_id", orderID),
				zap.Int("current_stock", rec.CurrentStock),
			)
			s.audit.Record(ctx, actor, "inventory.negative_stock", "inventory", stockItemID, map[string]interface{}{
				"order_id":      orderID,
				"current_stock": rec.CurrentStock,
			})
		} else if rec.CurrentStock <= rec.MinimumStock {
			s.logger.Warn("Stock at or below minimum",
				zap.String("menu_item_id", stockItemID),
				zap.Int("current_stock", rec.CurrentStock),
				zap.Int("minimum_stock", rec.MinimumStock),
			)
		}
	}

	s.audit.Record(ctx, actor, "inventory.deducted", "order", orderID, map[string]interface{}{
		"order_number":   order.OrderNumber,
		"items_deducted": deducted,
	})

	s.logger.Info("Inventory deducted for order",
		zap.String("order_id", orderID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items_deducted", deducted),
	)
	return nil
}

// Restock appends an addition movement for a menu item.
func (s *InventoryService) Restock(ctx context.Context, menuItemID string, quantity int, reason, actor string) (*models.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("restock quantity must be positive")
	}
	return s.applyManualMovement(ctx, menuItemID, quantity, models.StockMovementAddition, reason, actor)
}

// AdjustStock appends a signed adjustment movement, used for stock-take
// corrections and wastage.
func (s *InventoryService) AdjustStock(ctx context.Context, menuItemID string, quantity int, reason, actor string) (*models.InventoryRecord, error) {
	if quantity == 0 {
		return nil, fmt.Errorf("adjustment quantity must be non-zero")
	}
	return s.applyManualMovement(ctx, menuItemID, quantity, models.StockMovementAdjustment, reason, actor)
}

func (s *InventoryService) applyManualMovement(ctx context.Context, menuItemID string, quantity int, movementType models.StockMovementType, reason, actor string) (*models.InventoryRecord, error) {
	movement := models.StockMovement{
		Quantity:    quantity,
		Type:        movementType,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
		PerformedBy: actor,
	}

	rec, err := s.inventory.ApplyMovement(ctx, menuItemID, movement)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("menu item %s: %w", menuItemID, models.ErrEntityNotFound)
		}
		return nil, err
	}

	s.audit.Record(ctx, actor, "inventory."+string(movementType), "inventory", menuItemID, map[string]interface{}{
		"quantity":      quantity,
		"reason":        reason,
		"current_stock": rec.CurrentStock,
	})
	return rec, nil
}
