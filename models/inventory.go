package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockMovementType classifies an entry in the stock-history ledger.
type StockMovementType string

const (
	StockMovementAddition   StockMovementType = "addition"
	StockMovementDeduction  StockMovementType = "deduction"
	StockMovementAdjustment StockMovementType = "adjustment"
)

// StockMovement is one signed entry in an inventory record's history.
// Deduction entries always reference the order that caused them so the
// ledger can be reconciled against orders after the fact.
type StockMovement struct {
	Quantity    int               `bson:"quantity" json:"quantity"`
	Type        StockMovementType `bson:"type" json:"type"`
	Reason      string            `bson:"reason,omitempty" json:"reason,omitempty"`
	OrderID     string            `bson:"orderId,omitempty" json:"orderId,omitempty"`
	Timestamp   time.Time         `bson:"timestamp" json:"timestamp"`
	PerformedBy string            `bson:"performedBy" json:"performedBy"`
}

// InventoryRecord tracks stock for one menu item. Invariant: CurrentStock
// equals the sum of all signed StockHistory quantities.
type InventoryRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MenuItemID   string             `bson:"menuItemId" json:"menuItemId"`
	ItemName     string             `bson:"itemName" json:"itemName"`
	CurrentStock int                `bson:"currentStock" json:"currentStock"`
	MinimumStock int                `bson:"minimumStock" json:"minimumStock"`
	MaximumStock int                `bson:"maximumStock" json:"maximumStock"`
	CostPerUnit  int                `bson:"costPerUnit" json:"costPerUnit"`
	StockHistory []StockMovement    `bson:"stockHistory" json:"stockHistory"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
