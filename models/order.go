package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the customer-visible lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out-for-delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus tracks the payment side of an order or tab independently
// of its fulfilment status.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// StatusChange is one append-only entry in an order or tab status history.
type StatusChange struct {
	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// OrderItem is a line item. Items are immutable once the order is placed.
type OrderItem struct {
	MenuItemID     string   `bson:"menuItemId,omitempty" json:"menuItemId,omitempty"`
	Name           string   `bson:"name" json:"name"`
	Price          int      `bson:"price" json:"price"`
	Quantity       int      `bson:"quantity" json:"quantity"`
	Customizations []string `bson:"customizations,omitempty" json:"customizations,omitempty"`
}

// Order is the primary ledger document. Monetary fields are whole Naira,
// computed once at checkout and never recomputed afterwards.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber string             `bson:"orderNumber" json:"orderNumber"`

	// Exactly one customer identity path: a registered user or guest
	// contact details.
	UserID     string `bson:"userId,omitempty" json:"userId,omitempty"`
	GuestName  string `bson:"guestName,omitempty" json:"guestName,omitempty"`
	GuestPhone string `bson:"guestPhone,omitempty" json:"guestPhone,omitempty"`

	Items []OrderItem `bson:"items" json:"items"`

	Subtotal    int `bson:"subtotal" json:"subtotal"`
	Tax         int `bson:"tax" json:"tax"`
	DeliveryFee int `bson:"deliveryFee" json:"deliveryFee"`
	ServiceFee  int `bson:"serviceFee" json:"serviceFee"`
	Total       int `bson:"total" json:"total"`

	Status        OrderStatus    `bson:"status" json:"status"`
	StatusHistory []StatusChange `bson:"statusHistory" json:"statusHistory"`

	PaymentStatus        PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentReference     string        `bson:"paymentReference" json:"paymentReference"`
	TransactionReference string        `bson:"transactionReference,omitempty" json:"transactionReference,omitempty"`
	PaidAt               *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`

	// Exactly-once guard for stock deduction.
	InventoryDeducted   bool       `bson:"inventoryDeducted" json:"inventoryDeducted"`
	InventoryDeductedAt *time.Time `bson:"inventoryDeductedAt,omitempty" json:"inventoryDeductedAt,omitempty"`
	InventoryDeductedBy string     `bson:"inventoryDeductedBy,omitempty" json:"inventoryDeductedBy,omitempty"`

	TabID string `bson:"tabId,omitempty" json:"tabId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsTerminal reports whether no further status transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}
