package models

import "time"

// Realtime topics emitted to the live-update channel.
const (
	EventOrderCreated   = "order:created"
	EventOrderUpdated   = "order:updated"
	EventOrderCancelled = "order:cancelled"
)

// OrderEvent is the payload broadcast to the live-update channel and
// produced onto the notification topic on every status or payment
// change. Consumers (websocket fan-out, SMS/WhatsApp dispatch) are
// external to this core.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        string    `json:"user_id,omitempty"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Total         int       `json:"total"`
	Timestamp     time.Time `json:"timestamp"`
}
