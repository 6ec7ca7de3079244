package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TabStatus is the lifecycle state of a running table bill.
type TabStatus string

const (
	TabStatusOpen   TabStatus = "open"
	TabStatusClosed TabStatus = "closed"
)

// Tab aggregates multiple orders for one table or session and is closed
// by a single payment. Orders inside a tab are billed through the tab and
// are never paid individually.
type Tab struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TabNumber string             `bson:"tabNumber" json:"tabNumber"`
	TableName string             `bson:"tableName,omitempty" json:"tableName,omitempty"`
	UserID    string             `bson:"userId,omitempty" json:"userId,omitempty"`

	OrderIDs []string `bson:"orderIds" json:"orderIds"`

	Subtotal   int `bson:"subtotal" json:"subtotal"`
	Tax        int `bson:"tax" json:"tax"`
	ServiceFee int `bson:"serviceFee" json:"serviceFee"`
	Total      int `bson:"total" json:"total"`

	Status        TabStatus      `bson:"status" json:"status"`
	StatusHistory []StatusChange `bson:"statusHistory" json:"statusHistory"`

	PaymentStatus        PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentReference     string        `bson:"paymentReference" json:"paymentReference"`
	TransactionReference string        `bson:"transactionReference,omitempty" json:"transactionReference,omitempty"`
	PaidAt               *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
