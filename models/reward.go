package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardType is the shape of the benefit a reward grants.
type RewardType string

const (
	RewardTypeDiscountPercentage RewardType = "discount-percentage"
	RewardTypeDiscountFixed      RewardType = "discount-fixed"
	RewardTypeFreeItem           RewardType = "free-item"
	RewardTypeLoyaltyPoints      RewardType = "loyalty-points"
)

// RewardStatus tracks the single-use lifecycle of a reward.
type RewardStatus string

const (
	RewardStatusActive   RewardStatus = "active"
	RewardStatusRedeemed RewardStatus = "redeemed"
	RewardStatusExpired  RewardStatus = "expired"
)

// Reward is issued to a customer by the issuance engine or an explicit
// admin grant. It transitions active→redeemed exactly once, or
// active→expired, and never reverses.
type Reward struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"code" json:"code"`
	UserID      string             `bson:"userId" json:"userId"`
	RewardType  RewardType         `bson:"rewardType" json:"rewardType"`
	RewardValue int                `bson:"rewardValue" json:"rewardValue"`
	Status      RewardStatus       `bson:"status" json:"status"`
	ExpiresAt   time.Time          `bson:"expiresAt" json:"expiresAt"`

	// OrderID is the order that earned the reward; RedeemedInOrderID is
	// the order it was later spent on.
	OrderID           string     `bson:"orderId,omitempty" json:"orderId,omitempty"`
	RedeemedInOrderID string     `bson:"redeemedInOrderId,omitempty" json:"redeemedInOrderId,omitempty"`
	RedeemedAt        *time.Time `bson:"redeemedAt,omitempty" json:"redeemedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// RewardRule is admin-configured issuance policy. Rules are read-only
// inputs to the issuance engine.
type RewardRule struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name,omitempty" json:"name,omitempty"`
	SpendThreshold int                `bson:"spendThreshold" json:"spendThreshold"`
	RewardType     RewardType         `bson:"rewardType" json:"rewardType"`
	RewardValue    int                `bson:"rewardValue" json:"rewardValue"`
	Probability    float64            `bson:"probability" json:"probability"`
	ValidityDays   int                `bson:"validityDays" json:"validityDays"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
}
