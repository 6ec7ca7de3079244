package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntry is one append-only record of a privileged mutation.
type AuditEntry struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Actor      string                 `bson:"actor" json:"actor"`
	Action     string                 `bson:"action" json:"action"`
	Resource   string                 `bson:"resource" json:"resource"`
	ResourceID string                 `bson:"resourceId" json:"resourceId"`
	Details    map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp  time.Time              `bson:"timestamp" json:"timestamp"`
}
