package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ostendo-io/wawagardenbar-app-sub002/database"
	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
)

// AuditRepository appends to the forensic audit log.
type AuditRepository interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

type MongoAuditRepository struct {
	col *mongo.Collection
}

func NewMongoAuditRepository(m *database.Mongo) *MongoAuditRepository {
	return &MongoAuditRepository{col: m.DB.Collection(database.AuditLogsCollection)}
}

func (r *MongoAuditRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
