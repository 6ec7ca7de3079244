package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ostendo-io/wawagardenbar-app-sub002/database"
	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
)

// InventoryRepository provides the stock ledger. ApplyMovement is the
// only mutation path: it increments the running stock and appends the
// signed history entry in one atomic update, so the conservation
// invariant (currentStock == sum of history quantities) holds at every
// point in time.
type InventoryRepository interface {
	FindByMenuItemID(ctx context.Context, menuItemID string) (*models.InventoryRecord, error)
	ApplyMovement(ctx context.Context, menuItemID string, movement models.StockMovement) (*models.InventoryRecord, error)
}

type MongoInventoryRepository struct {
	col *mongo.Collection
}

func NewMongoInventoryRepository(m *database.Mongo) *MongoInventoryRepository {
	return &MongoInventoryRepository{col: m.DB.Collection(database.InventoryCollection)}
}

func (r *MongoInventoryRepository) FindByMenuItemID(ctx context.Context, menuItemID string) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := r.col.FindOne(ctx, bson.M{"menuItemId": menuItemID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find inventory record: %w", err)
	}
	return &rec, nil
}

func (r *MongoInventoryRepository) ApplyMovement(ctx context.Context, menuItemID string, movement models.StockMovement) (*models.InventoryRecord, error) {
	filter := bson.M{"menuItemId": menuItemID}
	update := bson.M{
		"$inc":  bson.M{"currentStock": movement.Quantity},
		"$push": bson.M{"stockHistory": movement},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec models.InventoryRecord
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("apply stock movement: %w", err)
	}
	return &rec, nil
}
