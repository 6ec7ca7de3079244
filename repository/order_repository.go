package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ostendo-io/wawagardenbar-app-sub002/database"
	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
)

// ErrNotFound is returned when a lookup misses, or when a guarded update
// matched no document because its compare-and-set filter was not
// satisfied. Callers that need to tell the two apart re-read the entity.
var ErrNotFound = errors.New("record not found")

// OrderRepository defines the ledger-store primitives for orders. Every
// mutating method is a single atomic filtered update returning the
// post-write document, so callers never re-fetch after a save.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByPaymentReference(ctx context.Context, ref string) (*models.Order, error)
	// MarkPaid transitions paymentStatus pending→paid. ErrNotFound means
	// the guard was not satisfied (already paid, failed, or missing).
	MarkPaid(ctx context.Context, id, transactionRef string, paidAt time.Time) (*models.Order, error)
	// MarkPaymentFailed transitions paymentStatus pending→failed|cancelled.
	MarkPaymentFailed(ctx context.Context, id string, status models.PaymentStatus) (*models.Order, error)
	// ClaimInventoryDeduction flips the inventoryDeducted guard
	// false→true. Returns false when another caller already holds it.
	ClaimInventoryDeduction(ctx context.Context, id, actor string, at time.Time) (bool, error)
	// AppendStatus moves status from→to and appends exactly one history
	// entry, guarded on the expected current status.
	AppendStatus(ctx context.Context, id string, from, to models.OrderStatus, entry models.StatusChange) (*models.Order, error)
}

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(m *database.Mongo) *MongoOrderRepository {
	return &MongoOrderRepository{col: m.DB.Collection(database.OrdersCollection)}
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid order id %q: %w", id, ErrNotFound)
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoOrderRepository) FindByPaymentReference(ctx context.Context, ref string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"paymentReference": ref})
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	err := r.col.FindOne(ctx, filter).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

func (r *MongoOrderRepository) MarkPaid(ctx context.Context, id, transactionRef string, paidAt time.Time) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid, "paymentStatus": models.PaymentStatusPending}
	update := bson.M{"$set": bson.M{
		"paymentStatus":        models.PaymentStatusPaid,
		"transactionReference": transactionRef,
		"paidAt":               paidAt,
		"updatedAt":            time.Now().UTC(),
	}}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoOrderRepository) MarkPaymentFailed(ctx context.Context, id string, status models.PaymentStatus) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid, "paymentStatus": models.PaymentStatusPending}
	update := bson.M{"$set": bson.M{
		"paymentStatus": status,
		"updatedAt":     time.Now().UTC(),
	}}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoOrderRepository) ClaimInventoryDeduction(ctx context.Context, id, actor string, at time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "inventoryDeducted": false},
		bson.M{"$set": bson.M{
			"inventoryDeducted":   true,
			"inventoryDeductedAt": at,
			"inventoryDeductedBy": actor,
			"updatedAt":           time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("claim inventory deduction: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoOrderRepository) AppendStatus(ctx context.Context, id string, from, to models.OrderStatus, entry models.StatusChange) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid, "status": from}
	update := bson.M{
		"$set":  bson.M{"status": to, "updatedAt": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoOrderRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &order, nil
}
