package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ostendo-io/wawagardenbar-app-sub002/database"
	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
)

// TabRepository mirrors the order primitives for running table bills.
// Closing a tab touches only the tab document; its constituent orders
// are billed through it and stay untouched.
type TabRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tab, error)
	FindByPaymentReference(ctx context.Context, ref string) (*models.Tab, error)
	// MarkPaid transitions paymentStatus pending→paid and closes the tab
	// in the same atomic update.
	MarkPaid(ctx context.Context, id, transactionRef string, paidAt time.Time, entry models.StatusChange) (*models.Tab, error)
	// MarkPaymentFailed transitions paymentStatus pending→failed and
	// reopens the tab so it remains billable.
	MarkPaymentFailed(ctx context.Context, id string, status models.PaymentStatus, entry models.StatusChange) (*models.Tab, error)
}

type MongoTabRepository struct {
	col *mongo.Collection
}

func NewMongoTabRepository(m *database.Mongo) *MongoTabRepository {
	return &MongoTabRepository{col: m.DB.Collection(database.TabsCollection)}
}

func (r *MongoTabRepository) FindByID(ctx context.Context, id string) (*models.Tab, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoTabRepository) FindByPaymentReference(ctx context.Context, ref string) (*models.Tab, error) {
	return r.findOne(ctx, bson.M{"paymentReference": ref})
}

func (r *MongoTabRepository) findOne(ctx context.Context, filter bson.M) (*models.Tab, error) {
	var tab models.Tab
	err := r.col.FindOne(ctx, filter).Decode(&tab)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tab: %w", err)
	}
	return &tab, nil
}

func (r *MongoTabRepository) MarkPaid(ctx context.Context, id, transactionRef string, paidAt time.Time, entry models.StatusChange) (*models.Tab, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid, "paymentStatus": models.PaymentStatusPending}
	update := bson.M{
		"$set": bson.M{
			"paymentStatus":        models.PaymentStatusPaid,
			"status":               models.TabStatusClosed,
			"transactionReference": transactionRef,
			"paidAt":               paidAt,
			"updatedAt":            time.Now().UTC(),
		},
		"$push": bson.M{"statusHistory": entry},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTabRepository) MarkPaymentFailed(ctx context.Context, id string, status models.PaymentStatus, entry models.StatusChange) (*models.Tab, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid, "paymentStatus": models.PaymentStatusPending}
	update := bson.M{
		"$set": bson.M{
			"paymentStatus": status,
			"status":        models.TabStatusOpen,
			"updatedAt":     time.Now().UTC(),
		},
		"$push": bson.M{"statusHistory": entry},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTabRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Tab, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var tab models.Tab
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&tab)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update tab: %w", err)
	}
	return &tab, nil
}
