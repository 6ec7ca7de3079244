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

// RewardRepository persists rewards and reads the admin-configured
// issuance rules. Redeem and Expire are guarded updates filtered on
// status "active" so a reward can leave that state only once.
type RewardRepository interface {
	Create(ctx context.Context, reward *models.Reward) error
	FindByID(ctx context.Context, id string) (*models.Reward, error)
	// CodeExists checks the code against every reward ever issued,
	// regardless of status.
	CodeExists(ctx context.Context, code string) (bool, error)
	Redeem(ctx context.Context, id, orderID string, at time.Time) (*models.Reward, error)
	Expire(ctx context.Context, id string) (*models.Reward, error)
	ActiveRules(ctx context.Context) ([]models.RewardRule, error)
}

type MongoRewardRepository struct {
	rewards *mongo.Collection
	rules   *mongo.Collection
}

func NewMongoRewardRepository(m *database.Mongo) *MongoRewardRepository {
	return &MongoRewardRepository{
		rewards: m.DB.Collection(database.RewardsCollection),
		rules:   m.DB.Collection(database.RewardRulesCollection),
	}
}

func (r *MongoRewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	if _, err := r.rewards.InsertOne(ctx, reward); err != nil {
		return fmt.Errorf("insert reward: %w", err)
	}
	return nil
}

func (r *MongoRewardRepository) FindByID(ctx context.Context, id string) (*models.Reward, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var reward models.Reward
	err = r.rewards.FindOne(ctx, bson.M{"_id": oid}).Decode(&reward)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find reward: %w", err)
	}
	return &reward, nil
}

func (r *MongoRewardRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	count, err := r.rewards.CountDocuments(ctx, bson.M{"code": code})
	if err != nil {
		return false, fmt.Errorf("count reward codes: %w", err)
	}
	return count > 0, nil
}

func (r *MongoRewardRepository) Redeem(ctx context.Context, id, orderID string, at time.Time) (*models.Reward, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid, "status": models.RewardStatusActive}
	update := bson.M{"$set": bson.M{
		"status":            models.RewardStatusRedeemed,
		"redeemedInOrderId": orderID,
		"redeemedAt":        at,
	}}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoRewardRepository) Expire(ctx context.Context, id string) (*models.Reward, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid, "status": models.RewardStatusActive}
	update := bson.M{"$set": bson.M{"status": models.RewardStatusExpired}}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoRewardRepository) ActiveRules(ctx context.Context) ([]models.RewardRule, error) {
	cursor, err := r.rules.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("find reward rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []models.RewardRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("decode reward rules: %w", err)
	}
	return rules, nil
}

func (r *MongoRewardRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Reward, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reward models.Reward
	err := r.rewards.FindOneAndUpdate(ctx, filter, update, opts).Decode(&reward)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return &reward, nil
}
