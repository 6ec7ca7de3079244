package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
	"github.com/ostendo-io/wawagardenbar-app-sub002/repository"
)

const codeGenerationAttempts = 5

// RewardService issues and redeems loyalty rewards. Issuance is
// probabilistic: a qualifying spend may legitimately earn nothing, and
// callers must treat a nil reward as a normal outcome.
type RewardService struct {
	repo   repository.RewardRepository
	audit  *AuditService
	logger *zap.Logger

	// Naira value of one loyalty point when applied as a discount.
	pointsToNairaRate float64

	// draw returns a uniform value in [0,1). Injected in tests.
	draw func() float64
}

func NewRewardService(repo repository.RewardRepository, audit *AuditService, logger *zap.Logger, pointsToNairaRate float64) *RewardService {
	return &RewardService{
		repo:              repo,
		audit:             audit,
		logger:            logger,
		pointsToNairaRate: pointsToNairaRate,
		draw:              rand.Float64,
	}
}

// WithDraw overrides the probability source. Used by tests.
func (s *RewardService) WithDraw(draw func() float64) *RewardService {
	s.draw = draw
	return s
}

// CalculateReward evaluates the active reward rules against a qualifying
// spend and issues at most one reward. Among eligible rules the one with
// the highest spend threshold wins, as the most specific match. Returns
// (nil, nil) when no rule matches or the probability draw fails.
func (s *RewardService) CalculateReward(ctx context.Context, userID, orderID string, spendAmount int) (*models.Reward, error) {
	rules, err := s.repo.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reward rules: %w", err)
	}

	var eligible []models.RewardRule
	for _, rule := range rules {
		if spendAmount >= rule.SpendThreshold {
			eligible = append(eligible, rule)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].SpendThreshold > eligible[j].SpendThreshold
	})
	rule := eligible[0]

	if s.draw() >= rule.Probability {
		return nil, nil
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reward := &models.Reward{
		Code:        code,
		UserID:      userID,
		RewardType:  rule.RewardType,
		RewardValue: rule.RewardValue,
		Status:      models.RewardStatusActive,
		ExpiresAt:   now.AddDate(0, 0, rule.ValidityDays),
		OrderID:     orderID,
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, reward); err != nil {
		return nil, fmt.Errorf("persist reward: %w", err)
	}

	s.audit.Record(ctx, "system", "reward.issued", "reward", reward.ID.Hex(), map[string]interface{}{
		"code":         code,
		"user_id":      userID,
		"order_id":     orderID,
		"reward_type":  string(rule.RewardType),
		"reward_value": rule.RewardValue,
		"spend_amount": spendAmount,
	})

	s.logger.Info("Reward issued",
		zap.String("code", code),
		zap.String("user_id", userID),
		zap.String("order_id", orderID),
		zap.String("reward_type", string(rule.RewardType)),
	)
	return reward, nil
}

// GrantReward creates a reward by explicit admin action, bypassing the
// rules and the probability gate.
func (s *RewardService) GrantReward(ctx context.Context, userID string, rewardType models.RewardType, rewardValue, validityDays int, actor string) (*models.Reward, error) {
	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reward := &models.Reward{
		Code:        code,
		UserID:      userID,
		RewardType:  rewardType,
		RewardValue: rewardValue,
		Status:      models.RewardStatusActive,
		ExpiresAt:   now.AddDate(0, 0, validityDays),
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, reward); err != nil {
		return nil, fmt.Errorf("persist reward: %w", err)
	}

	s.audit.Record(ctx, actor, "reward.granted", "reward", reward.ID.Hex(), map[string]interface{}{
		"code":         code,
		"user_id":      userID,
		"reward_type":  string(rewardType),
		"reward_value": rewardValue,
	})
	return reward, nil
}

// RedeemReward transitions a reward active→redeemed exactly once and
// stamps the order it was spent on.
func (s *RewardService) RedeemReward(ctx context.Context, rewardID, orderID string) (*models.Reward, error) {
	reward, err := s.repo.FindByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("reward %s: %w", rewardID, models.ErrEntityNotFound)
		}
		return nil, fmt.Errorf("load reward: %w", err)
	}

	switch reward.Status {
	case models.RewardStatusRedeemed:
		return nil, models.ErrAlreadyRedeemed
	case models.RewardStatusExpired:
		return nil, models.ErrRewardExpired
	}

	if time.Now().After(reward.ExpiresAt) {
		// Past its validity but not yet swept; redemption is refused and
		// the explicit expiry transition is left to the sweep or an admin.
		return nil, models.ErrRewardExpired
	}

	updated, err := s.repo.Redeem(ctx, rewardID, orderID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The guard failed: a concurrent redemption got there first.
			return nil, models.ErrAlreadyRedeemed
		}
		return nil, fmt.Errorf("redeem reward: %w", err)
	}

	s.audit.Record(ctx, reward.UserID, "reward.redeemed", "reward", rewardID, map[string]interface{}{
		"code":     updated.Code,
		"order_id": orderID,
	})
	return updated, nil
}

// ExpireReward explicitly transitions a reward active→expired. Called by
// an admin override or the scheduled sweep. Expiring an already-expired
// reward is a no-op.
func (s *RewardService) ExpireReward(ctx context.Context, rewardID, actor string) (*models.Reward, error) {
	updated, err := s.repo.Expire(ctx, rewardID)
	if err == nil {
		s.audit.Record(ctx, actor, "reward.expired", "reward", rewardID, nil)
		return updated, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("expire reward: %w", err)
	}

	reward, findErr := s.repo.FindByID(ctx, rewardID)
	if findErr != nil {
		return nil, fmt.Errorf("reward %s: %w", rewardID, models.ErrEntityNotFound)
	}
	switch reward.Status {
	case models.RewardStatusExpired:
		return reward, nil
	case models.RewardStatusRedeemed:
		return nil, models.ErrRewardNotActive
	}
	return nil, fmt.Errorf("expire reward %s: %w", rewardID, models.ErrRewardNotActive)
}

// CalculateDiscountAmount converts a reward into a Naira discount
// against an order subtotal. The discount never exceeds the subtotal.
// Free-item rewards contribute nothing here; the free item is applied at
// the line-item level by checkout.
func (s *RewardService) CalculateDiscountAmount(reward *models.Reward, subtotal int) int {
	if reward == nil || subtotal <= 0 {
		return 0
	}

	var discount int
	switch reward.RewardType {
	case models.RewardTypeDiscountPercentage:
		discount = subtotal * reward.RewardValue / 100
	case models.RewardTypeDiscountFixed:
		discount = reward.RewardValue
	case models.RewardTypeLoyaltyPoints:
		discount = int(float64(reward.RewardValue) * s.pointsToNairaRate)
	case models.RewardTypeFreeItem:
		return 0
	}

	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// generateCode produces a short human-readable code and retries on the
// unlikely collision with any previously issued code.
func (s *RewardService) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < codeGenerationAttempts; i++ {
		code := randomCode("WGB-", 8)

		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check reward code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique reward code after %d attempts", codeGenerationAttempts)
}
