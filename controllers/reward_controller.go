package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/middleware"
	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
	"github.com/ostendo-io/wawagardenbar-app-sub002/services"
)

type RewardController struct {
	Rewards *services.RewardService
	Logger  *zap.Logger
}

// RedeemReward spends an active reward against an order at checkout.
func (rc *RewardController) RedeemReward(c *gin.Context) {
	var req struct {
		RewardID string `json:"reward_id" binding:"required"`
		OrderID  string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reward, err := rc.Rewards.RedeemReward(c.Request.Context(), req.RewardID, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{"error": "Reward already redeemed"})
		case errors.Is(err, models.ErrRewardExpired):
			c.JSON(http.StatusConflict, gin.H{"error": "Reward has expired"})
		case isEntityNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "Reward not found"})
		default:
			rc.Logger.Error("Failed to redeem reward",
				zap.String("reward_id", req.RewardID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem reward"})
		}
		return
	}

	c.JSON(http.StatusOK, reward)
}

// GrantReward issues a reward by explicit admin action.
func (rc *RewardController) GrantReward(c *gin.Context) {
	var req struct {
		UserID       string `json:"user_id" binding:"required"`
		RewardType   string `json:"reward_type" binding:"required,oneof=discount-percentage discount-fixed free-item loyalty-points"`
		RewardValue  int    `json:"reward_value" binding:"required,gt=0"`
		ValidityDays int    `json:"validity_days" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	reward, err := rc.Rewards.GrantReward(c.Request.Context(), req.UserID, models.RewardType(req.RewardType), req.RewardValue, req.ValidityDays, actor.UserID)
	if err != nil {
		rc.Logger.Error("Failed to grant reward",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant reward"})
		return
	}

	c.JSON(http.StatusCreated, reward)
}

// ExpireReward force-expires an active reward.
func (rc *RewardController) ExpireReward(c *gin.Context) {
	actor := middleware.GetActor(c)
	reward, err := rc.Rewards.ExpireReward(c.Request.Context(), c.Param("id"), actor.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRewardNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "Reward is not active"})
		case isEntityNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "Reward not found"})
		default:
			rc.Logger.Error("Failed to expire reward",
				zap.String("reward_id", c.Param("id")),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to expire reward"})
		}
		return
	}

	c.JSON(http.StatusOK, reward)
}
