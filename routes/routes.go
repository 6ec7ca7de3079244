package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ostendo-io/wawagardenbar-app-sub002/config"
	"github.com/ostendo-io/wawagardenbar-app-sub002/controllers"
	"github.com/ostendo-io/wawagardenbar-app-sub002/middleware"
)

// Register wires the HTTP surface. Webhooks are public and authenticate
// themselves by signature; everything else sits behind the JWT
// middleware, with staff operations further restricted to admins.
func Register(
	r *gin.Engine,
	cfg config.Config,
	webhooks *controllers.WebhookController,
	orders *controllers.OrderController,
	inventory *controllers.InventoryController,
	rewards *controllers.RewardController,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	hooks := r.Group("/webhooks")
	{
		hooks.POST("/monnify", webhooks.MonnifyWebhook)
		hooks.POST("/paystack", webhooks.PaystackWebhook)
	}

	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		authed.POST("/rewards/redeem", rewards.RedeemReward)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWTSecret), middleware.AdminOnly())
	{
		admin.PATCH("/orders/:id/status", orders.UpdateOrderStatus)
		admin.POST("/inventory/:itemId/restock", inventory.Restock)
		admin.POST("/inventory/:itemId/adjust", inventory.Adjust)
		admin.POST("/rewards/grant", rewards.GrantReward)
		admin.POST("/rewards/:id/expire", rewards.ExpireReward)
	}
}
