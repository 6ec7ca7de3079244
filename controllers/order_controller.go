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

type OrderController struct {
	Status *services.StatusService
	Logger *zap.Logger
}

// UpdateOrderStatus lets staff advance an order through its lifecycle.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	order, err := oc.Status.Transition(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status), req.Note, actor.UserID)
	if err != nil {
		switch {
		case isEntityNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, models.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			oc.Logger.Error("Failed to update order status",
				zap.String("order_id", c.Param("id")),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}
