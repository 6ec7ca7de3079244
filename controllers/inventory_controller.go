package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/middleware"
	"github.com/ostendo-io/wawagardenbar-app-sub002/services"
)

type InventoryController struct {
	Inventory *services.InventoryService
	Logger    *zap.Logger
}

// Restock adds received stock for a menu item.
func (ic *InventoryController) Restock(c *gin.Context) {
	var req struct {
		Quantity int    `json:"quantity" binding:"required,min=1"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	rec, err := ic.Inventory.Restock(c.Request.Context(), c.Param("itemId"), req.Quantity, req.Reason, actor.UserID)
	if err != nil {
		if isEntityNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inventory record not found"})
			return
		}
		ic.Logger.Error("Failed to restock item",
			zap.String("menu_item_id", c.Param("itemId")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restock item"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Adjust applies a signed stock-take correction.
func (ic *InventoryController) Adjust(c *gin.Context) {
	var req struct {
		Quantity int    `json:"quantity" binding:"required"`
		Reason   string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	rec, err := ic.Inventory.AdjustStock(c.Request.Context(), c.Param("itemId"), req.Quantity, req.Reason, actor.UserID)
	if err != nil {
		if isEntityNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inventory record not found"})
			return
		}
		ic.Logger.Error("Failed to adjust stock",
			zap.String("menu_item_id", c.Param("itemId")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust stock"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
