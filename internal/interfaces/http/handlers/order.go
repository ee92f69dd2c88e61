// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/domain/cart"
	"github.com/your-org/flowershop-backend/internal/domain/order"
	"github.com/your-org/flowershop-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	cartService  *cart.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, redisClient *redis.Client, recorder audit.Recorder, publisher order.EventPublisher, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: order.NewService(db, recorder, publisher, logger),
		cartService:  cart.NewService(db, redisClient),
	}
}

// PlaceOrder handles POST /orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req order.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	placedOrder, err := h.orderService.PlaceOrder(userID, &req, email)
	if err != nil {
		middleware.RecordOrderOperation("place", false)
		respondError(c, err)
		return
	}

	// The checkout emptied the cart, drop the cached line count
	h.cartService.InvalidateCountCache(userID)
	middleware.RecordOrderOperation("place", true)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    placedOrder,
	})
}

// GetUserOrders handles GET /orders
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.orderService.GetUserOrders(userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetUserOrder handles GET /orders/:id
func (h *OrderHandler) GetUserOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetUserOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Ownership check before the state change
	if _, err := h.orderService.GetUserOrder(userID, orderID); err != nil {
		respondError(c, err)
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	cancelled, err := h.orderService.CancelOrder(orderID, email)
	if err != nil {
		middleware.RecordOrderOperation("cancel", false)
		respondError(c, err)
		return
	}

	middleware.RecordOrderOperation("cancel", true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    cancelled,
	})
}

// AdminListOrders handles GET /admin/orders
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.ListOrders(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrder(orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	o, err := h.orderService.UpdateOrderStatus(orderID, order.Status(req.Status), email)
	if err != nil {
		middleware.RecordOrderOperation("update_status", false)
		respondError(c, err)
		return
	}

	middleware.RecordOrderOperation("update_status", true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    o,
	})
}

// AdminCancelOrder handles POST /admin/orders/:id/cancel
func (h *OrderHandler) AdminCancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	cancelled, err := h.orderService.CancelOrder(orderID, email)
	if err != nil {
		middleware.RecordOrderOperation("cancel", false)
		respondError(c, err)
		return
	}

	middleware.RecordOrderOperation("cancel", true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    cancelled,
	})
}

// AdminDeleteOrder handles DELETE /admin/orders/:id
func (h *OrderHandler) AdminDeleteOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	if err := h.orderService.DeleteOrder(orderID, email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order deleted successfully",
	})
}

// AdminRestoreOrder handles POST /admin/orders/:id/restore
func (h *OrderHandler) AdminRestoreOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	if err := h.orderService.RestoreOrder(orderID, email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order restored successfully",
	})
}
