package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livewall-backend-go/internal/core"
	"livewall-backend-go/internal/models"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	orderService core.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os core.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: os, logger: logger}
}

func (h *OrderHandler) mapOrderErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid order request", Details: err.Error()})
	case errors.Is(err, core.ErrItemUnavailable):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "One or more items are unavailable"})
	case errors.Is(err, core.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Order not found"})
	case errors.Is(err, core.ErrOrderForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Order belongs to another user"})
	default:
		h.logger.Error("Order operation failed", zap.Error(err))
		internalError(c)
	}
}

// CreateOrder handles POST /api/v1/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	result, err := h.orderService.Create(c.Request.Context(), session, req)
	if err != nil {
		h.mapOrderErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompleteOrder handles POST /api/v1/orders/complete.
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	order, err := h.orderService.Complete(c.Request.Context(), session, req)
	if err != nil {
		h.mapOrderErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CompleteOrderResponse{Success: true, Order: order})
}

// ListOrders handles GET /api/v1/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	orders, err := h.orderService.ListForUser(c.Request.Context(), session.ID)
	if err != nil {
		h.mapOrderErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
