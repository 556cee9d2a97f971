package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livewall-backend-go/internal/core"
	"livewall-backend-go/internal/crypto"
	"livewall-backend-go/internal/metrics"
	"livewall-backend-go/internal/models"
)

const maxWebhookBodyBytes = 1 << 20

// BillingHandler handles billing related API endpoints.
type BillingHandler struct {
	billingService core.BillingService
	logger         *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billingService: bs, logger: logger}
}

// mapBillingErrorToStatus maps errors from core.BillingService to HTTP status codes and ErrorResponse.
func mapBillingErrorToStatus(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, core.ErrWebhookSignature):
		return http.StatusBadRequest, ErrorResponse{Error: "Invalid webhook signature"}
	case errors.Is(err, core.ErrWebhookPayload):
		return http.StatusBadRequest, ErrorResponse{Error: "Malformed webhook payload"}
	case errors.Is(err, core.ErrPriceNotFound):
		return http.StatusBadRequest, ErrorResponse{Error: "No price configured for checkout"}
	case errors.Is(err, core.ErrCheckoutProvider):
		return http.StatusInternalServerError, ErrorResponse{Error: "Payment provider unavailable, please retry"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
	}
}

// HandleWebhook handles POST /api/v1/billing/webhook. The signature covers the raw body,
// so the body is read as bytes and never re-encoded.
func (h *BillingHandler) HandleWebhook(c *gin.Context) {
	start := time.Now()
	eventType := "unknown"
	status := http.StatusOK
	defer func() {
		metrics.WebhookRequestsTotal.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
		metrics.WebhookDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		status = http.StatusBadRequest
		c.JSON(status, ErrorResponse{Error: "Failed to read webhook payload"})
		return
	}

	result, err := h.billingService.HandleWebhook(c.Request.Context(), c.GetHeader(crypto.SignatureHeader), payload)
	if err != nil {
		var body ErrorResponse
		status, body = mapBillingErrorToStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Billing webhook processing failed", zap.Error(err))
		} else {
			h.logger.Warn("Rejected billing webhook", zap.Error(err))
		}
		c.JSON(status, body)
		return
	}

	eventType = result.EventType
	c.JSON(status, gin.H{"received": true, "outcome": result.Outcome})
}

// CreateCheckout handles POST /api/v1/billing/checkout.
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req models.CreateCheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
			return
		}
	}

	txn, err := h.billingService.CreateCheckout(c.Request.Context(), session, req)
	if err != nil {
		status, body := mapBillingErrorToStatus(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, txn)
}
