package handlers

import (
	"errors"
	"net/http"

	"innkeeper/services/payment"
	"innkeeper/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler exposes the checkout initiation endpoint.
type PaymentHandler struct {
	Checkout payment.CheckoutService
	Logger   *zap.Logger
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(checkout payment.CheckoutService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Checkout: checkout, Logger: logger}
}

// CreateCheckoutRequest identifies the order to pay for.
type CreateCheckoutRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// CreateCheckoutHandler creates a hosted checkout session for an order and
// returns its redirect URL.
func (h *PaymentHandler) CreateCheckoutHandler(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	url, err := h.Checkout.Initiate(c.Request.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrOrderNotFound):
			utils.JSONError(c, http.StatusNotFound, "order not found", "")
		case errors.Is(err, payment.ErrOrderNotPayable):
			utils.JSONError(c, http.StatusBadRequest, "order is not payable", "")
		case errors.Is(err, payment.ErrInvalidAmount):
			utils.JSONError(c, http.StatusBadRequest, "order total must be positive", "")
		case errors.Is(err, payment.ErrProcessorUnavailable):
			utils.JSONError(c, http.StatusBadGateway, "payment processor unavailable", "")
		default:
			h.Logger.Error("checkout initiation failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "checkout initiation failed", "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
