package handlers

import (
	"net/http"

	"innkeeper/config"
	"innkeeper/services/payment"
	"innkeeper/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// WebhookHandler receives settlement events from Stripe.
type WebhookHandler struct {
	Reconciler payment.ReconcilerService
	Logger     *zap.Logger
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(reconciler payment.ReconcilerService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Reconciler: reconciler, Logger: logger}
}

// StripeWebhookHandler verifies the event signature and hands the event to
// the reconciler. Stripe retries on any non-2xx, so 500 is returned only
// when reprocessing is wanted.
func (h *WebhookHandler) StripeWebhookHandler(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to read payload", "")
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, config.AppConfig.StripeWebhookSecret)
	if err != nil {
		h.Logger.Warn("webhook signature verification failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "invalid signature", "")
		return
	}

	if err := h.Reconciler.Handle(c.Request.Context(), event); err != nil {
		h.Logger.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "webhook processing failed", "")
		return
	}

	c.String(http.StatusOK, "ok")
}
