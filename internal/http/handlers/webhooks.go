package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/modules/payments"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

const signatureHeader = "x-paystack-signature"

type WebhookHandler struct {
	Logger   *slog.Logger
	Gateway  payments.Gateway
	Payments *payments.Service
}

func NewWebhookHandler(logger *slog.Logger, gw payments.Gateway, svc *payments.Service) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Gateway: gw, Payments: svc}
}

// POST /api/payments/webhook
// Body is raw JSON; the signature is HMAC-SHA512 of the body. Once the
// signature passes, the delivery is acked with 200 regardless of whether
// the event maps to a known order.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request body.", nil))
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" || !h.Gateway.VerifySignature(signature, body) {
		h.Logger.Warn("webhook signature rejected", "request_id", middleware.GetRequestID(c))
		middleware.Fail(c, apperr.SignatureErr("Invalid signature."))
		return
	}

	ev, err := payments.ParseWebhook(body)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Malformed webhook payload.", nil))
		return
	}

	if err := h.Payments.HandleWebhook(c.Request.Context(), ev, body); err != nil {
		// 500 so the provider retries the delivery
		h.Logger.Error("webhook apply failed", "event", ev.Event, "reference", ev.Data.Reference, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
