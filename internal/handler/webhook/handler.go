package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/handler"
	"github.com/jwalitptl/carebook-api/internal/service/webhook"
	"github.com/jwalitptl/carebook-api/pkg/payment"
)

type Handler struct {
	svc      webhook.WebhookServicer
	verifier *payment.SignatureVerifier
	logger   zerolog.Logger
}

func NewHandler(svc webhook.WebhookServicer, verifier *payment.SignatureVerifier, logger zerolog.Logger) *Handler {
	if !verifier.Enabled() {
		logger.Warn().Msg("Payment webhook secret not configured, signatures are not verified")
	}
	return &Handler{svc: svc, verifier: verifier, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/payment", h.Receive)
}

// Receive verifies and reconciles one gateway delivery. Every verified,
// well-formed delivery is acknowledged with 200 whatever it matched, so the
// gateway does not redeliver events this service chose to ignore. Store
// failures answer 500 so the gateway retries.
func (h *Handler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	if err := h.verifier.Verify(c.Request.Header, body); err != nil {
		h.logger.Warn().Err(err).Str("webhook_id", c.GetHeader(payment.HeaderWebhookID)).Msg("Rejected webhook signature")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var evt payment.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	outcome, err := h.svc.Handle(c.Request.Context(), &evt)
	if err != nil {
		h.logger.Error().Err(err).Str("event_id", evt.ID).Str("type", evt.Type).Msg("Failed to reconcile webhook")
		handler.FailJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
