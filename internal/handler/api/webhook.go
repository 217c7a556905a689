package api

import (
	"encoding/json"
	"io"
	"net/http"

	"homesit/internal/handler/httperr"
	"homesit/internal/pkg/clock"
	"homesit/internal/pkg/config"
	"homesit/internal/pkg/webhooksig"
	"homesit/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "Webhook-Signature"

// maxWebhookBody caps the request body read; processor events are small.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	paymentCommands commands.PaymentCommands
	clock           clock.Clock
	cfg             config.PaymentConfig
}

func NewWebhookHandler(paymentCommands commands.PaymentCommands, clk clock.Clock, cfg config.Config) *WebhookHandler {
	return &WebhookHandler{
		paymentCommands: paymentCommands,
		clock:           clk,
		cfg:             cfg.Payment,
	}
}

// webhookEnvelope is the processor's event wrapper.
type webhookEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object map[string]any `json:"object"`
	} `json:"data"`
}

// @Summary Payment webhook
// @Description Receive and reconcile payment processor events
// @Tags webhooks
// @Accept json
// @Produce json
// @Param Webhook-Signature header string true "HMAC signature"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	if h.cfg.WebhookSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Webhook not configured",
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	err = webhooksig.Verify(body, c.GetHeader(signatureHeader), h.cfg.WebhookSecret, h.clock.Now(), h.cfg.WebhookTolerance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid signature",
		})
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == "" || envelope.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid event payload",
		})
		return
	}

	result, err := h.paymentCommands.ProcessEvent(c.Request.Context(), commands.PaymentEvent{
		ID:      envelope.ID,
		Type:    envelope.Type,
		Created: envelope.Created,
		Object:  envelope.Data.Object,
	})
	if err != nil {
		// Non-2xx tells the processor to redeliver; the dedupe slot was
		// already released.
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Event processing failed")
		return
	}

	resp := gin.H{"received": true, "outcome": result.Outcome}
	if result.Detail != "" {
		resp["detail"] = result.Detail
	}
	c.JSON(http.StatusOK, resp)
}
