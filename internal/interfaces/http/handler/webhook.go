package handler

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives payment gateway callbacks
type WebhookHandler struct {
	BaseHandler
	processor *ledger.WebhookProcessor
	secret    string
}

// NewWebhookHandler creates a handler verifying callbacks with secret
func NewWebhookHandler(processor *ledger.WebhookProcessor, secret string) *WebhookHandler {
	return &WebhookHandler{processor: processor, secret: secret}
}

// RegisterRoutes mounts the public webhook route. It carries no bearer
// token; the signature authenticates the gateway.
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/payments", middleware.WebhookSignature(h.secret), h.PaymentEvent)
}

// PaymentEvent confirms or fails a pending payment. Redelivered events
// answer 200 with duplicate set.
func (h *WebhookHandler) PaymentEvent(c *gin.Context) {
	var ev ledger.GatewayEvent
	if !h.BindJSON(c, &ev) {
		return
	}
	res, err := h.processor.Process(c.Request.Context(), ev)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
