package handler

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubscriptionHandler serves the tenant's package subscriptions
type SubscriptionHandler struct {
	BaseHandler
	subs *subscription.Service
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(svc *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{subs: svc}
}

// RegisterRoutes mounts the subscription routes on a tenant-scoped group
func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	subs := rg.Group("/subscriptions")
	subs.POST("", h.Start)
	subs.PUT("/current", h.Replace)
	subs.GET("/current", h.Current)
	subs.GET("", h.History)
	subs.GET("/:id", h.Get)
	subs.POST("/:id/evaluate", h.Evaluate)
	subs.POST("/:id/cancel", h.Cancel)
	subs.PUT("/:id/auto-renew", h.SetAutoRenew)
	subs.POST("/:id/renew", h.Renew)

	rg.GET("/entitlements/:capability", h.Entitlement)
}

// Start subscribes a tenant that has no current subscription
func (h *SubscriptionHandler) Start(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var req subscription.StartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sub, err := h.subs.Start(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sub)
}

// Replace ends the current subscription and starts a new one
func (h *SubscriptionHandler) Replace(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var req subscription.StartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sub, err := h.subs.Replace(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sub)
}

// Current returns the tenant's live subscription
func (h *SubscriptionHandler) Current(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	sub, err := h.subs.Current(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sub)
}

// History lists every subscription the tenant has held
func (h *SubscriptionHandler) History(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	subs, err := h.subs.History(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, subs)
}

// Get returns one subscription
func (h *SubscriptionHandler) Get(c *gin.Context) {
	h.byID(c, h.subs.Get)
}

// Evaluate persists the status the subscription has reached by now
func (h *SubscriptionHandler) Evaluate(c *gin.Context) {
	h.byID(c, h.subs.Evaluate)
}

// Renew extends a subscription by one package period
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	h.byID(c, h.subs.Renew)
}

// Cancel stops a subscription
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req subscription.CancelRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	sub, err := h.subs.Cancel(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sub)
}

// SetAutoRenew toggles renewal at period end
func (h *SubscriptionHandler) SetAutoRenew(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req subscription.AutoRenewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sub, err := h.subs.SetAutoRenew(c.Request.Context(), tenantID, id, *req.AutoRenew)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sub)
}

// Entitlement answers whether the tenant may use a capability right now
func (h *SubscriptionHandler) Entitlement(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	resp, err := h.subs.HasCapability(c.Request.Context(), tenantID, catalog.Capability(c.Param("capability")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *SubscriptionHandler) byID(c *gin.Context, fn func(ctx context.Context, tenantID, id uuid.UUID) (*subscription.SubscriptionResponse, error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	sub, err := fn(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sub)
}
