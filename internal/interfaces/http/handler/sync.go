package handler

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/reconcile"
	"github.com/gin-gonic/gin"
)

// SyncHandler records the outcome of offline-client round-trips
type SyncHandler struct {
	BaseHandler
	reconcile *reconcile.Service
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(svc *reconcile.Service) *SyncHandler {
	return &SyncHandler{reconcile: svc}
}

// RegisterRoutes mounts the sync routes on a tenant-scoped group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.GET("/failed", h.ListFailed)
	sync.POST("/:kind/:id/ack", h.Ack)
	sync.POST("/:kind/:id/fail", h.Fail)
	sync.POST("/:kind/:id/rebase", h.Rebase)
}

// Ack marks a record synced at the reported server version
func (h *SyncHandler) Ack(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req reconcile.AckRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rec, err := h.reconcile.Ack(c.Request.Context(), tenantID, reconcile.Kind(c.Param("kind")), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// Fail records a rejected push and reports whether it conflicts
func (h *SyncHandler) Fail(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req reconcile.FailRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.reconcile.Fail(c.Request.Context(), tenantID, reconcile.Kind(c.Param("kind")), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Rebase keeps the local change of a conflicted record
func (h *SyncHandler) Rebase(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.reconcile.Rebase(c.Request.Context(), tenantID, reconcile.Kind(c.Param("kind")), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// ListFailed lists records whose last push failed
func (h *SyncHandler) ListFailed(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var f reconcile.FailedFilter
	if !h.BindQuery(c, &f) {
		return
	}
	recs, err := h.reconcile.ListFailed(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, recs)
}
