package handler

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the tenant's audit trail
type AuditHandler struct {
	BaseHandler
	query *audit.QueryService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(query *audit.QueryService) *AuditHandler {
	return &AuditHandler{query: query}
}

// RegisterRoutes mounts the audit route on a tenant-scoped admin group
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit-logs", h.List)
}

// List returns a page of audit entries, newest first by default
func (h *AuditHandler) List(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var f audit.ListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	p, err := h.query.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, p)
}
