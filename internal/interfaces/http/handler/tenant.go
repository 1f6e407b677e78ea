package handler

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/identity"
	domainidentity "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// TenantHandler manages tenants and their users
type TenantHandler struct {
	BaseHandler
	identity *identity.Service
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(svc *identity.Service) *TenantHandler {
	return &TenantHandler{identity: svc}
}

// RegisterPlatformRoutes mounts the routes reserved to platform admins
func (h *TenantHandler) RegisterPlatformRoutes(rg *gin.RouterGroup) {
	rg.POST("/tenants", h.CreateTenant)
	rg.GET("/tenants/:id", h.GetTenantByID)
	rg.DELETE("/tenants/:id", h.DeleteTenant)
	rg.POST("/platform/users", h.CreatePlatformUser)
}

// RegisterRoutes mounts the routes of a tenant-scoped group
func (h *TenantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tenant", h.GetTenant)
}

// RegisterAdminRoutes mounts the tenant routes that need the Admin role
func (h *TenantHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PUT("/tenant/settings", h.UpdateSettings)
	rg.POST("/users", h.CreateUser)
}

// CreateTenant signs up a tenant
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req identity.CreateTenantRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.identity.CreateTenant(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// GetTenantByID returns any tenant
func (h *TenantHandler) GetTenantByID(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	t, err := h.identity.GetTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// DeleteTenant soft-deletes a tenant; its records stay for audit
func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.identity.DeleteTenant(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreatePlatformUser adds a tenantless platform administrator
func (h *TenantHandler) CreatePlatformUser(c *gin.Context) {
	var req identity.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	u, err := h.identity.CreateUser(c.Request.Context(), nil, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, u)
}

// GetTenant returns the tenant of the request
func (h *TenantHandler) GetTenant(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	t, err := h.identity.GetTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// UpdateSettings replaces the tenant settings document
func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var req identity.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.identity.UpdateSettings(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// CreateUser adds a user to the tenant of the request. Platform admins are
// created through the platform route only.
func (h *TenantHandler) CreateUser(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var req identity.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Role == domainidentity.RoleSuperAdmin {
		h.HandleError(c, shared.ErrForbidden)
		return
	}
	u, err := h.identity.CreateUser(c.Request.Context(), &tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, u)
}
