package handler

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles login and session endpoints
type AuthHandler struct {
	BaseHandler
	identity *identity.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *identity.Service) *AuthHandler {
	return &AuthHandler{identity: svc}
}

// RegisterPublicRoutes mounts the routes that need no token
func (h *AuthHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
}

// RegisterRoutes mounts the routes of an authenticated group
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/me", h.Me)
}

// Login exchanges credentials for an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.identity.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Logout revokes the session of the presented token
func (h *AuthHandler) Logout(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}
	if err := h.identity.Logout(c.Request.Context(), p.SessionID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me describes the authenticated caller
func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}
	h.Success(c, gin.H{
		"user_id":    p.UserID,
		"tenant_id":  p.TenantID,
		"session_id": p.SessionID,
		"role":       p.Role,
	})
}
