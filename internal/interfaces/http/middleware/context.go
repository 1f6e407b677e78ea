// Package middleware provides the gin middleware of the billing API:
// request ids, authentication, tenant resolution, limits and telemetry.
package middleware

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// gin context keys
const (
	RequestIDKey = "request_id"
	PrincipalKey = "principal"
	UserIDKey    = "user_id"
	TenantIDKey  = "tenant_id"

	RequestIDHeader = "X-Request-ID"
	TenantIDHeader  = "X-Tenant-ID"
)

// GetRequestID returns the request id set by RequestID
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return logger.GetRequestID(c.Request.Context())
}

// GetPrincipal returns the authenticated caller, nil on public routes
func GetPrincipal(c *gin.Context) *identity.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*identity.Principal); ok {
			return p
		}
	}
	return nil
}

// GetTenantID returns the tenant resolved by Tenant. ok is false when no
// tenant was resolved or the stored value is malformed.
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	return uuidValue(c, TenantIDKey)
}

// GetUserID returns the authenticated user id
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	return uuidValue(c, UserIDKey)
}

func uuidValue(c *gin.Context, key string) (uuid.UUID, bool) {
	v, ok := c.Get(key)
	if !ok {
		return uuid.Nil, false
	}
	switch id := v.(type) {
	case uuid.UUID:
		return id, id != uuid.Nil
	case string:
		parsed, err := uuid.Parse(id)
		return parsed, err == nil && parsed != uuid.Nil
	}
	return uuid.Nil, false
}

// abort writes the standard error body with the status of code
func abort(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, GetRequestID(c)))
}
