package middleware

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Tenant resolves the tenant every request acts in. It must run after Auth.
//
// Tenant users act in the tenant of their session; an X-Tenant-ID naming any
// other tenant is rejected. Platform administrators belong to no tenant and
// must name one with X-Tenant-ID.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			abort(c, shared.CodeUnauthorized, "Authentication required")
			return
		}

		var header uuid.UUID
		if raw := c.GetHeader(TenantIDHeader); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				abort(c, shared.CodeInvalidInput, "Invalid tenant ID format")
				return
			}
			header = id
		}

		var tenantID uuid.UUID
		switch {
		case p.TenantID != nil:
			tenantID = *p.TenantID
			if header != uuid.Nil && header != tenantID {
				abort(c, shared.CodeCrossTenantViolation, "Token is not valid for the requested tenant")
				return
			}
		case p.IsPlatformAdmin() && header != uuid.Nil:
			tenantID = header
		default:
			abort(c, dto.ErrCodeTenantRequired, "X-Tenant-ID header is required")
			return
		}

		c.Set(TenantIDKey, tenantID.String())
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID))
		c.Next()
	}
}
