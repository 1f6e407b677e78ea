package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/identity"
	domainidentity "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Authenticator resolves a bearer token into the calling principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Principal, error)
}

// Auth requires a valid bearer token backed by a live session
func Auth(authn Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, shared.CodeUnauthorized, "Missing bearer token")
			return
		}

		p, err := authn.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			code := shared.ErrorCode(err)
			if code == "" || code == shared.CodePersistenceUnavailable {
				log.Error("Authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			}
			if code != shared.CodePersistenceUnavailable {
				code = shared.CodeUnauthorized
			}
			abort(c, code, "Authentication required")
			return
		}

		c.Set(PrincipalKey, p)
		c.Set(UserIDKey, p.UserID.String())
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), p.UserID))
		c.Next()
	}
}

// RequireRole rejects principals whose role is not listed
func RequireRole(roles ...domainidentity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			abort(c, shared.CodeUnauthorized, "Authentication required")
			return
		}
		if !slices.Contains(roles, p.Role) {
			abort(c, shared.CodeForbidden, "Insufficient role")
			return
		}
		c.Next()
	}
}
