// Package identity runs tenant, user and session use cases. Authentication
// issues a session per login; the access token's jti names the session, so
// revoking or purging the session invalidates the token.
package identity

import (
	"context"
	"errors"
	"time"

	appaudit "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCredentials hides whether the email or the password was wrong
var ErrInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid email or password")

// Service handles identity operations
type Service struct {
	scope  tx.Scope
	repos  tx.Repositories
	jwt    *auth.JWTService
	audit  *appaudit.Recorder
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new identity Service
func NewService(scope tx.Scope, repos tx.Repositories, jwt *auth.JWTService, recorder *appaudit.Recorder, logger *zap.Logger) *Service {
	return &Service{
		scope:  scope,
		repos:  repos,
		jwt:    jwt,
		audit:  recorder,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateTenant signs up a tenant; the slug must be unused
func (s *Service) CreateTenant(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	t, err := identity.NewTenant(req.Slug, req.Name)
	if err != nil {
		return nil, err
	}
	if len(req.Settings) > 0 {
		if err := t.UpdateSettings(req.Settings); err != nil {
			return nil, err
		}
	}
	events := t.GetDomainEvents()
	err = s.scope.Execute(ctx, func(repos tx.Repositories) error {
		exists, err := repos.Tenants().ExistsBySlug(ctx, t.Slug)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Tenant slug is already taken")
		}
		if err := repos.Tenants().Save(ctx, t); err != nil {
			return err
		}
		return s.audit.InTx(ctx, repos.Audit(), events)
	})
	if err != nil {
		return nil, err
	}
	s.audit.AfterCommit(ctx, events)
	s.logger.Info("Tenant created", zap.String("tenant_id", t.ID.String()), zap.String("slug", t.Slug))
	return ToTenantResponse(t), nil
}

// GetTenant returns a live tenant
func (s *Service) GetTenant(ctx context.Context, tenantID uuid.UUID) (*TenantResponse, error) {
	t, err := s.repos.Tenants().FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToTenantResponse(t), nil
}

// UpdateSettings replaces the tenant settings; billing keys are validated
func (s *Service) UpdateSettings(ctx context.Context, tenantID uuid.UUID, req UpdateSettingsRequest) (*TenantResponse, error) {
	var t *identity.Tenant
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		var err error
		if t, err = repos.Tenants().LockForUpdate(ctx, tenantID); err != nil {
			return err
		}
		if err := t.UpdateSettings(req.Settings); err != nil {
			return err
		}
		return repos.Tenants().Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, tenantID, "TenantSettingsUpdated", identity.AggregateTypeTenant, tenantID, req.Settings)
	return ToTenantResponse(t), nil
}

// DeleteTenant soft-deletes the tenant; its records are kept
func (s *Service) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		t, err := repos.Tenants().LockForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		if err := t.SoftDelete(s.now()); err != nil {
			return err
		}
		if err := repos.Tenants().Save(ctx, t); err != nil {
			return err
		}
		events = t.GetDomainEvents()
		return s.audit.InTx(ctx, repos.Audit(), events)
	})
	if err != nil {
		return err
	}
	s.audit.AfterCommit(ctx, events)
	s.logger.Info("Tenant deleted", zap.String("tenant_id", tenantID.String()))
	return nil
}

// CreateUser adds a user to tenantID, or a platform admin when tenantID is nil
func (s *Service) CreateUser(ctx context.Context, tenantID *uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	u, err := identity.NewUser(tenantID, req.Email, req.Name, req.Role)
	if err != nil {
		return nil, err
	}
	if err := u.SetPassword(req.Password); err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos tx.Repositories) error {
		if tenantID != nil {
			if _, err := repos.Tenants().FindByID(ctx, *tenantID); err != nil {
				return err
			}
		}
		_, err := repos.Users().FindByEmail(ctx, u.Email)
		switch {
		case err == nil:
			return shared.NewDomainError(shared.CodeAlreadyExists, "A user with this email already exists")
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		return repos.Users().Save(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(u)
	return &resp, nil
}

// Login verifies the credentials, opens a session in the user's tenant and
// returns a token bound to it.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	log := s.logger.With(zap.String("email", req.Email))
	u, err := s.repos.Users().FindByEmail(ctx, req.Email)
	if errors.Is(err, shared.ErrNotFound) {
		log.Warn("Login for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.CheckPassword(req.Password) {
		log.Warn("Login with wrong password")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Account has been deactivated")
	}

	tenantID, err := loginTenant(u, req.TenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Tenants().FindByID(ctx, tenantID); err != nil {
		return nil, err
	}

	session, err := identity.NewSession(u.ID, tenantID, s.jwt.Expiration(), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repos.Sessions().Save(ctx, session); err != nil {
		return nil, err
	}
	token, err := s.jwt.GenerateToken(auth.GenerateTokenInput{
		SessionID: session.ID,
		TenantID:  &tenantID,
		UserID:    u.ID,
		Role:      string(u.Role),
	})
	if err != nil {
		return nil, err
	}
	log.Info("User logged in", zap.String("tenant_id", tenantID.String()), zap.String("session_id", session.ID.String()))
	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		SessionID:   session.ID,
		TenantID:    tenantID,
		User:        ToUserResponse(u),
	}, nil
}

func loginTenant(u *identity.User, requested *uuid.UUID) (uuid.UUID, error) {
	switch {
	case requested != nil:
		if !u.CanAccessTenant(*requested) {
			return uuid.Nil, shared.ErrForbidden
		}
		return *requested, nil
	case u.TenantID != nil:
		return *u.TenantID, nil
	default:
		return uuid.Nil, shared.NewDomainError(shared.CodeInvalidInput, "tenant_id is required for platform administrators")
	}
}

// Authenticate validates an access token and its session
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, shared.ErrUnauthorized.WithCause(err)
	}
	sessionID, err := claims.GetSessionUUID()
	if err != nil {
		return nil, shared.ErrUnauthorized.WithCause(err)
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.ErrUnauthorized.WithCause(err)
	}
	session, err := s.repos.Sessions().FindByID(ctx, sessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if session.IsExpired(s.now()) || session.UserID != userID {
		return nil, shared.ErrUnauthorized
	}
	p := &Principal{UserID: userID, SessionID: sessionID, Role: identity.Role(claims.Role)}
	if tid, ok := claims.GetTenantUUID(); ok {
		if tid != session.TenantID {
			return nil, shared.ErrUnauthorized
		}
		p.TenantID = &tid
	}
	return p, nil
}

// Logout revokes the session
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.repos.Sessions().FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Revoke(s.now())
	return s.repos.Sessions().Save(ctx, session)
}

// PurgeExpiredSessions deletes sessions that expired before now
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repos.Sessions().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Purged expired sessions", zap.Int64("count", n))
	}
	return n, nil
}
