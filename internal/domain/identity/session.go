package identity

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// Session is an ephemeral credential record per user and tenant
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TenantID  uuid.UUID
	Expires   time.Time
	CreatedAt time.Time
}

// NewSession opens a session valid for ttl from now
func NewSession(userID, tenantID uuid.UUID, ttl time.Duration, now time.Time) (*Session, error) {
	if ttl <= 0 {
		return nil, shared.NewDomainError("INVALID_TTL", "Session TTL must be positive")
	}
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TenantID:  tenantID,
		Expires:   now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// GetTenantID returns the session tenant
func (s *Session) GetTenantID() uuid.UUID {
	return s.TenantID
}

// IsExpired reports whether the session is no longer valid at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.Expires)
}

// Revoke ends the session at now
func (s *Session) Revoke(now time.Time) {
	if now.Before(s.Expires) {
		s.Expires = now
	}
}
