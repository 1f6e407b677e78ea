package identity

import (
	"encoding/json"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/google/uuid"
)

// CreateTenantRequest represents a tenant signup
type CreateTenantRequest struct {
	Slug     string          `json:"slug" binding:"required,min=2,max=63"`
	Name     string          `json:"name" binding:"required,min=1,max=200"`
	Settings json.RawMessage `json:"settings"`
}

// UpdateSettingsRequest replaces the tenant settings document
type UpdateSettingsRequest struct {
	Settings json.RawMessage `json:"settings" binding:"required"`
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Email    string        `json:"email" binding:"required,email,max=200"`
	Name     string        `json:"name" binding:"max=200"`
	Role     identity.Role `json:"role" binding:"required,oneof=Super_Admin Admin User"`
	Password string        `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest authenticates a user. TenantID is required only for
// platform administrators, who belong to no tenant.
type LoginRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required"`
	TenantID *uuid.UUID `json:"tenant_id"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID        uuid.UUID       `json:"id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Settings  json.RawMessage `json:"settings"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserResponse represents a user; the password hash is never exposed
type UserResponse struct {
	ID       uuid.UUID     `json:"id"`
	TenantID *uuid.UUID    `json:"tenant_id,omitempty"`
	Email    string        `json:"email"`
	Name     string        `json:"name"`
	Role     identity.Role `json:"role"`
	IsActive bool          `json:"is_active"`
}

// LoginResponse carries the access token and its session
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	SessionID   uuid.UUID    `json:"session_id"`
	TenantID    uuid.UUID    `json:"tenant_id"`
	User        UserResponse `json:"user"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID    uuid.UUID
	TenantID  *uuid.UUID
	SessionID uuid.UUID
	Role      identity.Role
}

// IsPlatformAdmin reports whether the caller may act in any tenant
func (p *Principal) IsPlatformAdmin() bool {
	return p.Role == identity.RoleSuperAdmin
}

// ToTenantResponse converts a domain Tenant
func ToTenantResponse(t *identity.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        t.ID,
		Slug:      t.Slug,
		Name:      t.Name,
		Settings:  t.Settings,
		DeletedAt: t.DeletedAt,
		Version:   t.Version,
		CreatedAt: t.CreatedAt,
	}
}

// ToUserResponse converts a domain User
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
