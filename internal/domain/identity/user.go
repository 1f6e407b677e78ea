package identity

import (
	"net/mail"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is a platform-level role
type Role string

const (
	RoleSuperAdmin Role = "Super_Admin"
	RoleAdmin      Role = "Admin"
	RoleUser       Role = "User"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

const bcryptCost = 12

// User belongs to at most one tenant; platform admins have no tenant
type User struct {
	shared.BaseAggregateRoot
	TenantID     *uuid.UUID
	Email        string
	Name         string
	Role         Role
	IsActive     bool
	PasswordHash string
}

// NewUser creates an active user. Only Super_Admin may omit the tenant.
func NewUser(tenantID *uuid.UUID, email, name string, role Role) (*User, error) {
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown user role")
	}
	if tenantID == nil && role != RoleSuperAdmin {
		return nil, shared.NewDomainError("TENANT_REQUIRED", "Only platform administrators may exist without a tenant")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
	}
	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		Email:             strings.ToLower(addr.Address),
		Name:              strings.TrimSpace(name),
		Role:              role,
		IsActive:          true,
	}
	return u, nil
}

// SetPassword stores a bcrypt hash of password
func (u *User) SetPassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be 8-72 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// CheckPassword compares password against the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Deactivate disables the user
func (u *User) Deactivate() {
	u.IsActive = false
	u.Touch()
	u.IncrementVersion()
}

// Activate re-enables the user
func (u *User) Activate() {
	u.IsActive = true
	u.Touch()
	u.IncrementVersion()
}

// CanAccessTenant reports whether the user may act within tenantID
func (u *User) CanAccessTenant(tenantID uuid.UUID) bool {
	if !u.IsActive {
		return false
	}
	if u.Role == RoleSuperAdmin {
		return true
	}
	return u.TenantID != nil && *u.TenantID == tenantID
}
