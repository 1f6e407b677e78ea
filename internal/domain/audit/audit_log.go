// Package audit holds the append-only audit trail. Entries reference tenants
// and users by denormalized IDs only, so they survive deletion of either.
package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// SystemActor is the actor recorded for background jobs
const SystemActor = "system"

// Log is one immutable audit entry
type Log struct {
	ID         uuid.UUID
	TenantID   *uuid.UUID
	UserID     *uuid.UUID
	Actor      string
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Meta       json.RawMessage
	IPAddress  string
	CreatedAt  time.Time
}

// NewLog builds an entry. meta is marshalled to JSON; nil becomes {}.
func NewLog(tenantID, userID *uuid.UUID, actor, action string, meta any, ip string, at time.Time) (*Log, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Audit action is required")
	}
	if actor == "" {
		actor = SystemActor
	}
	raw := json.RawMessage("{}")
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Audit meta is not serializable")
		}
		raw = b
	}
	return &Log{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Actor:     actor,
		Action:    action,
		Meta:      raw,
		IPAddress: ip,
		CreatedAt: at,
	}, nil
}

// ForEntity sets the entity the entry is about
func (l *Log) ForEntity(entityType string, id uuid.UUID) *Log {
	l.EntityType = entityType
	l.EntityID = &id
	return l
}

// Filter narrows audit listings
type Filter struct {
	shared.Filter
	EntityID *uuid.UUID
	Action   string
	Since    *time.Time
}

// Repository is append-only: there is no update or delete
type Repository interface {
	Append(ctx context.Context, entries ...*Log) error
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Log, int64, error)
}
