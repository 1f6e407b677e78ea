package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// ListFilter is the query accepted by List
type ListFilter struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	EntityID *uuid.UUID `form:"entity_id"`
	Action   string     `form:"action" binding:"omitempty,max=100"`
	Since    *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
}

// LogResponse is an audit entry in API responses
type LogResponse struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty"`
	UserID     *uuid.UUID      `json:"user_id,omitempty"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   *uuid.UUID      `json:"entity_id,omitempty"`
	Meta       json.RawMessage `json:"meta"`
	IPAddress  string          `json:"ip_address,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// QueryService reads the audit trail of a tenant
type QueryService struct {
	repo audit.Repository
}

func NewQueryService(repo audit.Repository) *QueryService {
	return &QueryService{repo: repo}
}

// List returns the tenant's entries, newest first unless OrderDir is asc
func (s *QueryService) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[LogResponse], error) {
	filter := audit.Filter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  "created_at",
			OrderDir: f.OrderDir,
		},
		EntityID: f.EntityID,
		Action:   f.Action,
		Since:    f.Since,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	logs, total, err := s.repo.FindByTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[LogResponse]{}, err
	}
	items := make([]LogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, ToLogResponse(&logs[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// ToLogResponse converts a domain entry
func ToLogResponse(l *audit.Log) LogResponse {
	return LogResponse{
		ID:         l.ID,
		TenantID:   l.TenantID,
		UserID:     l.UserID,
		Actor:      l.Actor,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Meta:       l.Meta,
		IPAddress:  l.IPAddress,
		CreatedAt:  l.CreatedAt,
	}
}
