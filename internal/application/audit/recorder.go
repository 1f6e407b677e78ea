// Package audit turns domain events into audit log entries.
//
// In best-effort mode entries are written after the primary transaction
// commits and a failure is only logged and counted. In strict mode they are
// written through the transaction's repository, so a failure aborts the
// operation.
package audit

import (
	"context"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder appends audit entries for aggregate domain events
type Recorder struct {
	repo    audit.Repository
	strict  bool
	metrics *telemetry.BillingMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecorder creates a recorder. repo is used for best-effort writes
// outside any transaction.
func NewRecorder(repo audit.Repository, strict bool, metrics *telemetry.BillingMetrics, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		repo:    repo,
		strict:  strict,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Strict reports whether entries are written inside the primary transaction
func (r *Recorder) Strict() bool {
	return r.strict
}

// InTx writes the entries through txRepo in strict mode and does nothing otherwise
func (r *Recorder) InTx(ctx context.Context, txRepo audit.Repository, events []shared.DomainEvent) error {
	if !r.strict || len(events) == 0 {
		return nil
	}
	entries, err := r.Entries(ctx, events)
	if err != nil {
		return err
	}
	return txRepo.Append(ctx, entries...)
}

// AfterCommit writes the entries in best-effort mode. It never fails; errors
// are logged and counted per tenant and action.
func (r *Recorder) AfterCommit(ctx context.Context, events []shared.DomainEvent) {
	if r.strict || len(events) == 0 {
		return
	}
	entries, err := r.Entries(ctx, events)
	if err == nil {
		err = r.repo.Append(ctx, entries...)
	}
	if err == nil {
		return
	}
	for _, e := range events {
		r.metrics.AuditWriteFailed(ctx, e.TenantID(), e.EventType())
	}
	logger.L(ctx).Error("Failed to write audit entries",
		zap.Int("count", len(events)),
		zap.String("first_action", events[0].EventType()),
		zap.String("entity_id", events[0].AggregateID().String()),
		zap.Error(err),
	)
}

// Record writes a single entry that is not derived from an aggregate event,
// e.g. a duplicate webhook delivery. It is always best-effort.
func (r *Recorder) Record(ctx context.Context, tenantID uuid.UUID, action, entityType string, entityID uuid.UUID, meta any) {
	entry, err := r.newEntry(ctx, tenantID, action, meta)
	if err == nil {
		entry.ForEntity(entityType, entityID)
		err = r.repo.Append(ctx, entry)
	}
	if err != nil {
		r.metrics.AuditWriteFailed(ctx, tenantID, action)
		logger.L(ctx).Error("Failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}

// Entries maps events to log entries, taking actor and client IP from ctx
func (r *Recorder) Entries(ctx context.Context, events []shared.DomainEvent) ([]*audit.Log, error) {
	out := make([]*audit.Log, 0, len(events))
	for _, e := range events {
		entry, err := r.newEntry(ctx, e.TenantID(), e.EventType(), e)
		if err != nil {
			return nil, err
		}
		entry.ForEntity(e.AggregateType(), e.AggregateID())
		entry.CreatedAt = e.OccurredAt()
		out = append(out, entry)
	}
	return out, nil
}

func (r *Recorder) newEntry(ctx context.Context, tenantID uuid.UUID, action string, meta any) (*audit.Log, error) {
	var tenant *uuid.UUID
	if tenantID != uuid.Nil {
		tenant = &tenantID
	}
	var user *uuid.UUID
	actor := audit.SystemActor
	if id, ok := logger.GetUserID(ctx); ok {
		user = &id
		actor = id.String()
	}
	return audit.NewLog(tenant, user, actor, action, meta, logger.GetClientIP(ctx), r.now())
}
