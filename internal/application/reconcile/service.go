// Package reconcile tracks the sync round-trips of offline clients. It
// records acknowledgements and rejections and lists failed records for the
// external retry job; it never schedules retries itself.
package reconcile

import (
	"context"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownKind is returned for a kind outside Kinds
var ErrUnknownKind = shared.NewDomainError(shared.CodeInvalidInput, "Unknown sync record kind")

// store loads, saves and lists the records of one kind
type store struct {
	load   func(ctx context.Context, repos tx.Repositories, tenantID, id uuid.UUID) (syncstate.Syncable, error)
	save   func(ctx context.Context, repos tx.Repositories, r syncstate.Syncable) error
	failed func(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, f shared.Filter) ([]syncstate.Syncable, error)
}

var stores = map[Kind]store{
	KindItems: {
		load: func(ctx context.Context, repos tx.Repositories, tenantID, id uuid.UUID) (syncstate.Syncable, error) {
			return found[*catalog.Item](repos.Items().FindByID(ctx, tenantID, id))
		},
		save: func(ctx context.Context, repos tx.Repositories, r syncstate.Syncable) error {
			return repos.Items().Save(ctx, r.(*catalog.Item))
		},
		failed: func(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, f shared.Filter) ([]syncstate.Syncable, error) {
			rows, err := repos.Items().FindBySyncStatus(ctx, tenantID, syncstate.StatusFailed, f)
			return syncables(rows, err)
		},
	},
	KindCustomers: {
		load: func(ctx context.Context, repos tx.Repositories, tenantID, id uuid.UUID) (syncstate.Syncable, error) {
			return found[*catalog.Customer](repos.Customers().FindByID(ctx, tenantID, id))
		},
		save: func(ctx context.Context, repos tx.Repositories, r syncstate.Syncable) error {
			return repos.Customers().Save(ctx, r.(*catalog.Customer))
		},
		failed: func(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, f shared.Filter) ([]syncstate.Syncable, error) {
			rows, err := repos.Customers().FindBySyncStatus(ctx, tenantID, syncstate.StatusFailed, f)
			return syncables(rows, err)
		},
	},
	KindVendors: {
		load: func(ctx context.Context, repos tx.Repositories, tenantID, id uuid.UUID) (syncstate.Syncable, error) {
			return found[*catalog.Vendor](repos.Vendors().FindByID(ctx, tenantID, id))
		},
		save: func(ctx context.Context, repos tx.Repositories, r syncstate.Syncable) error {
			return repos.Vendors().Save(ctx, r.(*catalog.Vendor))
		},
		failed: func(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, f shared.Filter) ([]syncstate.Syncable, error) {
			rows, err := repos.Vendors().FindBySyncStatus(ctx, tenantID, syncstate.StatusFailed, f)
			return syncables(rows, err)
		},
	},
	KindPackages: {
		load: func(ctx context.Context, repos tx.Repositories, tenantID, id uuid.UUID) (syncstate.Syncable, error) {
			return found[*catalog.Package](repos.Packages().FindByID(ctx, tenantID, id))
		},
		save: func(ctx context.Context, repos tx.Repositories, r syncstate.Syncable) error {
			return repos.Packages().Save(ctx, r.(*catalog.Package))
		},
		failed: func(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, f shared.Filter) ([]syncstate.Syncable, error) {
			rows, err := repos.Packages().FindBySyncStatus(ctx, tenantID, syncstate.StatusFailed, f)
			return syncables(rows, err)
		},
	},
	KindInvoices: {
		load: func(ctx context.Context, repos tx.Repositories, tenantID, id uuid.UUID) (syncstate.Syncable, error) {
			return found[*ledger.Invoice](repos.Invoices().FindByID(ctx, tenantID, id))
		},
		save: func(ctx context.Context, repos tx.Repositories, r syncstate.Syncable) error {
			return repos.Invoices().SaveWithLock(ctx, r.(*ledger.Invoice))
		},
		failed: func(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, f shared.Filter) ([]syncstate.Syncable, error) {
			rows, err := repos.Invoices().FindBySyncStatus(ctx, tenantID, syncstate.StatusFailed, f)
			return syncables(rows, err)
		},
	},
}

// found keeps a typed nil out of the interface on error
func found[T syncstate.Syncable](r T, err error) (syncstate.Syncable, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// syncables converts a slice of records to their Syncable pointers
func syncables[T any, P interface {
	*T
	syncstate.Syncable
}](rows []T, err error) ([]syncstate.Syncable, error) {
	if err != nil {
		return nil, err
	}
	out := make([]syncstate.Syncable, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out, nil
}

// Service handles sync acknowledgements and failures
type Service struct {
	scope      tx.Scope
	repos      tx.Repositories
	locker     tx.Locker
	metrics    *telemetry.BillingMetrics
	maxRetries int
	now        func() time.Time
}

// NewService creates a new reconcile Service
func NewService(scope tx.Scope, repos tx.Repositories, locker tx.Locker, metrics *telemetry.BillingMetrics, maxConflictRetries int) *Service {
	if maxConflictRetries < 0 {
		maxConflictRetries = 0
	}
	return &Service{
		scope:      scope,
		repos:      repos,
		locker:     locker,
		metrics:    metrics,
		maxRetries: maxConflictRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Ack marks the record SYNCED at the server version the client reports
func (s *Service) Ack(ctx context.Context, tenantID uuid.UUID, kind Kind, id uuid.UUID, req AckRequest) (*Record, error) {
	var rec Record
	err := s.update(ctx, tenantID, kind, id, func(r syncstate.Syncable) error {
		if err := r.SyncState().MarkSynced(req.ServerVersion, s.now()); err != nil {
			return err
		}
		rec = toRecord(kind, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Fail marks the record FAILED and reconciles it against the authoritative
// version. A CONFLICT outcome leaves the local change in place for the
// client to resolve.
func (s *Service) Fail(ctx context.Context, tenantID uuid.UUID, kind Kind, id uuid.UUID, req FailRequest) (*FailResult, error) {
	var res FailResult
	err := s.update(ctx, tenantID, kind, id, func(r syncstate.Syncable) error {
		res.Reconciliation = r.SyncState().MarkFailed(req.Reason, req.AuthoritativeVersion, s.now())
		res.Record = toRecord(kind, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SyncFailed(ctx, string(kind), string(res.Reconciliation.Outcome))
	log := logger.L(ctx).With(zap.String("kind", string(kind)), zap.String("record_id", id.String()))
	if res.Reconciliation.Outcome == syncstate.OutcomeConflict {
		log.Warn("Sync conflict detected",
			zap.Int64("base_version", res.Reconciliation.BaseVersion),
			zap.Int64("authoritative_version", res.Reconciliation.AuthoritativeVersion))
	} else {
		log.Info("Sync failure recorded", zap.String("reason", req.Reason))
	}
	return &res, nil
}

// Rebase resolves a conflict by keeping the local change on top of the
// authoritative version; the record is PENDING again.
func (s *Service) Rebase(ctx context.Context, tenantID uuid.UUID, kind Kind, id uuid.UUID) (*Record, error) {
	var rec Record
	err := s.update(ctx, tenantID, kind, id, func(r syncstate.Syncable) error {
		if err := r.SyncState().Rebase(); err != nil {
			return err
		}
		rec = toRecord(kind, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// failedBatch is the read size when walking every kind.
const failedBatch = 100

// ListFailed lists one page of FAILED records. With f.Kind set the page is
// cut from that kind alone; otherwise the kinds are concatenated in Kinds
// order and the page is cut from that sequence.
func (s *Service) ListFailed(ctx context.Context, tenantID uuid.UUID, f FailedFilter) ([]Record, error) {
	page := shared.Filter{Page: f.Page, PageSize: f.PageSize}
	if f.Kind != "" {
		st, ok := stores[f.Kind]
		if !ok {
			return nil, ErrUnknownKind
		}
		rows, err := st.failed(ctx, s.repos, tenantID, page)
		if err != nil {
			return nil, err
		}
		out := make([]Record, 0, len(rows))
		for _, r := range rows {
			out = append(out, toRecord(f.Kind, r))
		}
		return out, nil
	}

	skip, want := page.Offset(), page.Limit()
	out := make([]Record, 0, want)
	for _, kind := range Kinds {
		for batch := 1; len(out) < want; batch++ {
			rows, err := stores[kind].failed(ctx, s.repos, tenantID, shared.Filter{Page: batch, PageSize: failedBatch})
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				if skip > 0 {
					skip--
					continue
				}
				if len(out) < want {
					out = append(out, toRecord(kind, r))
				}
			}
			if len(rows) < failedBatch {
				break
			}
		}
		if len(out) == want {
			break
		}
	}
	return out, nil
}

// update loads one record, applies fn and saves it under the optimistic
// lock. Invoices also take the invoice lock key the ledger uses.
func (s *Service) update(ctx context.Context, tenantID uuid.UUID, kind Kind, id uuid.UUID, fn func(r syncstate.Syncable) error) error {
	st, ok := stores[kind]
	if !ok {
		return ErrUnknownKind
	}
	if kind == KindInvoices {
		unlock, err := s.locker.Lock(ctx, tx.InvoiceKey(tenantID.String(), id.String()))
		if err != nil {
			return err
		}
		defer unlock()
	}

	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.scope.Execute(ctx, func(repos tx.Repositories) error {
			r, err := st.load(ctx, repos, tenantID, id)
			if err != nil {
				return err
			}
			if err := shared.AssertSameTenant(shared.TenantRef(tenantID), r); err != nil {
				return err
			}
			if err := fn(r); err != nil {
				return err
			}
			return st.save(ctx, repos, r)
		})
		if err == nil || !shared.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < s.maxRetries {
			s.metrics.ConflictRetried(ctx, "sync_"+string(kind))
		}
	}
	return err
}
