package reconcile

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
)

// Kind names a family of synchronized records
type Kind string

const (
	KindItems     Kind = "items"
	KindCustomers Kind = "customers"
	KindVendors   Kind = "vendors"
	KindPackages  Kind = "packages"
	KindInvoices  Kind = "invoices"
)

// Kinds lists every synchronized kind
var Kinds = []Kind{KindItems, KindCustomers, KindVendors, KindPackages, KindInvoices}

// AckRequest confirms a round-trip at ServerVersion
type AckRequest struct {
	ServerVersion int64 `json:"server_version" binding:"min=0"`
}

// FailRequest reports a rejected push
type FailRequest struct {
	Reason               string `json:"reason" binding:"required,max=500"`
	AuthoritativeVersion int64  `json:"authoritative_version" binding:"min=0"`
}

// FailedFilter is the query of the failed listing
type FailedFilter struct {
	Kind     Kind `form:"kind" binding:"omitempty,oneof=items customers vendors packages invoices"`
	Page     int  `form:"page" binding:"omitempty,min=1"`
	PageSize int  `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Record is the sync view of one record
type Record struct {
	Kind            Kind             `json:"kind"`
	ID              uuid.UUID        `json:"id"`
	Status          syncstate.Status `json:"status"`
	LocalVersion    int64            `json:"local_version"`
	ServerVersion   int64            `json:"server_version"`
	ConflictVersion int64            `json:"conflict_version,omitempty"`
	FailureReason   string           `json:"failure_reason,omitempty"`
	FailedAt        *time.Time       `json:"failed_at,omitempty"`
	SyncedAt        *time.Time       `json:"synced_at,omitempty"`
}

// FailResult is the record after a failure plus the reconciliation outcome
type FailResult struct {
	Record         Record                   `json:"record"`
	Reconciliation syncstate.Reconciliation `json:"reconciliation"`
}

func toRecord(kind Kind, r syncstate.Syncable) Record {
	s := r.SyncState()
	return Record{
		Kind:            kind,
		ID:              r.GetID(),
		Status:          s.Status,
		LocalVersion:    s.LocalVersion,
		ServerVersion:   s.ServerVersion,
		ConflictVersion: s.ConflictVersion,
		FailureReason:   s.FailureReason,
		FailedAt:        s.FailedAt,
		SyncedAt:        s.SyncedAt,
	}
}
