// Package syncstate tracks per-record synchronization status for offline-first clients.
//
// A record is PENDING after a local mutation, SYNCED once the authoritative
// store confirms a round-trip, and FAILED when the store rejects it. A failure
// is reconciled against the authoritative version: if the store has moved past
// the version the local change was based on, the result is a conflict that the
// client must resolve. Retry scheduling belongs to an external job.
package syncstate

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// Status is the synchronization status of a record
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSynced  Status = "SYNCED"
	StatusFailed  Status = "FAILED"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSynced, StatusFailed:
		return true
	}
	return false
}

// Outcome is the result of reconciling a failed sync
type Outcome string

const (
	// OutcomeRetry means the local change is still based on the latest
	// authoritative version and may be pushed again.
	OutcomeRetry Outcome = "RETRY"
	// OutcomeConflict means the authoritative value was superseded after the
	// local change was made; it must not be overwritten.
	OutcomeConflict Outcome = "CONFLICT"
)

// ErrStaleServerVersion is returned when a confirmation carries an older version than already recorded
var ErrStaleServerVersion = shared.NewDomainError("STALE_SERVER_VERSION", "Server version is older than the recorded one")

// State is embedded by every tenant-scoped mutable entity
type State struct {
	Status        Status
	LocalVersion  int64
	ServerVersion int64
	// ConflictVersion is the authoritative version seen when a conflict was detected
	ConflictVersion int64
	FailureReason   string
	FailedAt        *time.Time
	SyncedAt        *time.Time
}

// NewState returns the state of a freshly created local record
func NewState() State {
	return State{Status: StatusPending, LocalVersion: 1}
}

// Reconciliation describes what markFailed decided
type Reconciliation struct {
	Outcome              Outcome `json:"outcome"`
	LocalVersion         int64   `json:"local_version"`
	BaseVersion          int64   `json:"base_version"`
	AuthoritativeVersion int64   `json:"authoritative_version"`
}

// MarkPending records a local mutation
func (s *State) MarkPending() {
	s.Status = StatusPending
	s.LocalVersion++
	s.FailureReason = ""
	s.FailedAt = nil
	s.ConflictVersion = 0
}

// MarkSynced records a confirmed round-trip at serverVersion
func (s *State) MarkSynced(serverVersion int64, now time.Time) error {
	if serverVersion < s.ServerVersion {
		return ErrStaleServerVersion.WithState(*s)
	}
	s.Status = StatusSynced
	s.ServerVersion = serverVersion
	s.FailureReason = ""
	s.FailedAt = nil
	s.ConflictVersion = 0
	s.SyncedAt = &now
	return nil
}

// MarkFailed records a rejection and reconciles it against the authoritative
// version. The local change is based on ServerVersion; anything newer on the
// server means the change was superseded.
func (s *State) MarkFailed(reason string, authoritativeVersion int64, now time.Time) Reconciliation {
	s.Status = StatusFailed
	s.FailureReason = reason
	s.FailedAt = &now

	rec := Reconciliation{
		Outcome:              OutcomeRetry,
		LocalVersion:         s.LocalVersion,
		BaseVersion:          s.ServerVersion,
		AuthoritativeVersion: authoritativeVersion,
	}
	if authoritativeVersion > s.ServerVersion {
		rec.Outcome = OutcomeConflict
		s.ConflictVersion = authoritativeVersion
	} else {
		s.ConflictVersion = 0
	}
	return rec
}

// HasConflict reports whether the last failure was a conflict
func (s *State) HasConflict() bool {
	return s.Status == StatusFailed && s.ConflictVersion > 0
}

// Rebase resolves a conflict by keeping the local change on top of the
// authoritative version; the record becomes PENDING again.
func (s *State) Rebase() error {
	if !s.HasConflict() {
		return shared.ErrInvalidStateTransition.WithState(*s)
	}
	s.ServerVersion = s.ConflictVersion
	s.MarkPending()
	return nil
}

// Syncable is implemented by entities carrying a sync State
type Syncable interface {
	shared.TenantScoped
	GetID() uuid.UUID
	SyncState() *State
}
