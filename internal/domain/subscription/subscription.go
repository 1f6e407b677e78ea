package subscription

import (
	"fmt"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// Status is the lifecycle status of a package subscription
type Status string

const (
	StatusTrial    Status = "TRIAL"
	StatusActive   Status = "ACTIVE"
	StatusExpired  Status = "EXPIRED"
	StatusCanceled Status = "CANCELED"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusExpired, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal returns true for EXPIRED and CANCELED
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusCanceled
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// PackageSubscription binds a tenant to a package for [StartsAt, EndsAt].
// Invariants: EndsAt > StartsAt; TrialEndsAt, if set, <= EndsAt.
type PackageSubscription struct {
	shared.TenantAggregateRoot
	PackageID    uuid.UUID
	Tier         catalog.Tier
	Seats        int
	AutoRenew    bool
	Status       Status
	StartsAt     time.Time
	EndsAt       time.Time
	TrialEndsAt  *time.Time
	CanceledAt   *time.Time
	ExpiredAt    *time.Time
	RenewedAt    *time.Time
	RenewalCount int
	ReplacedBy   *uuid.UUID
	EndReason    string
}

// Start creates a subscription beginning at now. With trialDays > 0 it starts in TRIAL.
func Start(tenantID uuid.UUID, pkg *catalog.Package, seats, trialDays int, autoRenew bool, now time.Time) (*PackageSubscription, error) {
	if pkg == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Package is required")
	}
	if err := shared.AssertSameTenant(shared.TenantRef(tenantID), pkg); err != nil {
		return nil, err
	}
	if seats < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Seats must be at least 1")
	}
	if trialDays < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Trial days cannot be negative")
	}
	if pkg.DurationDays <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Package duration must be positive")
	}

	s := &PackageSubscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PackageID:           pkg.ID,
		Tier:                pkg.Tier,
		Seats:               seats,
		AutoRenew:           autoRenew,
		Status:              StatusActive,
		StartsAt:            now,
		EndsAt:              now.AddDate(0, 0, pkg.DurationDays),
	}
	if trialDays > 0 {
		trialEnds := now.AddDate(0, 0, trialDays)
		if trialEnds.After(s.EndsAt) {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Trial of %d days exceeds package duration of %d days", trialDays, pkg.DurationDays))
		}
		s.TrialEndsAt = &trialEnds
		s.Status = StatusTrial
	}
	s.AddDomainEvent(NewSubscriptionEvent(EventTypeSubscriptionStarted, s, ""))
	return s, nil
}

// EvaluateExpiry computes the status at now without mutating anything.
// now == EndsAt is still within the period.
func (s *PackageSubscription) EvaluateExpiry(now time.Time) Status {
	if s.Status.IsTerminal() {
		return s.Status
	}
	if now.After(s.EndsAt) {
		return StatusExpired
	}
	if s.Status == StatusTrial && s.TrialEndsAt != nil && now.After(*s.TrialEndsAt) {
		return StatusActive
	}
	return s.Status
}

// ApplyExpiry moves the subscription to the status EvaluateExpiry computes.
// An auto-renewing subscription past EndsAt is left for Renew or
// RenewalFailed to settle; only a lapsed trial is activated.
func (s *PackageSubscription) ApplyExpiry(now time.Time) bool {
	next := s.EvaluateExpiry(now)
	if next == StatusExpired && s.AutoRenew {
		next = s.Status
		if s.Status == StatusTrial {
			next = StatusActive
		}
	}
	if next == s.Status {
		return false
	}
	s.Status = next
	switch next {
	case StatusExpired:
		s.ExpiredAt = &now
		s.EndReason = "period ended"
		s.AddDomainEvent(NewSubscriptionEvent(EventTypeSubscriptionExpired, s, s.EndReason))
	case StatusActive:
		s.AddDomainEvent(NewSubscriptionEvent(EventTypeSubscriptionActivated, s, "trial ended"))
	}
	s.changed()
	return true
}

// CheckRenewable reports why the subscription cannot be renewed at now, if anything
func (s *PackageSubscription) CheckRenewable(now time.Time) error {
	if s.Status.IsTerminal() {
		return shared.ErrInvalidStateTransition.WithCause(fmt.Errorf("cannot renew %s subscription", s.Status)).WithState(*s)
	}
	if !s.AutoRenew {
		return shared.ErrInvalidStateTransition.WithCause(fmt.Errorf("auto-renew is disabled")).WithState(*s)
	}
	if now.Before(s.EndsAt) {
		return shared.ErrInvalidStateTransition.WithCause(fmt.Errorf("period ends at %s", s.EndsAt.Format(time.RFC3339))).WithState(*s)
	}
	return nil
}

// Renew extends EndsAt by durationDays once; the subscription is ACTIVE afterwards
func (s *PackageSubscription) Renew(durationDays int, now time.Time) error {
	if err := s.CheckRenewable(now); err != nil {
		return err
	}
	if durationDays <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Package duration must be positive")
	}
	s.EndsAt = s.EndsAt.AddDate(0, 0, durationDays)
	s.Status = StatusActive
	s.RenewedAt = &now
	s.RenewalCount++
	s.changed()
	s.AddDomainEvent(NewSubscriptionEvent(EventTypeSubscriptionRenewed, s, ""))
	return nil
}

// RenewalFailed expires the subscription after a declined renewal charge
func (s *PackageSubscription) RenewalFailed(reason string, now time.Time) error {
	if s.Status.IsTerminal() {
		return shared.ErrInvalidStateTransition.WithState(*s)
	}
	s.Status = StatusExpired
	s.ExpiredAt = &now
	s.EndReason = "renewal failed: " + reason
	s.changed()
	s.AddDomainEvent(NewSubscriptionEvent(EventTypeSubscriptionExpired, s, s.EndReason))
	return nil
}

// Cancel ends the subscription; EndsAt is kept for reporting
func (s *PackageSubscription) Cancel(reason string, now time.Time) error {
	if s.Status.IsTerminal() {
		return shared.ErrInvalidStateTransition.WithCause(fmt.Errorf("subscription is already %s", s.Status)).WithState(*s)
	}
	s.Status = StatusCanceled
	s.CanceledAt = &now
	s.EndReason = reason
	s.changed()
	s.AddDomainEvent(NewSubscriptionEvent(EventTypeSubscriptionCanceled, s, reason))
	return nil
}

// ReplaceWith cancels the subscription in favour of next
func (s *PackageSubscription) ReplaceWith(next *PackageSubscription, now time.Time) error {
	if err := shared.AssertSameTenant(s, next); err != nil {
		return err
	}
	if err := s.Cancel(fmt.Sprintf("replaced by %s", next.ID), now); err != nil {
		return err
	}
	id := next.ID
	s.ReplacedBy = &id
	return nil
}

// SetAutoRenew toggles automatic renewal
func (s *PackageSubscription) SetAutoRenew(on bool) error {
	if s.Status.IsTerminal() {
		return shared.ErrInvalidStateTransition.WithState(*s)
	}
	s.AutoRenew = on
	s.changed()
	return nil
}

// HasCapability reports whether the subscription currently grants c
func (s *PackageSubscription) HasCapability(c catalog.Capability, now time.Time) bool {
	if s.EvaluateExpiry(now).IsTerminal() {
		return false
	}
	return catalog.HasCapability(s.Tier, c)
}

// CheckInvariants verifies the period invariants
func (s *PackageSubscription) CheckInvariants() error {
	if !s.EndsAt.After(s.StartsAt) {
		return fmt.Errorf("endsAt %s must be after startsAt %s", s.EndsAt, s.StartsAt)
	}
	if s.TrialEndsAt != nil && s.TrialEndsAt.After(s.EndsAt) {
		return fmt.Errorf("trialEndsAt %s must not be after endsAt %s", *s.TrialEndsAt, s.EndsAt)
	}
	return nil
}

func (s *PackageSubscription) changed() {
	s.Touch()
	s.IncrementVersion()
}
