package subscription

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/crewkit/pkg/tariff"
)

// Subscription represents a tenant's billing entitlement.
// Each tenant owner has exactly one subscription, created at registration.
//
// Subscriptions are values: the engine never mutates one in place, it returns
// a new record per transition. The caller persists the result under a
// per-subscription serialization point (keyed mutex, row lock, or similar) —
// the engine computes the next state from a snapshot and does not itself guard
// against two writers racing on the same id.
type Subscription struct {
	ID     uuid.UUID
	UserID uuid.UUID // owning tenant/user reference
	Status Status

	PlanTier     tariff.Tier     // empty until a tier is chosen
	PlanInterval tariff.Interval // empty until a tier is chosen

	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialEndsAt        time.Time // set once at creation, never recomputed

	BlockedAt     *time.Time // set only while blocked
	BlockedReason string     // set only while blocked

	// PreviousStatus holds the status the record had immediately before
	// entering pending_payment or blocked; empty in every other status.
	PreviousStatus Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAccessAllowed reports whether the tenant may use the product.
// Access stays open while a payment is pending so a checkout in flight does
// not lock the tenant out.
func (s Subscription) IsAccessAllowed() bool {
	switch s.Status {
	case StatusTrial, StatusActive, StatusExpiring, StatusPendingPayment:
		return true
	}
	return false
}

// ShouldShowWarning reports whether the expiring banner should be shown.
func (s Subscription) ShouldShowWarning() bool {
	return s.Status == StatusExpiring
}

// RemainingDaysAt returns the number of whole days between now and the end of
// the current entitlement window, rounded up. Negative once the period has
// elapsed. This variant exists for testing with fixed time values.
func (s Subscription) RemainingDaysAt(now time.Time) int {
	return int(math.Ceil(s.CurrentPeriodEnd.Sub(now).Hours() / 24))
}

// RemainingDays returns the remaining entitlement days as of now.
func (s Subscription) RemainingDays() int {
	return s.RemainingDaysAt(time.Now().UTC())
}
