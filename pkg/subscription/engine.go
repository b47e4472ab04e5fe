package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/crewkit/pkg/tariff"
)

// Engine computes subscription state transitions. It holds no mutable state:
// both Transition and CheckAndTransition are pure functions of their inputs
// plus the immutable tariff catalog, so an Engine is safe to share across any
// number of request handlers without locking.
type Engine struct {
	catalog *tariff.Catalog
}

// NewEngine creates a lifecycle engine over the given tariff catalog.
// Panics if catalog is nil to fail fast during initialization.
func NewEngine(catalog *tariff.Catalog) *Engine {
	if catalog == nil {
		panic("subscription: tariff catalog is required")
	}
	return &Engine{catalog: catalog}
}

// NewTrial creates the subscription record for a freshly registered tenant.
// The trial entitlement window is TrialDays long; TrialEndsAt is fixed here
// and never recomputed afterwards.
func (e *Engine) NewTrial(userID uuid.UUID, now time.Time) Subscription {
	now = now.UTC()
	trialEnd := now.AddDate(0, 0, e.catalog.TrialDays())
	return Subscription{
		ID:                 uuid.New(),
		UserID:             userID,
		Status:             StatusTrial,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialEndsAt:        trialEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Transition applies a lifecycle event to a subscription snapshot and returns
// the next record. The input is never mutated. A rejected event returns the
// zero Subscription and an *ErrTransitionRejected; callers must branch on it
// rather than treat it as a crash.
func (e *Engine) Transition(sub Subscription, event Event, now time.Time) (Subscription, error) {
	now = now.UTC()

	switch ev := event.(type) {
	case PaymentInitiated:
		if sub.Status == StatusPendingPayment {
			return Subscription{}, NewErrTransitionRejected(sub.Status, event)
		}
		if err := e.validatePlan(ev.Tier, ev.Interval); err != nil {
			return Subscription{}, err
		}
		next := sub
		next.PreviousStatus = sub.Status
		next.Status = StatusPendingPayment
		next.UpdatedAt = now
		return next, nil

	case PaymentSucceeded:
		// Success straight from active is rejected: an active subscription
		// must re-enter through PaymentInitiated. Success straight from trial
		// is allowed. The asymmetry is kept deliberately as released
		// behavior; see the package documentation.
		if sub.Status == StatusActive {
			return Subscription{}, NewErrTransitionRejected(sub.Status, event)
		}
		if err := e.validatePlan(ev.Tier, ev.Interval); err != nil {
			return Subscription{}, err
		}

		periodDays := tariff.PeriodDays(ev.Interval)
		next := sub
		// A renewal from trial or expiring with unelapsed days extends the
		// existing window instead of resetting it, so already-granted days
		// are never discarded. Every other origin starts a fresh period.
		if (sub.Status == StatusTrial || sub.Status == StatusExpiring) && now.Before(sub.CurrentPeriodEnd) {
			next.CurrentPeriodStart = now
			next.CurrentPeriodEnd = sub.CurrentPeriodEnd.AddDate(0, 0, periodDays)
		} else {
			next.CurrentPeriodStart = now
			next.CurrentPeriodEnd = now.AddDate(0, 0, periodDays)
		}
		next.Status = StatusActive
		next.PlanTier = ev.Tier
		next.PlanInterval = ev.Interval
		next.BlockedAt = nil
		next.BlockedReason = ""
		next.PreviousStatus = ""
		next.UpdatedAt = now
		return next, nil

	case PaymentFailed:
		if sub.Status != StatusPendingPayment {
			return Subscription{}, NewErrTransitionRejected(sub.Status, event)
		}
		restored := sub.PreviousStatus
		if restored == "" {
			restored = StatusExpired
		}
		next := sub
		next.Status = restored
		next.PreviousStatus = ""
		next.UpdatedAt = now
		return next, nil

	case AdminBlock:
		// Always allowed, from any status including blocked.
		next := sub
		next.PreviousStatus = sub.Status
		next.Status = StatusBlocked
		next.BlockedAt = &now
		next.BlockedReason = ev.Reason
		next.UpdatedAt = now
		return next, nil

	case AdminUnblock:
		if sub.Status != StatusBlocked {
			return Subscription{}, NewErrTransitionRejected(sub.Status, event)
		}
		restored := sub.PreviousStatus
		if restored == "" {
			restored = StatusExpired
		}
		next := sub
		next.Status = restored
		next.PreviousStatus = ""
		next.BlockedAt = nil
		next.BlockedReason = ""
		next.UpdatedAt = now
		// The pre-block status may be stale by now, so the restored record is
		// re-evaluated against the clock before it is returned.
		return e.CheckAndTransition(next, now), nil

	default:
		return Subscription{}, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
}

// CheckAndTransition applies the time-based expiry rules to a snapshot and
// returns the (possibly unchanged) record. It is idempotent: applying it
// twice with the same clock yields the same result as applying it once.
// Blocked and pending_payment subscriptions are never auto-transitioned.
//
// Every read path calls this before trusting Status, which replaces a
// scheduled background sweep.
func (e *Engine) CheckAndTransition(sub Subscription, now time.Time) Subscription {
	now = now.UTC()
	remaining := sub.RemainingDaysAt(now)

	next := sub
	switch sub.Status {
	case StatusTrial, StatusActive:
		if remaining <= 0 {
			next.Status = StatusExpired
		} else if remaining <= e.catalog.ExpiringThresholdDays() {
			next.Status = StatusExpiring
		}
	case StatusExpiring:
		if remaining <= 0 {
			next.Status = StatusExpired
		}
	}

	if next.Status != sub.Status {
		next.UpdatedAt = now
	}
	return next
}

func (e *Engine) validatePlan(tier tariff.Tier, interval tariff.Interval) error {
	if _, err := e.catalog.Plan(tier); err != nil {
		return err
	}
	if !interval.Valid() {
		return fmt.Errorf("%w: %s", tariff.ErrInvalidInterval, interval)
	}
	return nil
}
