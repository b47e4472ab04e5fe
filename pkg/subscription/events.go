package subscription

import "github.com/dmitrymomot/crewkit/pkg/tariff"

// Event is the closed set of inputs the lifecycle engine accepts. Each
// variant carries only the fields it needs, so the transition switch is
// exhaustive over the event set.
type Event interface {
	Name() string
	isEvent()
}

// PaymentInitiated records the tenant's intent to pay for a plan. The
// subscription parks in pending_payment until settlement.
type PaymentInitiated struct {
	Tier     tariff.Tier
	Interval tariff.Interval
}

// PaymentSucceeded settles a payment and activates the chosen plan.
type PaymentSucceeded struct {
	Tier     tariff.Tier
	Interval tariff.Interval
}

// PaymentFailed reports a failed settlement; the subscription returns to the
// status it held before the payment was initiated.
type PaymentFailed struct{}

// AdminBlock forcibly suspends a subscription.
type AdminBlock struct {
	Reason string
}

// AdminUnblock lifts an administrative block.
type AdminUnblock struct{}

func (PaymentInitiated) Name() string { return "payment_initiated" }
func (PaymentSucceeded) Name() string { return "payment_succeeded" }
func (PaymentFailed) Name() string    { return "payment_failed" }
func (AdminBlock) Name() string       { return "admin_block" }
func (AdminUnblock) Name() string     { return "admin_unblock" }

func (PaymentInitiated) isEvent() {}
func (PaymentSucceeded) isEvent() {}
func (PaymentFailed) isEvent()    {}
func (AdminBlock) isEvent()       {}
func (AdminUnblock) isEvent()     {}
