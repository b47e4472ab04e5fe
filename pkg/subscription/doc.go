// Package subscription implements the subscription lifecycle engine: a pure
// state machine that decides whether a tenant may use the product and how its
// billing entitlement window moves through trial, paid, and blocked states.
//
// # States
//
// A subscription is always in exactly one of six states:
//
//   - trial: the free entitlement window granted at registration
//   - active: a paid plan with more than the warning threshold of days left
//   - expiring: a trial or paid window with at most the threshold of days left
//   - expired: the window has elapsed; access is denied
//   - blocked: administratively suspended; access is denied
//   - pending_payment: a checkout is in flight; access stays open
//
// # Transitions
//
// State changes happen only through Engine.Transition, which takes a
// subscription snapshot and an Event and returns a new record. The input is
// never mutated, which is what makes the engine testable without snapshot or
// rollback machinery. A rejected event is a sentinel *ErrTransitionRejected
// result, never a silent no-op, so double-submitted or stale client actions
// are observable by the caller.
//
// Time-based expiry is handled by Engine.CheckAndTransition, an idempotent
// sweep every read path applies before trusting Status. There is no scheduled
// background job; the clock is consulted on demand.
//
// # Concurrency
//
// Transition and CheckAndTransition are synchronous and side-effect-free, so
// the engine itself needs no locking. It computes the next state from a
// snapshot and cannot detect lost updates between two writers racing on the
// same subscription id; persistence must therefore go through a
// per-subscription serialization point. svc/billing funnels all mutations
// through a keyed mutex for exactly this reason.
//
// # Known asymmetry
//
// PaymentSucceeded is accepted straight from trial (skipping
// PaymentInitiated) but rejected straight from active, which must re-enter
// through PaymentInitiated. This matches the released behavior of the product
// and is kept on purpose; do not "fix" it without a migration plan for
// clients that rely on the direct trial upgrade path.
package subscription
