// Package ledger maintains the billing trail for subscriptions: invoices and
// an append-only payment log.
//
// The ledger guarantees one invariant above all: at most one invoice per
// subscription is pending at any time. Creating a new invoice first cancels
// every prior pending invoice for that subscription, with one logged
// cancellation per invoice, inside the same critical section. Rapid repeated
// "subscribe" clicks therefore collapse into a single live invoice instead of
// a pile of charges.
//
// Settlement is simulated: SimulatePaymentSuccess and SimulatePaymentFail
// stand in for a real payment-gateway callback. Real gateway integration sits
// behind the caller, outside this package.
//
// The payment log is strictly append-only. Entries are never updated or
// deleted; queries hand out copies, so callers cannot mutate ledger state out
// of band.
//
// State is loadable and saveable as a whole via Snapshot and Restore. Restore
// reseeds the id generators from the maximum ids found in the snapshot, which
// keeps ids collision-free across restarts.
package ledger
