// Package billing is the application-facing billing service: it combines the
// tariff catalog, the subscription lifecycle engine, and the payment ledger
// into the operations the rest of the product calls.
//
// All subscription writes are funneled through a per-subscription keyed
// mutex. The lifecycle engine is pure and computes next states from
// snapshots, so without this serialization two concurrent writers could lose
// updates; with it, the two-step payment paths (transition plus ledger write)
// behave as one atomic unit per subscription. Deployments that run several
// processes against a shared store need the equivalent discipline at the
// store level (row locks or optimistic versioning).
//
// Two SubscriptionStore implementations ship with the service: an in-memory
// store for tests and single-process use, and PGStore on pgx whose schema is
// applied from svc/billing/migrations. PGStore also persists ledger
// snapshots. An optional Redis-backed StatusCache short-circuits the
// access-gate check on hot paths.
package billing
