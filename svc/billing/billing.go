package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/crewkit/pkg/ledger"
	"github.com/dmitrymomot/crewkit/pkg/subscription"
	"github.com/dmitrymomot/crewkit/pkg/tariff"
)

// Service wires the lifecycle engine, the payment ledger, and the tariff
// catalog into the billing operations the rest of the application calls. It
// is the single mutation path for subscription state: every write runs under
// a per-subscription lock, which gives the engine's snapshot-based transitions
// the single-writer discipline they require.
type Service struct {
	catalog *tariff.Catalog
	engine  *subscription.Engine
	ledger  *ledger.Service
	store   SubscriptionStore
	cache   *StatusCache
	log     *slog.Logger
	locks   keyedMutex
	now     func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger for billing events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLedger injects a preconfigured ledger service, e.g. one restored from
// a persisted snapshot.
func WithLedger(l *ledger.Service) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithStatusCache enables the Redis-backed access-verdict cache.
func WithStatusCache(c *StatusCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the billing service. Panics if catalog or store is nil to fail
// fast during initialization.
func New(catalog *tariff.Catalog, store SubscriptionStore, opts ...Option) *Service {
	if catalog == nil {
		panic("billing: tariff catalog is required")
	}
	if store == nil {
		panic("billing: subscription store is required")
	}

	s := &Service{
		catalog: catalog,
		engine:  subscription.NewEngine(catalog),
		store:   store,
		log:     slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		s.ledger = ledger.New(catalog, ledger.WithLogger(s.log))
	}
	return s
}

// Ledger exposes the payment ledger for queries and persistence snapshots.
func (s *Service) Ledger() *ledger.Service {
	return s.ledger
}

// Catalog exposes the tariff catalog for pricing and limit lookups.
func (s *Service) Catalog() *tariff.Catalog {
	return s.catalog
}

// CreateTrialSubscription creates the trial subscription for a freshly
// registered tenant owner. Called once per user; a second call returns
// ErrSubscriptionExists.
func (s *Service) CreateTrialSubscription(ctx context.Context, userID uuid.UUID) (subscription.Subscription, error) {
	unlock := s.locks.Lock("user:" + userID.String())
	defer unlock()

	if _, err := s.store.GetByUser(ctx, userID); err == nil {
		return subscription.Subscription{}, ErrSubscriptionExists
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return subscription.Subscription{}, err
	}

	sub := s.engine.NewTrial(userID, s.now())
	if err := s.store.Save(ctx, sub); err != nil {
		return subscription.Subscription{}, fmt.Errorf("failed to save trial subscription: %w", err)
	}

	s.log.InfoContext(ctx, "trial subscription created",
		slog.String("subscription_id", sub.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Time("trial_ends_at", sub.TrialEndsAt))

	return sub, nil
}

// Get returns a subscription with the time-based expiry check already
// applied. Any status change the check produces is persisted, so readers
// always see (and the store converges to) the true expiry state.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (subscription.Subscription, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()
	return s.getAndSweepLocked(ctx, id)
}

// GetByUser is Get keyed by the owning user.
func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (subscription.Subscription, error) {
	sub, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return subscription.Subscription{}, err
	}
	return s.Get(ctx, sub.ID)
}

// InitiatePayment validates the plan-change transition and, only if the
// engine accepts it, cuts a pending invoice and parks the subscription in
// pending_payment. A rejected transition leaves the ledger untouched.
func (s *Service) InitiatePayment(ctx context.Context, id uuid.UUID, tier tariff.Tier, interval tariff.Interval) (subscription.Subscription, ledger.Invoice, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	next, err := s.transition(ctx, sub, subscription.PaymentInitiated{Tier: tier, Interval: interval})
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	inv, err := s.ledger.CreateInvoice(ctx, id, tier, interval)
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	if err := s.persist(ctx, next); err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	s.log.InfoContext(ctx, "payment initiated",
		slog.String("subscription_id", id.String()),
		slog.Int64("invoice_id", inv.ID),
		slog.String("tier", string(tier)),
		slog.String("interval", string(interval)))

	return next, inv, nil
}

// CompletePayment simulates a successful settlement: the ledger records a
// paid invoice (superseding any pending one) and the subscription activates
// the plan. Ledger and subscription state change together under the
// subscription's lock.
func (s *Service) CompletePayment(ctx context.Context, id uuid.UUID, tier tariff.Tier, interval tariff.Interval) (subscription.Subscription, ledger.Invoice, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	next, err := s.transition(ctx, sub, subscription.PaymentSucceeded{Tier: tier, Interval: interval})
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	inv, err := s.ledger.SimulatePaymentSuccess(ctx, id, tier, interval)
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	if err := s.persist(ctx, next); err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	s.log.InfoContext(ctx, "payment completed",
		slog.String("subscription_id", id.String()),
		slog.Int64("invoice_id", inv.ID),
		slog.String("status", string(next.Status)),
		slog.Time("period_end", next.CurrentPeriodEnd))

	return next, inv, nil
}

// FailPayment simulates a failed settlement: the ledger records the failed
// invoice and the subscription returns to the status it held before the
// payment was initiated.
func (s *Service) FailPayment(ctx context.Context, id uuid.UUID, tier tariff.Tier, interval tariff.Interval) (subscription.Subscription, ledger.Invoice, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	next, err := s.transition(ctx, sub, subscription.PaymentFailed{})
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	inv, err := s.ledger.SimulatePaymentFail(ctx, id, tier, interval)
	if err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	if err := s.persist(ctx, next); err != nil {
		return subscription.Subscription{}, ledger.Invoice{}, err
	}

	s.log.InfoContext(ctx, "payment failed",
		slog.String("subscription_id", id.String()),
		slog.Int64("invoice_id", inv.ID),
		slog.String("restored_status", string(next.Status)))

	return next, inv, nil
}

// Block administratively suspends a subscription. Always allowed.
func (s *Service) Block(ctx context.Context, id uuid.UUID, reason string) (subscription.Subscription, error) {
	return s.applyEvent(ctx, id, subscription.AdminBlock{Reason: reason})
}

// Unblock lifts an administrative block. The restored status is re-evaluated
// against the clock before it is returned.
func (s *Service) Unblock(ctx context.Context, id uuid.UUID) (subscription.Subscription, error) {
	return s.applyEvent(ctx, id, subscription.AdminUnblock{})
}

// IsAccessAllowed reports whether the tenant behind the subscription may use
// the product. Consults the status cache when one is configured; a miss runs
// the full expiry-checked read and primes the cache.
func (s *Service) IsAccessAllowed(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.cache != nil {
		if allowed, ok := s.cache.GetAccess(ctx, id); ok {
			return allowed, nil
		}
	}

	sub, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	allowed := sub.IsAccessAllowed()
	if s.cache != nil {
		s.cache.SetAccess(ctx, id, allowed)
	}
	return allowed, nil
}

// CanAddProject reports whether the subscription's tier permits one more
// managed object.
func (s *Service) CanAddProject(ctx context.Context, id uuid.UUID, currentCount int64) (bool, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.catalog.CanAddProject(sub.PlanTier, currentCount), nil
}

// InvoicesBySubscription returns the billing history for a subscription.
func (s *Service) InvoicesBySubscription(id uuid.UUID) []ledger.Invoice {
	return s.ledger.InvoicesBySubscription(id)
}

// PaymentLogs returns the whole append-only payment log.
func (s *Service) PaymentLogs() []ledger.Entry {
	return s.ledger.Entries()
}

// PaymentLogsByInvoice returns the log entries for one invoice.
func (s *Service) PaymentLogsByInvoice(invoiceID int64) ([]ledger.Entry, error) {
	return s.ledger.EntriesByInvoice(invoiceID)
}

func (s *Service) applyEvent(ctx context.Context, id uuid.UUID, event subscription.Event) (subscription.Subscription, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return subscription.Subscription{}, err
	}

	next, err := s.transition(ctx, sub, event)
	if err != nil {
		return subscription.Subscription{}, err
	}

	if err := s.persist(ctx, next); err != nil {
		return subscription.Subscription{}, err
	}

	s.log.InfoContext(ctx, "subscription transition applied",
		slog.String("subscription_id", id.String()),
		slog.String("event", event.Name()),
		slog.String("from", string(sub.Status)),
		slog.String("to", string(next.Status)))

	return next, nil
}

// transition runs the engine and logs rejections, which are expected
// outcomes rather than failures but still worth an operator trace.
func (s *Service) transition(ctx context.Context, sub subscription.Subscription, event subscription.Event) (subscription.Subscription, error) {
	next, err := s.engine.Transition(sub, event, s.now())
	if err != nil {
		if subscription.IsTransitionRejectedError(err) {
			s.log.WarnContext(ctx, "subscription transition rejected",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("event", event.Name()),
				slog.String("status", string(sub.Status)))
		}
		return subscription.Subscription{}, err
	}
	return next, nil
}

// getAndSweepLocked reads a subscription and applies the on-demand expiry
// check, persisting the result when the status moved. Callers must hold the
// subscription's lock.
func (s *Service) getAndSweepLocked(ctx context.Context, id uuid.UUID) (subscription.Subscription, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return subscription.Subscription{}, err
	}

	swept := s.engine.CheckAndTransition(sub, s.now())
	if swept.Status != sub.Status {
		if err := s.persist(ctx, swept); err != nil {
			return subscription.Subscription{}, err
		}
		s.log.InfoContext(ctx, "subscription expiry check transitioned status",
			slog.String("subscription_id", id.String()),
			slog.String("from", string(sub.Status)),
			slog.String("to", string(swept.Status)))
	}
	return swept, nil
}

// persist saves a subscription and drops any cached access verdict for it.
func (s *Service) persist(ctx context.Context, sub subscription.Subscription) error {
	if err := s.store.Save(ctx, sub); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, sub.ID)
	}
	return nil
}
