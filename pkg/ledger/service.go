package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/crewkit/pkg/tariff"
)

// Service owns the append-only record of invoices and payment log entries.
// All operations on the invoice-creation path run under a single mutex, so
// the cancel-existing-pending and append-new steps form one atomic unit:
// concurrent double-submission of "subscribe" from the same tenant still
// leaves at most one pending invoice per subscription.
type Service struct {
	mu      sync.Mutex
	catalog *tariff.Catalog
	log     *slog.Logger

	invoiceIDs *Generator
	entryIDs   *Generator

	invoices []Invoice
	index    map[int64]int // invoice id -> position in invoices
	entries  []Entry

	now func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger for ledger events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithGenerators injects the id generators, typically shared with or seeded
// by the persistence layer.
func WithGenerators(invoices, entries *Generator) Option {
	return func(s *Service) {
		if invoices != nil {
			s.invoiceIDs = invoices
		}
		if entries != nil {
			s.entryIDs = entries
		}
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

// New creates a ledger service over the given tariff catalog.
// Panics if catalog is nil to fail fast during initialization.
func New(catalog *tariff.Catalog, opts ...Option) *Service {
	if catalog == nil {
		panic("ledger: tariff catalog is required")
	}

	s := &Service{
		catalog:    catalog,
		log:        slog.Default(),
		invoiceIDs: NewGenerator(),
		entryIDs:   NewGenerator(),
		index:      make(map[int64]int),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvoice cancels any pending invoice for the subscription, then
// appends a fresh pending invoice priced from the tariff catalog. Each
// cancellation and the creation are logged. This path is what makes rapid
// repeated "subscribe" clicks safe.
func (s *Service) CreateInvoice(ctx context.Context, subscriptionID uuid.UUID, tier tariff.Tier, interval tariff.Interval) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createInvoiceLocked(ctx, subscriptionID, tier, interval)
}

// SimulatePaymentSuccess creates a fresh invoice through the same
// cancellation-safe path and immediately settles it as paid. Used in place of
// a real payment-gateway callback.
func (s *Service) SimulatePaymentSuccess(ctx context.Context, subscriptionID uuid.UUID, tier tariff.Tier, interval tariff.Interval) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.createInvoiceLocked(ctx, subscriptionID, tier, interval)
	if err != nil {
		return Invoice{}, err
	}
	return s.settleLocked(ctx, inv.ID, InvoiceStatusPaid)
}

// SimulatePaymentFail creates a fresh invoice through the same
// cancellation-safe path and immediately settles it as failed.
func (s *Service) SimulatePaymentFail(ctx context.Context, subscriptionID uuid.UUID, tier tariff.Tier, interval tariff.Interval) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.createInvoiceLocked(ctx, subscriptionID, tier, interval)
	if err != nil {
		return Invoice{}, err
	}
	return s.settleLocked(ctx, inv.ID, InvoiceStatusFailed)
}

// SettleInvoice finalizes an existing pending invoice. Unknown ids are hard
// errors; settling a non-pending invoice is rejected so a stale double
// callback cannot flip a terminal status.
func (s *Service) SettleInvoice(ctx context.Context, invoiceID int64, paid bool) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := InvoiceStatusPaid
	if !paid {
		status = InvoiceStatusFailed
	}
	return s.settleLocked(ctx, invoiceID, status)
}

// Invoice returns a copy of the invoice with the given id.
func (s *Service) Invoice(invoiceID int64) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[invoiceID]
	if !ok {
		return Invoice{}, fmt.Errorf("%w: %d", ErrInvoiceNotFound, invoiceID)
	}
	return copyInvoice(s.invoices[pos]), nil
}

// PendingInvoice returns the pending invoice for a subscription, if any.
func (s *Service) PendingInvoice(subscriptionID uuid.UUID) (Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.invoices {
		if s.invoices[i].SubscriptionID == subscriptionID && s.invoices[i].Status == InvoiceStatusPending {
			return copyInvoice(s.invoices[i]), true
		}
	}
	return Invoice{}, false
}

// InvoicesBySubscription returns copies of all invoices for a subscription in
// creation order. An unknown subscription simply has no invoices yet.
func (s *Service) InvoicesBySubscription(subscriptionID uuid.UUID) []Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Invoice
	for i := range s.invoices {
		if s.invoices[i].SubscriptionID == subscriptionID {
			result = append(result, copyInvoice(s.invoices[i]))
		}
	}
	return result
}

// Entries returns a copy of the whole payment log in append order.
func (s *Service) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Entry, len(s.entries))
	copy(result, s.entries)
	return result
}

// EntriesByInvoice returns the log entries recorded for one invoice.
// The invoice must exist; a stale id is a hard error.
func (s *Service) EntriesByInvoice(invoiceID int64) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[invoiceID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvoiceNotFound, invoiceID)
	}

	var result []Entry
	for _, e := range s.entries {
		if e.InvoiceID == invoiceID {
			result = append(result, e)
		}
	}
	return result, nil
}

// Snapshot returns copies of the full ledger state (two lists) for
// persistence.
func (s *Service) Snapshot() ([]Invoice, []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoices := make([]Invoice, len(s.invoices))
	for i := range s.invoices {
		invoices[i] = copyInvoice(s.invoices[i])
	}
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return invoices, entries
}

// Restore replaces the ledger state with a persisted snapshot and reseeds
// the id generators past the maximum ids observed, so ids minted after a
// restart never collide with persisted ones. Restoring the same snapshot
// twice is idempotent.
func (s *Service) Restore(invoices []Invoice, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[int64]int, len(invoices))
	restored := make([]Invoice, len(invoices))
	var maxInvoiceID int64
	for i, inv := range invoices {
		if _, dup := index[inv.ID]; dup {
			return fmt.Errorf("%w: duplicate invoice id %d", ErrInvalidSnapshot, inv.ID)
		}
		switch inv.Status {
		case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusFailed, InvoiceStatusCancelled:
		default:
			return fmt.Errorf("%w: invoice %d has unknown status %q", ErrInvalidSnapshot, inv.ID, inv.Status)
		}
		restored[i] = copyInvoice(inv)
		index[inv.ID] = i
		maxInvoiceID = max(maxInvoiceID, inv.ID)
	}

	restoredEntries := make([]Entry, len(entries))
	var maxEntryID int64
	for i, e := range entries {
		restoredEntries[i] = e
		maxEntryID = max(maxEntryID, e.ID)
	}

	s.invoices = restored
	s.index = index
	s.entries = restoredEntries
	s.invoiceIDs.SeedFrom(maxInvoiceID)
	s.entryIDs.SeedFrom(maxEntryID)
	return nil
}

func (s *Service) createInvoiceLocked(ctx context.Context, subscriptionID uuid.UUID, tier tariff.Tier, interval tariff.Interval) (Invoice, error) {
	amount, err := s.catalog.InvoiceAmount(tier, interval)
	if err != nil {
		return Invoice{}, err
	}

	now := s.now()

	// Superseding a pending invoice is a deliberate, logged state change,
	// not a failure path.
	for i := range s.invoices {
		if s.invoices[i].SubscriptionID == subscriptionID && s.invoices[i].Status == InvoiceStatusPending {
			s.invoices[i].Status = InvoiceStatusCancelled
			s.appendEntry(s.invoices[i], ActionInvoiceCancelled, now, "superseded by a newer invoice")
			s.log.InfoContext(ctx, "pending invoice cancelled",
				slog.Int64("invoice_id", s.invoices[i].ID),
				slog.String("subscription_id", subscriptionID.String()))
		}
	}

	inv := Invoice{
		ID:             s.invoiceIDs.Next(),
		SubscriptionID: subscriptionID,
		Amount:         amount,
		PlanTier:       tier,
		PlanInterval:   interval,
		Status:         InvoiceStatusPending,
		CreatedAt:      now,
	}
	s.index[inv.ID] = len(s.invoices)
	s.invoices = append(s.invoices, inv)
	s.appendEntry(inv, ActionInvoiceCreated, now, fmt.Sprintf("invoice for %s/%s plan", tier, interval))

	s.log.InfoContext(ctx, "invoice created",
		slog.Int64("invoice_id", inv.ID),
		slog.String("subscription_id", subscriptionID.String()),
		slog.String("tier", string(tier)),
		slog.String("interval", string(interval)),
		slog.Int64("amount", amount))

	return copyInvoice(inv), nil
}

func (s *Service) settleLocked(ctx context.Context, invoiceID int64, status InvoiceStatus) (Invoice, error) {
	pos, ok := s.index[invoiceID]
	if !ok {
		return Invoice{}, fmt.Errorf("%w: %d", ErrInvoiceNotFound, invoiceID)
	}
	if s.invoices[pos].Status != InvoiceStatusPending {
		return Invoice{}, fmt.Errorf("%w: invoice %d is %s", ErrInvoiceNotPending, invoiceID, s.invoices[pos].Status)
	}

	now := s.now()
	s.invoices[pos].Status = status

	action := ActionPaymentFailed
	details := "payment failed"
	if status == InvoiceStatusPaid {
		s.invoices[pos].PaidAt = &now
		action = ActionPaymentSuccess
		details = "payment settled"
	}
	s.appendEntry(s.invoices[pos], action, now, details)

	s.log.InfoContext(ctx, "invoice settled",
		slog.Int64("invoice_id", invoiceID),
		slog.String("status", string(status)))

	return copyInvoice(s.invoices[pos]), nil
}

func (s *Service) appendEntry(inv Invoice, action Action, now time.Time, details string) {
	s.entries = append(s.entries, Entry{
		ID:        s.entryIDs.Next(),
		InvoiceID: inv.ID,
		Action:    action,
		Status:    inv.Status,
		Amount:    inv.Amount,
		Timestamp: now,
		Details:   details,
	})
}

func copyInvoice(inv Invoice) Invoice {
	if inv.PaidAt != nil {
		paidAt := *inv.PaidAt
		inv.PaidAt = &paidAt
	}
	return inv
}
