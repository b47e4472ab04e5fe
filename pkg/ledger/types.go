package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/crewkit/pkg/tariff"
)

// InvoiceStatus represents the settlement state of a single billing attempt.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusFailed    InvoiceStatus = "failed"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is one billing attempt for a subscription. Amounts are in the
// smallest currency unit. Once created, only Status and PaidAt ever change,
// and Status only moves from pending to a terminal value.
type Invoice struct {
	ID             int64
	SubscriptionID uuid.UUID
	Amount         int64
	PlanTier       tariff.Tier
	PlanInterval   tariff.Interval
	Status         InvoiceStatus
	CreatedAt      time.Time
	PaidAt         *time.Time // absent until settled successfully
}

// Action tags a payment log entry with the event it records.
type Action string

const (
	ActionInvoiceCreated   Action = "invoice_created"
	ActionInvoiceCancelled Action = "invoice_cancelled"
	ActionPaymentSuccess   Action = "payment_success"
	ActionPaymentFailed    Action = "payment_failed"
)

// Entry is a single append-only audit record in the payment log. Entries are
// never mutated or deleted; the sole write operation on the log is append.
type Entry struct {
	ID        int64
	InvoiceID int64
	Action    Action
	Status    InvoiceStatus
	Amount    int64
	Timestamp time.Time
	Details   string // human-readable note
}
