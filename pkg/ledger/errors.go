package ledger

import "errors"

var (
	// ErrInvoiceNotFound indicates a lookup with a stale or foreign invoice
	// id. Unlike a rejected lifecycle transition this is caller misuse and is
	// surfaced as a hard error.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvoiceNotPending indicates an attempt to settle an invoice that has
	// already reached a terminal status.
	ErrInvoiceNotPending = errors.New("invoice is not pending")

	// ErrInvalidSnapshot indicates persisted ledger state that cannot be
	// restored (duplicate ids or unknown statuses).
	ErrInvalidSnapshot = errors.New("invalid ledger snapshot")
)
