package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/crewkit/pkg/subscription"
)

// SubscriptionStore is the persistence boundary for subscription records.
// Implementations must return ErrSubscriptionNotFound for missing records and
// propagate their own failures unchanged: the service never retries, retry
// policy belongs to the caller's transaction boundary.
type SubscriptionStore interface {
	// Get retrieves a subscription by its id.
	Get(ctx context.Context, id uuid.UUID) (subscription.Subscription, error)

	// GetByUser retrieves the subscription owned by a user. Each user has at
	// most one.
	GetByUser(ctx context.Context, userID uuid.UUID) (subscription.Subscription, error)

	// Save creates or updates a subscription, keyed by its id.
	Save(ctx context.Context, sub subscription.Subscription) error

	// List returns all subscriptions.
	List(ctx context.Context) ([]subscription.Subscription, error)
}
