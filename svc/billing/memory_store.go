package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/crewkit/pkg/subscription"
)

type memoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]subscription.Subscription
	byUser map[uuid.UUID]uuid.UUID // user id -> subscription id
}

// NewMemoryStore returns an in-memory SubscriptionStore. Suitable for tests
// and single-process deployments; state does not survive a restart.
func NewMemoryStore() SubscriptionStore {
	return &memoryStore{
		byID:   make(map[uuid.UUID]subscription.Subscription),
		byUser: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *memoryStore) Get(_ context.Context, id uuid.UUID) (subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byID[id]
	if !ok {
		return subscription.Subscription{}, ErrSubscriptionNotFound
	}
	return copySubscription(sub), nil
}

func (s *memoryStore) GetByUser(_ context.Context, userID uuid.UUID) (subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUser[userID]
	if !ok {
		return subscription.Subscription{}, ErrSubscriptionNotFound
	}
	return copySubscription(s.byID[id]), nil
}

func (s *memoryStore) Save(_ context.Context, sub subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[sub.ID] = copySubscription(sub)
	s.byUser[sub.UserID] = sub.ID
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]subscription.Subscription, 0, len(s.byID))
	for _, sub := range s.byID {
		result = append(result, copySubscription(sub))
	}
	return result, nil
}

// copySubscription detaches the one pointer field so callers cannot reach
// into stored state.
func copySubscription(sub subscription.Subscription) subscription.Subscription {
	if sub.BlockedAt != nil {
		blockedAt := *sub.BlockedAt
		sub.BlockedAt = &blockedAt
	}
	return sub
}
