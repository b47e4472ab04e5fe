package billing

import "sync"

// keyedMutex serializes work per key. The lifecycle engine computes next
// states from snapshots and cannot detect lost updates on its own, so every
// mutation of a given subscription must run under that subscription's lock.
//
// Mutexes are kept for the life of the process; the key space is bounded by
// the number of billable tenants, so entries are not reclaimed.
type keyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
