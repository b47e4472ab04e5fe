package ledger

import "sync"

// Generator hands out sequential int64 ids. It replaces hidden global
// counters: each Service owns its generators explicitly and reseeds them from
// the maximum id observed when restoring persisted state, so ids never
// collide after a reload and tests never share counter state.
type Generator struct {
	mu   sync.Mutex
	next int64
}

// NewGenerator returns a generator whose first id is 1.
func NewGenerator() *Generator {
	return &Generator{next: 1}
}

// Next returns the next id.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}

// SeedFrom advances the generator past observedMax. It never moves the
// generator backwards, so seeding is idempotent and safe to repeat on every
// reload.
func (g *Generator) SeedFrom(observedMax int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if observedMax >= g.next {
		g.next = observedMax + 1
	}
}
