package engine

import (
	"context"
	"sync"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/metrics"
)

// Registry holds the live strategy set. Monitors publish immutable
// snapshots (the stored record is replaced wholesale, never mutated in
// place) so concurrent readers cannot observe a torn update. Each
// entry carries the cancel function of its monitor goroutine.
type Registry struct {
	mu    sync.RWMutex
	grids map[string]*gridEntry
	twaps map[string]*twapEntry
	ocos  map[string]*ocoEntry
}

type gridEntry struct {
	snap   *domain.GridStrategy
	cancel context.CancelFunc
}

type twapEntry struct {
	snap   *domain.TwapPlan
	cancel context.CancelFunc
}

type ocoEntry struct {
	snap   *domain.OcoPair
	cancel context.CancelFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		grids: make(map[string]*gridEntry),
		twaps: make(map[string]*twapEntry),
		ocos:  make(map[string]*ocoEntry),
	}
}

// AddGrid registers a grid with its monitor's cancel function.
func (r *Registry) AddGrid(g *domain.GridStrategy, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grids[g.ID] = &gridEntry{snap: g.Clone(), cancel: cancel}
	metrics.StrategiesActive.WithLabelValues("grid").Inc()
}

// PublishGrid replaces the stored snapshot. No-op for removed entries.
func (r *Registry) PublishGrid(g *domain.GridStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.grids[g.ID]; ok {
		e.snap = g.Clone()
	}
}

// Grid returns the latest snapshot of a registered grid.
func (r *Registry) Grid(id string) (*domain.GridStrategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.grids[id]
	if !ok {
		return nil, false
	}
	return e.snap, true
}

// Grids returns snapshots of every registered grid.
func (r *Registry) Grids() []*domain.GridStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.GridStrategy, 0, len(r.grids))
	for _, e := range r.grids {
		out = append(out, e.snap)
	}
	return out
}

// AddTwap registers a TWAP plan with its executor's cancel function.
func (r *Registry) AddTwap(p *domain.TwapPlan, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.twaps[p.ID] = &twapEntry{snap: p.Clone(), cancel: cancel}
	metrics.StrategiesActive.WithLabelValues("twap").Inc()
}

// PublishTwap replaces the stored snapshot. No-op for removed entries.
func (r *Registry) PublishTwap(p *domain.TwapPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.twaps[p.ID]; ok {
		e.snap = p.Clone()
	}
}

// Twap returns the latest snapshot of a registered plan.
func (r *Registry) Twap(id string) (*domain.TwapPlan, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.twaps[id]
	if !ok {
		return nil, false
	}
	return e.snap, true
}

// Twaps returns snapshots of every registered plan.
func (r *Registry) Twaps() []*domain.TwapPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.TwapPlan, 0, len(r.twaps))
	for _, e := range r.twaps {
		out = append(out, e.snap)
	}
	return out
}

// AddOco registers an OCO pair with its monitor's cancel function.
func (r *Registry) AddOco(p *domain.OcoPair, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ocos[p.ID] = &ocoEntry{snap: p.Clone(), cancel: cancel}
	metrics.StrategiesActive.WithLabelValues("oco").Inc()
}

// PublishOco replaces the stored snapshot. No-op for removed entries.
func (r *Registry) PublishOco(p *domain.OcoPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.ocos[p.ID]; ok {
		e.snap = p.Clone()
	}
}

// Oco returns the latest snapshot of a registered pair.
func (r *Registry) Oco(id string) (*domain.OcoPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.ocos[id]
	if !ok {
		return nil, false
	}
	return e.snap, true
}

// Ocos returns snapshots of every registered pair.
func (r *Registry) Ocos() []*domain.OcoPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.OcoPair, 0, len(r.ocos))
	for _, e := range r.ocos {
		out = append(out, e.snap)
	}
	return out
}

// Remove deletes a strategy by ID from whichever kind holds it and
// cancels its monitor goroutine. Returns false for unknown IDs.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.grids[id]; ok {
		e.cancel()
		delete(r.grids, id)
		metrics.StrategiesActive.WithLabelValues("grid").Dec()
		return true
	}
	if e, ok := r.twaps[id]; ok {
		e.cancel()
		delete(r.twaps, id)
		metrics.StrategiesActive.WithLabelValues("twap").Dec()
		return true
	}
	if e, ok := r.ocos[id]; ok {
		e.cancel()
		delete(r.ocos, id)
		metrics.StrategiesActive.WithLabelValues("oco").Dec()
		return true
	}
	return false
}
