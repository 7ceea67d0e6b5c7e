// Package engine implements the strategy execution core: grid ladders,
// TWAP plans, and OCO brackets, each with its own background monitor.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/storage"
)

const (
	defaultGridPoll = 60 * time.Second
	defaultOcoPoll  = 30 * time.Second
)

// Config tunes engine behavior. Zero values get production defaults.
type Config struct {
	GridPollInterval time.Duration
	OcoPollInterval  time.Duration
	// Clock defaults to the real clock; tests inject a mock.
	Clock clock.Clock
	// Journal may be nil; journaling is never load-bearing.
	Journal *storage.Journal
}

// Engine drives strategy execution against one exchange client.
// Strategy creation runs synchronously on the caller's path; monitors
// run as one goroutine per strategy instance.
type Engine struct {
	client   exchange.Client
	registry *Registry
	clk      clock.Clock
	journal  *storage.Journal

	// rng backs schedule jitter; rand.Rand is not goroutine-safe so
	// concurrent creators go through jitterFrac.
	rngMu sync.Mutex
	rng   *rand.Rand

	gridPoll time.Duration
	ocoPoll  time.Duration

	seq uint64
}

// New builds an engine around a client and registry.
func New(client exchange.Client, registry *Registry, cfg Config) *Engine {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	gridPoll := cfg.GridPollInterval
	if gridPoll <= 0 {
		gridPoll = defaultGridPoll
	}
	ocoPoll := cfg.OcoPollInterval
	if ocoPoll <= 0 {
		ocoPoll = defaultOcoPoll
	}
	return &Engine{
		client:   client,
		registry: registry,
		clk:      clk,
		rng:      rand.New(rand.NewSource(clk.Now().UnixNano())),
		journal:  cfg.Journal,
		gridPoll: gridPoll,
		ocoPoll:  ocoPoll,
	}
}

// Registry returns the registry the engine publishes snapshots to.
func (e *Engine) Registry() *Registry { return e.registry }

// jitterFrac draws a uniform value in [-1, 1) under the rng lock.
func (e *Engine) jitterFrac() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()*2 - 1
}

// newID issues a strategy ID unique within the process.
func (e *Engine) newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, e.clk.Now().Unix(), atomic.AddUint64(&e.seq, 1))
}

// journalEvent appends to the sqlite journal when one is configured.
// Journal failures are logged and never affect strategy flow.
func (e *Engine) journalEvent(ctx context.Context, evType, strategyID, symbol string, payload any) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, evType, strategyID, symbol, payload); err != nil {
		slog.Warn("journal write failed", "type", evType, "strategy", strategyID, "err", err)
	}
}

// journalOrder appends an order outcome when a journal is configured.
func (e *Engine) journalOrder(ctx context.Context, strategyID string, rec domain.OrderRecord) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordOrder(ctx, strategyID, rec); err != nil {
		slog.Warn("journal write failed", "strategy", strategyID, "err", err)
	}
}
