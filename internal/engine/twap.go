package engine

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/metrics"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/storage"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/pkg/quant"
)

// jitterRatio bounds randomized chunk timing to ±30% of the interval.
const jitterRatio = 0.3

// TwapParams are the inputs to CreateTwap.
type TwapParams struct {
	Symbol          string
	Side            domain.Side
	TotalQuantity   float64
	DurationMinutes int
	// PriceLimit of 0 means market orders.
	PriceLimit float64
	Randomize  bool
}

// TwapRun is the creator's handle on a running plan. The executor
// goroutine owns the plan; Wait blocks until it finishes and returns
// the final state.
type TwapRun struct {
	Plan *domain.TwapPlan // snapshot at creation

	done  chan struct{}
	final *domain.TwapPlan
}

// Wait blocks until the executor finishes.
func (r *TwapRun) Wait() *domain.TwapPlan {
	<-r.done
	return r.final
}

// Done exposes completion to select loops.
func (r *TwapRun) Done() <-chan struct{} { return r.done }

// CreateTwap slices an order into time-spaced chunks and starts the
// sequential executor. Chunk count is clamp(round(minutes/2), 1, 10);
// rounding residue folds into the final chunk so the quantized chunks
// sum to the total. Chunks whose notional misses the exchange minimum
// are flagged likely-to-fail but still scheduled.
func (e *Engine) CreateTwap(ctx context.Context, p TwapParams) (*TwapRun, error) {
	if !p.Side.Valid() {
		return nil, domain.Invalid("side", "%s is not BUY or SELL", p.Side)
	}
	if p.TotalQuantity <= 0 {
		return nil, domain.Invalid("quantity", "must be positive, got %v", p.TotalQuantity)
	}
	if p.DurationMinutes < 1 {
		return nil, domain.Invalid("duration", "need at least 1 minute, got %d", p.DurationMinutes)
	}
	if p.PriceLimit < 0 {
		return nil, domain.Invalid("price", "limit must not be negative, got %v", p.PriceLimit)
	}
	filters, err := e.ValidateSymbol(ctx, p.Symbol)
	if err != nil {
		return nil, err
	}
	if err := ValidateQuantity(quant.RoundToStep(p.TotalQuantity, filters.StepSize), filters); err != nil {
		return nil, err
	}

	chunkCount := int(math.Round(float64(p.DurationMinutes) / 2))
	if chunkCount < 1 {
		chunkCount = 1
	}
	if chunkCount > 10 {
		chunkCount = 10
	}
	interval := time.Duration(float64(p.DurationMinutes) * 60 / float64(chunkCount) * float64(time.Second))

	chunkQty := quant.RoundToStep(p.TotalQuantity/float64(chunkCount), filters.StepSize)
	if chunkQty <= 0 {
		return nil, domain.Invalid("quantity", "%v splits below step %v over %d chunks",
			p.TotalQuantity, filters.StepSize, chunkCount)
	}
	if err := ValidateQuantity(chunkQty, filters); err != nil {
		return nil, err
	}
	lastQty := quant.RoundToStep(p.TotalQuantity-chunkQty*float64(chunkCount-1), filters.StepSize)
	if lastQty <= 0 {
		return nil, domain.Invalid("quantity", "final chunk rounds to zero")
	}
	if err := ValidateQuantity(lastQty, filters); err != nil {
		return nil, err
	}

	priceLimit := p.PriceLimit
	if priceLimit > 0 {
		priceLimit = quant.RoundToTick(priceLimit, filters.TickSize)
	}

	// Reference price for the minimum-notional check.
	refPrice := priceLimit
	if refPrice == 0 {
		refPrice, err = e.client.GetCurrentPrice(ctx, p.Symbol)
		if err != nil {
			return nil, err
		}
	}

	now := e.clk.Now()
	plan := &domain.TwapPlan{
		ID:              e.newID("twap"),
		Symbol:          p.Symbol,
		Side:            p.Side,
		TotalQuantity:   p.TotalQuantity,
		DurationMinutes: p.DurationMinutes,
		ChunkCount:      chunkCount,
		PriceLimit:      priceLimit,
		RandomizeTiming: p.Randomize,
		Chunks:          make([]domain.TwapChunk, chunkCount),
		CreatedAt:       now,
		Status:          domain.TwapActive,
	}

	for i := 0; i < chunkCount; i++ {
		qty := chunkQty
		if i == chunkCount-1 {
			qty = lastQty
		}
		offset := time.Duration(i) * interval
		if i > 0 && p.Randomize {
			jitter := e.jitterFrac() * jitterRatio
			offset += time.Duration(jitter * float64(interval))
		}
		ch := domain.TwapChunk{
			Index:       i + 1,
			Quantity:    qty,
			ScheduledAt: now.Add(offset),
			Status:      domain.ChunkPending,
		}
		if qty*refPrice < filters.MinNotional {
			ch.LikelyToFail = true
			slog.Warn("twap chunk below minimum notional",
				"twap", plan.ID, "chunk", ch.Index, "notional", qty*refPrice, "min", filters.MinNotional)
		}
		plan.Chunks[i] = ch
	}

	slog.Info("twap created",
		"twap", plan.ID, "symbol", plan.Symbol, "side", plan.Side,
		"chunks", chunkCount, "interval", interval, "total", p.TotalQuantity)
	e.journalEvent(ctx, storage.EventStrategyOpened, plan.ID, plan.Symbol,
		map[string]any{"chunks": chunkCount, "total": p.TotalQuantity})

	ectx, cancel := context.WithCancel(context.Background())
	e.registry.AddTwap(plan, cancel)

	run := &TwapRun{Plan: plan.Clone(), done: make(chan struct{})}
	go e.executeTwap(ectx, plan, run)
	return run, nil
}

// executeTwap walks the chunk list strictly in index order. A failed
// chunk is recorded and skipped; the plan only fails when no chunk
// executes at all.
func (e *Engine) executeTwap(ctx context.Context, plan *domain.TwapPlan, run *TwapRun) {
	defer func() {
		// ctx may already be canceled here; finish bookkeeping anyway.
		e.finishTwap(context.Background(), plan)
		run.final = plan.Clone()
		// Terminal plans leave the registry; the run handle carries
		// the final state.
		e.registry.Remove(plan.ID)
		close(run.done)
	}()

	for i := range plan.Chunks {
		ch := &plan.Chunks[i]

		if wait := ch.ScheduledAt.Sub(e.clk.Now()); wait > 0 {
			timer := e.clk.Timer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				slog.Info("twap stopped early", "twap", plan.ID, "at_chunk", ch.Index)
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			slog.Info("twap stopped early", "twap", plan.ID, "at_chunk", ch.Index)
			return
		}

		e.executeChunk(ctx, plan, ch)
		e.registry.PublishTwap(plan)
	}
}

func (e *Engine) executeChunk(ctx context.Context, plan *domain.TwapPlan, ch *domain.TwapChunk) {
	intent := domain.OrderIntent{
		Symbol:   plan.Symbol,
		Side:     plan.Side,
		Quantity: ch.Quantity,
	}
	if plan.PriceLimit > 0 {
		intent.Kind = domain.KindLimit
		intent.Price = plan.PriceLimit
		intent.TimeInForce = domain.TifGTC
	} else {
		intent.Kind = domain.KindMarket
	}

	rec, err := e.submit(ctx, plan.ID, intent)
	ch.Order = rec
	if err != nil {
		ch.Status = domain.ChunkFailed
		slog.Warn("twap chunk failed", "twap", plan.ID, "chunk", ch.Index, "err", err)
		return
	}

	ch.Status = domain.ChunkExecuted
	ch.ExecutionPrice = plan.PriceLimit
	if ch.ExecutionPrice == 0 {
		price, perr := e.client.GetCurrentPrice(ctx, plan.Symbol)
		if perr != nil {
			slog.Warn("twap fill price lookup failed", "twap", plan.ID, "chunk", ch.Index, "err", perr)
		} else {
			ch.ExecutionPrice = price
		}
	}
	plan.ExecutedQuantity += ch.Quantity
	metrics.FillsObserved.WithLabelValues("twap").Inc()
	slog.Info("twap chunk executed",
		"twap", plan.ID, "chunk", ch.Index, "qty", ch.Quantity, "price", ch.ExecutionPrice)
}

// finishTwap settles the terminal status and the quantity-weighted
// average price over executed chunks.
func (e *Engine) finishTwap(ctx context.Context, plan *domain.TwapPlan) {
	var qtySum, notional float64
	executed := 0
	for _, ch := range plan.Chunks {
		if ch.Status != domain.ChunkExecuted {
			continue
		}
		executed++
		qtySum += ch.Quantity
		notional += ch.Quantity * ch.ExecutionPrice
	}

	if executed == 0 {
		plan.Status = domain.TwapFailed
	} else {
		plan.Status = domain.TwapCompleted
		if qtySum > 0 {
			plan.AveragePrice = notional / qtySum
		}
	}

	slog.Info("twap finished",
		"twap", plan.ID, "status", plan.Status,
		"executed_chunks", executed, "executed_qty", plan.ExecutedQuantity,
		"avg_price", plan.AveragePrice)
	e.journalEvent(ctx, storage.EventStrategyClosed, plan.ID, plan.Symbol,
		map[string]any{"status": plan.Status, "executed": executed, "avg_price": plan.AveragePrice})
}
