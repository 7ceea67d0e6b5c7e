package engine

import (
	"context"
	"log/slog"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/metrics"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/storage"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/pkg/quant"
)

// GridParams are the inputs to CreateGrid.
type GridParams struct {
	Symbol           string
	Low, High        float64
	Levels           int
	QuantityPerLevel float64
}

// CreateGrid lays a ladder of resting limit orders across [low, high]
// and starts a fill monitor. Levels below the current price buy,
// levels above sell; a level within half a spacing of the current
// price is skipped. Per-level submission failures are independent;
// the returned strategy reports placement counts.
func (e *Engine) CreateGrid(ctx context.Context, p GridParams) (*domain.GridStrategy, error) {
	if p.Low <= 0 || p.High <= p.Low {
		return nil, domain.Invalid("range", "need 0 < low < high, got [%v, %v]", p.Low, p.High)
	}
	if p.Levels < 2 {
		return nil, domain.Invalid("levels", "need at least 2, got %d", p.Levels)
	}
	filters, err := e.ValidateSymbol(ctx, p.Symbol)
	if err != nil {
		return nil, err
	}

	qty := quant.RoundToStep(p.QuantityPerLevel, filters.StepSize)
	if err := ValidateQuantity(qty, filters); err != nil {
		return nil, err
	}

	ref, err := e.client.GetCurrentPrice(ctx, p.Symbol)
	if err != nil {
		return nil, err
	}
	if ref <= p.Low || ref >= p.High {
		return nil, domain.Invalid("range", "current price %v outside (%v, %v)", ref, p.Low, p.High)
	}

	g := &domain.GridStrategy{
		ID:               e.newID("grid"),
		Symbol:           p.Symbol,
		LowPrice:         p.Low,
		HighPrice:        p.High,
		LevelCount:       p.Levels,
		QuantityPerLevel: qty,
		Spacing:          (p.High - p.Low) / float64(p.Levels-1),
		ReferencePrice:   ref,
		Levels:           buildLevels(p.Low, p.High, p.Levels, qty, ref, filters),
		CreatedAt:        e.clk.Now(),
		Status:           domain.GridActive,
	}

	for i := range g.Levels {
		lv := &g.Levels[i]
		if lv.Order.Status == domain.OrderSkipped {
			continue
		}
		rec, err := e.submit(ctx, g.ID, domain.OrderIntent{
			Symbol:      g.Symbol,
			Side:        lv.Side,
			Kind:        domain.KindLimit,
			Quantity:    lv.Quantity,
			Price:       lv.Price,
			TimeInForce: domain.TifGTC,
		})
		lv.Order = rec
		if err != nil {
			slog.Warn("grid level placement failed",
				"grid", g.ID, "level", lv.Index, "price", lv.Price, "err", err)
		}
	}

	buys, sells, failed := g.PlacementCounts()
	slog.Info("grid created",
		"grid", g.ID, "symbol", g.Symbol, "spacing", g.Spacing,
		"buys", buys, "sells", sells, "failed", failed)
	e.journalEvent(ctx, storage.EventStrategyOpened, g.ID, g.Symbol,
		map[string]any{"buys": buys, "sells": sells, "failed": failed})

	if buys+sells == 0 {
		// Nothing resting, nothing to monitor.
		g.Status = domain.GridStopped
		return g, nil
	}

	mctx, cancel := context.WithCancel(context.Background())
	e.registry.AddGrid(g, cancel)
	go e.monitorGrid(mctx, g)
	return g.Clone(), nil
}

// buildLevels generates the ladder. Classification uses the raw level
// price against the reference before quantization; the half-spacing
// skip window is half-open on the high side so at most one level near
// the reference is dropped.
func buildLevels(low, high float64, count int, qty, ref float64, filters exchange.SymbolFilters) []domain.GridLevel {
	spacing := (high - low) / float64(count-1)
	half := spacing / 2

	levels := make([]domain.GridLevel, 0, count)
	for i := 0; i < count; i++ {
		raw := low + float64(i)*spacing
		lv := domain.GridLevel{
			Index:    i + 1,
			Price:    quant.RoundToTick(raw, filters.TickSize),
			Quantity: qty,
		}
		switch {
		case raw > ref-half && raw <= ref+half:
			lv.Order.Status = domain.OrderSkipped
		case raw < ref:
			lv.Side = domain.SideBuy
		default:
			lv.Side = domain.SideSell
		}
		levels = append(levels, lv)
	}
	return levels
}

// monitorGrid polls resting levels until the grid leaves ACTIVE or the
// context is canceled. Fills are appended to the executed-trade log;
// the ladder is not re-laddered after a fill.
func (e *Engine) monitorGrid(ctx context.Context, g *domain.GridStrategy) {
	ticker := e.clk.Ticker(e.gridPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if g.Status != domain.GridActive {
			return
		}
		e.pollGridCycle(ctx, g)
		e.registry.PublishGrid(g)
	}
}

// pollGridCycle checks every PLACED level once. Query failures are
// transient; they are logged and the level is retried next cycle.
func (e *Engine) pollGridCycle(ctx context.Context, g *domain.GridStrategy) {
	for i := range g.Levels {
		lv := &g.Levels[i]
		if lv.Order.Status != domain.OrderPlaced {
			continue
		}

		state, err := e.client.GetOrderStatus(ctx, g.Symbol, lv.Order.ExchangeOrderID)
		if err != nil {
			slog.Warn("grid status poll failed", "grid", g.ID, "level", lv.Index, "err", err)
			continue
		}

		switch state {
		case exchange.StateFilled:
			lv.Order.Status = domain.OrderFilled
			g.ExecutedTrades = append(g.ExecutedTrades, domain.ExecutedTrade{
				Side:     lv.Side,
				Price:    lv.Price,
				Quantity: lv.Quantity,
				At:       e.clk.Now(),
			})
			metrics.FillsObserved.WithLabelValues("grid").Inc()
			slog.Info("grid level filled",
				"grid", g.ID, "level", lv.Index, "side", lv.Side, "price", lv.Price)
			e.journalEvent(ctx, storage.EventOrderFilled, g.ID, g.Symbol,
				map[string]any{"level": lv.Index, "side": lv.Side, "price": lv.Price})
		case exchange.StateCanceled, exchange.StateExpired:
			lv.Order.Status = domain.OrderCanceled
			slog.Info("grid level canceled externally", "grid", g.ID, "level", lv.Index)
		}
	}
}

// StopGrid removes the grid from the registry, stopping its monitor,
// and best-effort cancels every resting level. It reports how many
// cancels succeeded.
func (e *Engine) StopGrid(ctx context.Context, id string) (canceled, failed int, err error) {
	g, ok := e.registry.Grid(id)
	if !ok {
		return 0, 0, domain.Invalid("grid", "unknown id %s", id)
	}
	e.registry.Remove(id)

	for _, lv := range g.Levels {
		if lv.Order.Status != domain.OrderPlaced {
			continue
		}
		if cerr := e.client.CancelOrder(ctx, g.Symbol, lv.Order.ExchangeOrderID); cerr != nil {
			failed++
			slog.Warn("grid cancel failed", "grid", id, "level", lv.Index, "err", cerr)
			continue
		}
		canceled++
	}

	slog.Info("grid stopped", "grid", id, "canceled", canceled, "cancel_failures", failed)
	e.journalEvent(ctx, storage.EventStrategyClosed, id, g.Symbol,
		map[string]any{"canceled": canceled, "failed": failed})
	return canceled, failed, nil
}
