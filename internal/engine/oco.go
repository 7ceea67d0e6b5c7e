package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/metrics"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/storage"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/pkg/quant"
)

// OcoParams are the inputs to CreateOco.
type OcoParams struct {
	Symbol       string
	Quantity     float64
	TakeProfit   float64
	StopLoss     float64
	PositionSide domain.PositionSide
}

// CreateOco brackets an existing position with a reduce-only limit
// take-profit and a reduce-only stop-market stop-loss, then starts the
// cancel-on-fill monitor. For a LONG position the take-profit must sit
// above and the stop-loss below the current price; SHORT inverts both.
// If the second leg fails to submit the creation fails; the first leg
// is NOT rolled back and its order ID is reported in the error.
func (e *Engine) CreateOco(ctx context.Context, p OcoParams) (*domain.OcoPair, error) {
	if p.PositionSide != domain.PositionLong && p.PositionSide != domain.PositionShort {
		return nil, domain.Invalid("position", "%s is not LONG or SHORT", p.PositionSide)
	}
	if p.TakeProfit <= 0 || p.StopLoss <= 0 {
		return nil, domain.Invalid("price", "take-profit %v and stop-loss %v must be positive", p.TakeProfit, p.StopLoss)
	}
	filters, err := e.ValidateSymbol(ctx, p.Symbol)
	if err != nil {
		return nil, err
	}

	qty := quant.RoundToStep(p.Quantity, filters.StepSize)
	if err := ValidateQuantity(qty, filters); err != nil {
		return nil, err
	}
	tp := quant.RoundToTick(p.TakeProfit, filters.TickSize)
	sl := quant.RoundToTick(p.StopLoss, filters.TickSize)

	ref, err := e.client.GetCurrentPrice(ctx, p.Symbol)
	if err != nil {
		return nil, err
	}

	switch p.PositionSide {
	case domain.PositionLong:
		if tp <= ref {
			return nil, domain.Invalid("take-profit", "%v must be above current price %v for LONG", tp, ref)
		}
		if sl >= ref {
			return nil, domain.Invalid("stop-loss", "%v must be below current price %v for LONG", sl, ref)
		}
	case domain.PositionShort:
		if tp >= ref {
			return nil, domain.Invalid("take-profit", "%v must be below current price %v for SHORT", tp, ref)
		}
		if sl <= ref {
			return nil, domain.Invalid("stop-loss", "%v must be above current price %v for SHORT", sl, ref)
		}
	}

	// Both legs close the position, so they trade opposite to it.
	exitSide := domain.SideSell
	if p.PositionSide == domain.PositionShort {
		exitSide = domain.SideBuy
	}

	pair := &domain.OcoPair{
		ID:             e.newID("oco"),
		Symbol:         p.Symbol,
		Quantity:       qty,
		PositionSide:   p.PositionSide,
		ReferencePrice: ref,
		CreatedAt:      e.clk.Now(),
		Status:         domain.OcoActive,
	}

	pair.TakeProfit, err = e.submit(ctx, pair.ID, domain.OrderIntent{
		Symbol:      p.Symbol,
		Side:        exitSide,
		Kind:        domain.KindLimit,
		Quantity:    qty,
		Price:       tp,
		TimeInForce: domain.TifGTC,
		ReduceOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("take-profit leg: %w", err)
	}

	pair.StopLoss, err = e.submit(ctx, pair.ID, domain.OrderIntent{
		Symbol:     p.Symbol,
		Side:       exitSide,
		Kind:       domain.KindStopMarket,
		Quantity:   qty,
		StopPrice:  sl,
		ReduceOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stop-loss leg failed, take-profit order %s left active: %w",
			pair.TakeProfit.ExchangeOrderID, err)
	}

	slog.Info("oco created",
		"oco", pair.ID, "symbol", pair.Symbol, "position", pair.PositionSide,
		"tp", tp, "sl", sl, "qty", qty)
	e.journalEvent(ctx, storage.EventStrategyOpened, pair.ID, pair.Symbol,
		map[string]any{"tp": tp, "sl": sl, "position": pair.PositionSide})

	mctx, cancel := context.WithCancel(context.Background())
	e.registry.AddOco(pair, cancel)
	go e.monitorOco(mctx, pair)
	return pair.Clone(), nil
}

// monitorOco polls both legs until one fills or both are externally
// canceled. The first fill cancels the sibling best-effort; a cancel
// failure is swallowed, counted, and logged. Resolution happens exactly
// once because the monitor returns after resolving, and resolved pairs
// leave the registry.
func (e *Engine) monitorOco(ctx context.Context, pair *domain.OcoPair) {
	ticker := e.clk.Ticker(e.ocoPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tpState, tpErr := e.client.GetOrderStatus(ctx, pair.Symbol, pair.TakeProfit.ExchangeOrderID)
		slState, slErr := e.client.GetOrderStatus(ctx, pair.Symbol, pair.StopLoss.ExchangeOrderID)
		if tpErr != nil || slErr != nil {
			slog.Warn("oco status poll failed", "oco", pair.ID, "tp_err", tpErr, "sl_err", slErr)
			continue
		}

		switch {
		case tpState == exchange.StateFilled:
			e.resolveOco(ctx, pair, "take-profit", &pair.TakeProfit, &pair.StopLoss)
			e.registry.Remove(pair.ID)
			return
		case slState == exchange.StateFilled:
			e.resolveOco(ctx, pair, "stop-loss", &pair.StopLoss, &pair.TakeProfit)
			e.registry.Remove(pair.ID)
			return
		case isCanceledState(tpState) && isCanceledState(slState):
			pair.TakeProfit.Status = domain.OrderCanceled
			pair.StopLoss.Status = domain.OrderCanceled
			pair.Status = domain.OcoResolved
			slog.Info("oco resolved, both legs canceled externally", "oco", pair.ID)
			e.journalEvent(ctx, storage.EventStrategyClosed, pair.ID, pair.Symbol,
				map[string]any{"outcome": "both_canceled"})
			e.registry.Remove(pair.ID)
			return
		}
	}
}

func isCanceledState(st exchange.OrderState) bool {
	return st == exchange.StateCanceled || st == exchange.StateExpired
}

// resolveOco marks the filled leg, best-effort cancels the survivor,
// and settles the pair.
func (e *Engine) resolveOco(ctx context.Context, pair *domain.OcoPair, filledName string, filled, sibling *domain.OrderRecord) {
	filled.Status = domain.OrderFilled
	metrics.FillsObserved.WithLabelValues("oco").Inc()

	if err := e.client.CancelOrder(ctx, pair.Symbol, sibling.ExchangeOrderID); err != nil {
		metrics.BracketCancelFailures.Inc()
		slog.Warn("oco sibling cancel failed",
			"oco", pair.ID, "order", sibling.ExchangeOrderID, "err", err)
	} else {
		sibling.Status = domain.OrderCanceled
	}

	pair.Status = domain.OcoResolved
	slog.Info("oco resolved", "oco", pair.ID, "filled_leg", filledName)
	e.journalEvent(ctx, storage.EventStrategyClosed, pair.ID, pair.Symbol,
		map[string]any{"outcome": filledName + "_filled"})
}
