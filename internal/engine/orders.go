package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/metrics"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/pkg/quant"
)

// limitPriceWarnRatio flags limit prices more than 10% away from the
// current market price. The order still goes through.
const limitPriceWarnRatio = 0.10

// PlaceMarketOrder submits a one-shot market order.
func (e *Engine) PlaceMarketOrder(ctx context.Context, symbol string, side domain.Side, qty float64) (domain.OrderRecord, error) {
	if !side.Valid() {
		return domain.OrderRecord{}, domain.Invalid("side", "%s is not BUY or SELL", side)
	}
	filters, err := e.ValidateSymbol(ctx, symbol)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	qty = quant.RoundToStep(qty, filters.StepSize)
	if err := ValidateQuantity(qty, filters); err != nil {
		return domain.OrderRecord{}, err
	}

	return e.submit(ctx, "", domain.OrderIntent{
		Symbol:   symbol,
		Side:     side,
		Kind:     domain.KindMarket,
		Quantity: qty,
	})
}

// PlaceLimitOrder submits a one-shot limit order. A price more than
// 10% away from the market is logged as a warning, not rejected.
func (e *Engine) PlaceLimitOrder(ctx context.Context, symbol string, side domain.Side, qty, price float64, tif domain.TimeInForce) (domain.OrderRecord, error) {
	if !side.Valid() {
		return domain.OrderRecord{}, domain.Invalid("side", "%s is not BUY or SELL", side)
	}
	if price <= 0 {
		return domain.OrderRecord{}, domain.Invalid("price", "must be positive, got %v", price)
	}
	if tif == "" {
		tif = domain.TifGTC
	}
	filters, err := e.ValidateSymbol(ctx, symbol)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	qty = quant.RoundToStep(qty, filters.StepSize)
	price = quant.RoundToTick(price, filters.TickSize)
	if err := ValidateQuantity(qty, filters); err != nil {
		return domain.OrderRecord{}, err
	}

	if current, perr := e.client.GetCurrentPrice(ctx, symbol); perr == nil && current > 0 {
		if math.Abs(price-current)/current > limitPriceWarnRatio {
			slog.Warn("limit price far from market",
				"symbol", symbol, "price", price, "market", current)
		}
	}

	return e.submit(ctx, "", domain.OrderIntent{
		Symbol:      symbol,
		Side:        side,
		Kind:        domain.KindLimit,
		Quantity:    qty,
		Price:       price,
		TimeInForce: tif,
	})
}

// PlaceStopLimitOrder submits a stop-limit order. A stop on the wrong
// side of the current price would trigger immediately; that is logged
// as a warning and left to the exchange to accept or reject.
func (e *Engine) PlaceStopLimitOrder(ctx context.Context, symbol string, side domain.Side, qty, stopPrice, limitPrice float64, reduceOnly bool) (domain.OrderRecord, error) {
	if !side.Valid() {
		return domain.OrderRecord{}, domain.Invalid("side", "%s is not BUY or SELL", side)
	}
	if stopPrice <= 0 || limitPrice <= 0 {
		return domain.OrderRecord{}, domain.Invalid("price", "stop %v and limit %v must be positive", stopPrice, limitPrice)
	}
	filters, err := e.ValidateSymbol(ctx, symbol)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	qty = quant.RoundToStep(qty, filters.StepSize)
	stopPrice = quant.RoundToTick(stopPrice, filters.TickSize)
	limitPrice = quant.RoundToTick(limitPrice, filters.TickSize)
	if err := ValidateQuantity(qty, filters); err != nil {
		return domain.OrderRecord{}, err
	}

	if current, perr := e.client.GetCurrentPrice(ctx, symbol); perr == nil && current > 0 {
		triggered := (side == domain.SideBuy && stopPrice <= current) ||
			(side == domain.SideSell && stopPrice >= current)
		if triggered {
			slog.Warn("stop price would trigger immediately",
				"symbol", symbol, "side", side, "stop", stopPrice, "market", current)
		}
	}

	return e.submit(ctx, "", domain.OrderIntent{
		Symbol:      symbol,
		Side:        side,
		Kind:        domain.KindStopLimit,
		Quantity:    qty,
		Price:       limitPrice,
		StopPrice:   stopPrice,
		TimeInForce: domain.TifGTC,
		ReduceOnly:  reduceOnly,
	})
}

// submit places one intent, building the OrderRecord from the outcome.
// Failures are returned with the record so callers can report the
// intent that failed; metrics and the journal see every attempt.
func (e *Engine) submit(ctx context.Context, strategyID string, intent domain.OrderIntent) (domain.OrderRecord, error) {
	rec := domain.OrderRecord{Intent: intent, Status: domain.OrderPending}

	orderID, err := e.client.SubmitOrder(ctx, intent)
	if err != nil {
		rec.Status = domain.OrderFailed
		rec.LastError = err.Error()
		metrics.OrdersFailed.WithLabelValues(string(intent.Kind)).Inc()
		e.journalOrder(ctx, strategyID, rec)
		return rec, err
	}

	rec.ExchangeOrderID = orderID
	rec.Status = domain.OrderPlaced
	metrics.OrdersSubmitted.WithLabelValues(string(intent.Kind)).Inc()
	e.journalOrder(ctx, strategyID, rec)
	return rec, nil
}
