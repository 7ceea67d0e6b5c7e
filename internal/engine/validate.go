package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/pkg/quant"
)

// Conservative fallback when exchange metadata is unreachable. These
// match BTCUSDT's filters; a strategy never fails on a metadata outage.
func defaultFilters(symbol string) exchange.SymbolFilters {
	return exchange.SymbolFilters{
		Symbol:      symbol,
		Status:      exchange.SymbolStatusTrading,
		TickSize:    0.10,
		StepSize:    0.001,
		MinQty:      0.001,
		MaxQty:      1000,
		MinNotional: 100,
	}
}

// ValidateSymbol fetches exchange metadata fresh (never cached) and
// checks the symbol exists and is actively trading. An unknown or
// suspended symbol is a ValidationError; a metadata outage falls back
// to conservative default filters with a warning.
func (e *Engine) ValidateSymbol(ctx context.Context, symbol string) (exchange.SymbolFilters, error) {
	filters, err := e.client.GetSymbolFilters(ctx, symbol)
	if err != nil {
		if errors.Is(err, exchange.ErrUnknownSymbol) {
			return exchange.SymbolFilters{}, domain.Invalid("symbol", "%s is not listed on the exchange", symbol)
		}
		slog.Warn("symbol metadata unavailable, using fallback filters", "symbol", symbol, "err", err)
		return defaultFilters(symbol), nil
	}
	if filters.Status != exchange.SymbolStatusTrading {
		return exchange.SymbolFilters{}, domain.Invalid("symbol", "%s is not trading (status %s)", symbol, filters.Status)
	}
	return filters, nil
}

// ValidateQuantity checks a quantity against the symbol's lot filters:
// it must lie in [minQty, maxQty] and align to the step size measured
// from minQty. Pure precondition; no state is touched.
func ValidateQuantity(qty float64, filters exchange.SymbolFilters) error {
	if qty < filters.MinQty || qty > filters.MaxQty {
		return domain.Invalid("quantity", "%v outside [%v, %v]", qty, filters.MinQty, filters.MaxQty)
	}
	if !quant.AlignedToStep(qty, filters.MinQty, filters.StepSize) {
		return domain.Invalid("quantity", "%v not aligned to step %v", qty, filters.StepSize)
	}
	return nil
}
