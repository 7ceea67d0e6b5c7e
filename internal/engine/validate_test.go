package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
)

func newTestEngine(cfg Config) (*Engine, *exchange.MockClient) {
	mock := exchange.NewMockClient()
	return New(mock, NewRegistry(), cfg), mock
}

func TestValidateSymbol(t *testing.T) {
	e, mock := newTestEngine(Config{})
	ctx := context.Background()

	if _, err := e.ValidateSymbol(ctx, "BTCUSDT"); err != nil {
		t.Errorf("trading symbol rejected: %v", err)
	}

	var verr *domain.ValidationError
	if _, err := e.ValidateSymbol(ctx, "NOPEUSDT"); !errors.As(err, &verr) {
		t.Errorf("unknown symbol err = %v, want ValidationError", err)
	}

	mock.Filters["HALTUSDT"] = exchange.SymbolFilters{Symbol: "HALTUSDT", Status: "BREAK"}
	if _, err := e.ValidateSymbol(ctx, "HALTUSDT"); !errors.As(err, &verr) {
		t.Errorf("suspended symbol err = %v, want ValidationError", err)
	}
}

func TestValidateQuantity(t *testing.T) {
	filters := exchange.SymbolFilters{
		MinQty: 0.001, MaxQty: 1000, StepSize: 0.001,
	}

	tests := []struct {
		name    string
		qty     float64
		wantErr bool
	}{
		{"at minimum", 0.001, false},
		{"aligned", 0.010, false},
		{"at maximum", 1000, false},
		{"below minimum", 0.0005, true},
		{"above maximum", 1000.001, true},
		{"misaligned", 0.0015, true},
		{"float noise tolerated", 0.1 + 0.2, false}, // 0.30000000000000004
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuantity(tt.qty, filters)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateQuantity(%v) err = %v, wantErr %v", tt.qty, err, tt.wantErr)
			}
			if err != nil {
				var verr *domain.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("err type = %T, want ValidationError", err)
				}
			}
		})
	}
}
