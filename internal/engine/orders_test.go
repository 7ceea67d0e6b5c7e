package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
)

func TestPlaceMarketOrder(t *testing.T) {
	e, mock := newTestEngine(Config{})

	rec, err := e.PlaceMarketOrder(context.Background(), "BTCUSDT", domain.SideBuy, 0.01)
	if err != nil {
		t.Fatalf("PlaceMarketOrder: %v", err)
	}
	if rec.Status != domain.OrderPlaced || rec.ExchangeOrderID == "" {
		t.Errorf("record = %+v", rec)
	}

	intent := mock.Submitted()[0]
	if intent.Kind != domain.KindMarket || intent.Quantity != 0.01 {
		t.Errorf("intent = %+v", intent)
	}
}

func TestPlaceMarketOrderQuantizesQuantity(t *testing.T) {
	e, mock := newTestEngine(Config{})

	// 0.0123456 rounds to the 0.001 step.
	if _, err := e.PlaceMarketOrder(context.Background(), "BTCUSDT", domain.SideSell, 0.0123456); err != nil {
		t.Fatalf("PlaceMarketOrder: %v", err)
	}
	if got := mock.Submitted()[0].Quantity; got != 0.012 {
		t.Errorf("quantity = %v, want 0.012", got)
	}
}

func TestPlaceLimitOrder(t *testing.T) {
	e, mock := newTestEngine(Config{})

	rec, err := e.PlaceLimitOrder(context.Background(), "BTCUSDT", domain.SideBuy, 0.01, 44444.44, "")
	if err != nil {
		t.Fatalf("PlaceLimitOrder: %v", err)
	}
	if rec.Status != domain.OrderPlaced {
		t.Errorf("status = %s", rec.Status)
	}

	intent := mock.Submitted()[0]
	if intent.Price != 44444.4 {
		t.Errorf("price = %v, want tick-rounded 44444.4", intent.Price)
	}
	if intent.TimeInForce != domain.TifGTC {
		t.Errorf("default tif = %s, want GTC", intent.TimeInForce)
	}
}

func TestPlaceStopLimitOrder(t *testing.T) {
	e, mock := newTestEngine(Config{})

	_, err := e.PlaceStopLimitOrder(context.Background(), "BTCUSDT", domain.SideSell, 0.01, 43000, 42900, true)
	if err != nil {
		t.Fatalf("PlaceStopLimitOrder: %v", err)
	}

	intent := mock.Submitted()[0]
	if intent.Kind != domain.KindStopLimit {
		t.Errorf("kind = %s", intent.Kind)
	}
	if intent.StopPrice != 43000 || intent.Price != 42900 {
		t.Errorf("stop/limit = %v/%v", intent.StopPrice, intent.Price)
	}
	if !intent.ReduceOnly {
		t.Error("reduce-only not set")
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	e, mock := newTestEngine(Config{})

	var verr *domain.ValidationError
	if _, err := e.PlaceMarketOrder(context.Background(), "BTCUSDT", "HOLD", 0.01); !errors.As(err, &verr) {
		t.Errorf("bad side err = %v", err)
	}
	if _, err := e.PlaceMarketOrder(context.Background(), "NOPEUSDT", domain.SideBuy, 0.01); !errors.As(err, &verr) {
		t.Errorf("unknown symbol err = %v", err)
	}
	if _, err := e.PlaceLimitOrder(context.Background(), "BTCUSDT", domain.SideBuy, 0.01, -1, ""); !errors.As(err, &verr) {
		t.Errorf("negative price err = %v", err)
	}
	if _, err := e.PlaceStopLimitOrder(context.Background(), "BTCUSDT", domain.SideBuy, 0.01, 0, 42900, false); !errors.As(err, &verr) {
		t.Errorf("zero stop err = %v", err)
	}
	if len(mock.Submitted()) != 0 {
		t.Errorf("validation failures submitted %d orders", len(mock.Submitted()))
	}
}

func TestPlaceOrderRejectionSurfaced(t *testing.T) {
	e, mock := newTestEngine(Config{})
	mock.SubmitHook = func(domain.OrderIntent) error {
		return &exchange.RejectionError{Code: -2019, Msg: "margin is insufficient"}
	}

	rec, err := e.PlaceMarketOrder(context.Background(), "BTCUSDT", domain.SideBuy, 0.01)
	var rej *exchange.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want RejectionError", err)
	}
	if rec.Status != domain.OrderFailed || rec.LastError == "" {
		t.Errorf("record = %+v", rec)
	}
}
