package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
)

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestBuildLevelsProperties(t *testing.T) {
	filters := exchange.SymbolFilters{TickSize: 0.10, StepSize: 0.001}

	tests := []struct {
		name      string
		low, high float64
		count     int
		ref       float64
	}{
		{"reference mid-range", 40000, 50000, 10, 45000},
		{"reference near low", 40000, 50000, 8, 40500},
		{"reference near high", 40000, 50000, 8, 49500},
		{"two levels", 100, 200, 2, 150},
		{"many levels", 1000, 2000, 50, 1437},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			levels := buildLevels(tt.low, tt.high, tt.count, 0.001, tt.ref, filters)
			if len(levels) != tt.count {
				t.Fatalf("levels = %d, want %d", len(levels), tt.count)
			}

			spacing := (tt.high - tt.low) / float64(tt.count-1)
			skipped := 0
			for i, lv := range levels {
				if lv.Index != i+1 {
					t.Errorf("level %d index = %d", i, lv.Index)
				}
				if i > 0 && lv.Price <= levels[i-1].Price {
					t.Errorf("prices not strictly increasing at %d: %v <= %v", i, lv.Price, levels[i-1].Price)
				}
				raw := tt.low + float64(i)*spacing
				if math.Abs(lv.Price-raw) > filters.TickSize {
					t.Errorf("level %d price %v too far from raw %v", i, lv.Price, raw)
				}

				if lv.Order.Status == domain.OrderSkipped {
					skipped++
					continue
				}
				if raw < tt.ref && lv.Side != domain.SideBuy {
					t.Errorf("level %d below reference classified %s", i, lv.Side)
				}
				if raw > tt.ref && lv.Side != domain.SideSell {
					t.Errorf("level %d above reference classified %s", i, lv.Side)
				}
			}
			if skipped > 1 {
				t.Errorf("skipped %d levels, want at most 1", skipped)
			}
		})
	}
}

func TestCreateGridScenario(t *testing.T) {
	e, mock := newTestEngine(Config{})

	g, err := e.CreateGrid(context.Background(), GridParams{
		Symbol: "BTCUSDT", Low: 40000, High: 50000, Levels: 10, QuantityPerLevel: 0.001,
	})
	if err != nil {
		t.Fatalf("CreateGrid: %v", err)
	}

	if math.Abs(g.Spacing-1111.111111111111) > 1e-6 {
		t.Errorf("spacing = %v, want 1111.11", g.Spacing)
	}
	buys, sells, failed := g.PlacementCounts()
	if buys != 5 || sells != 4 || failed != 0 {
		t.Errorf("placement = %d buys, %d sells, %d failed; want 5/4/0", buys, sells, failed)
	}
	if got := len(mock.Submitted()); got != 9 {
		t.Errorf("orders submitted = %d, want 9", got)
	}
	for _, intent := range mock.Submitted() {
		if intent.Kind != domain.KindLimit || intent.TimeInForce != domain.TifGTC {
			t.Errorf("grid order not a GTC limit: %+v", intent)
		}
	}

	if _, ok := e.Registry().Grid(g.ID); !ok {
		t.Error("grid not registered after creation")
	}
	e.Registry().Remove(g.ID)
}

func TestCreateGridValidation(t *testing.T) {
	e, mock := newTestEngine(Config{})
	mock.Prices["BTCUSDT"] = 60000 // outside every test range

	tests := []struct {
		name string
		p    GridParams
	}{
		{"low above high", GridParams{Symbol: "BTCUSDT", Low: 50000, High: 40000, Levels: 10, QuantityPerLevel: 0.001}},
		{"one level", GridParams{Symbol: "BTCUSDT", Low: 40000, High: 50000, Levels: 1, QuantityPerLevel: 0.001}},
		{"unknown symbol", GridParams{Symbol: "NOPEUSDT", Low: 40000, High: 50000, Levels: 10, QuantityPerLevel: 0.001}},
		{"price outside range", GridParams{Symbol: "BTCUSDT", Low: 40000, High: 50000, Levels: 10, QuantityPerLevel: 0.001}},
		{"quantity below minimum", GridParams{Symbol: "BTCUSDT", Low: 40000, High: 50000, Levels: 10, QuantityPerLevel: 0.0001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateGrid(context.Background(), tt.p)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}

	if len(mock.Submitted()) != 0 {
		t.Errorf("validation failures submitted %d orders", len(mock.Submitted()))
	}
}

func TestCreateGridPartialFailure(t *testing.T) {
	e, mock := newTestEngine(Config{})
	mock.SubmitHook = func(intent domain.OrderIntent) error {
		if intent.Price > 47000 {
			return &exchange.RejectionError{Code: -2010, Msg: "margin is insufficient"}
		}
		return nil
	}

	g, err := e.CreateGrid(context.Background(), GridParams{
		Symbol: "BTCUSDT", Low: 40000, High: 50000, Levels: 10, QuantityPerLevel: 0.001,
	})
	if err != nil {
		t.Fatalf("CreateGrid: %v", err)
	}

	// Levels 8..10 (47777.8, 48888.9, 50000) are rejected by the hook.
	buys, sells, failed := g.PlacementCounts()
	if buys != 5 || sells != 1 || failed != 3 {
		t.Errorf("placement = %d/%d/%d, want 5 buys, 1 sell, 3 failed", buys, sells, failed)
	}
	for _, lv := range g.Levels {
		if lv.Order.Status == domain.OrderFailed && lv.Order.LastError == "" {
			t.Errorf("failed level %d has no error recorded", lv.Index)
		}
	}
	e.Registry().Remove(g.ID)
}

func TestGridMonitorRecordsFills(t *testing.T) {
	mclk := clock.NewMock()
	e, mock := newTestEngine(Config{Clock: mclk, GridPollInterval: 60 * time.Second})

	g, err := e.CreateGrid(context.Background(), GridParams{
		Symbol: "BTCUSDT", Low: 40000, High: 50000, Levels: 4, QuantityPerLevel: 0.001,
	})
	if err != nil {
		t.Fatalf("CreateGrid: %v", err)
	}

	// Fill the first resting level on the exchange side.
	snap, _ := e.Registry().Grid(g.ID)
	var filledID string
	for _, lv := range snap.Levels {
		if lv.Order.Status == domain.OrderPlaced {
			filledID = lv.Order.ExchangeOrderID
			break
		}
	}
	if filledID == "" {
		t.Fatal("no placed level to fill")
	}
	mock.SetOrderState(filledID, exchange.StateFilled)

	eventually(t, func() bool {
		mclk.Add(60 * time.Second)
		cur, ok := e.Registry().Grid(g.ID)
		return ok && len(cur.ExecutedTrades) == 1
	}, "fill never recorded by the monitor")

	cur, _ := e.Registry().Grid(g.ID)
	if cur.ExecutedTrades[0].Quantity != 0.001 {
		t.Errorf("executed trade = %+v", cur.ExecutedTrades[0])
	}
	found := false
	for _, lv := range cur.Levels {
		if lv.Order.ExchangeOrderID == filledID {
			found = true
			if lv.Order.Status != domain.OrderFilled {
				t.Errorf("filled level status = %s", lv.Order.Status)
			}
		}
	}
	if !found {
		t.Error("filled level missing from snapshot")
	}
	e.Registry().Remove(g.ID)
}

func TestStopGrid(t *testing.T) {
	e, mock := newTestEngine(Config{})

	g, err := e.CreateGrid(context.Background(), GridParams{
		Symbol: "BTCUSDT", Low: 40000, High: 50000, Levels: 6, QuantityPerLevel: 0.001,
	})
	if err != nil {
		t.Fatalf("CreateGrid: %v", err)
	}
	placed := len(mock.Submitted())

	canceled, failed, err := e.StopGrid(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("StopGrid: %v", err)
	}
	if canceled != placed || failed != 0 {
		t.Errorf("canceled/failed = %d/%d, want %d/0", canceled, failed, placed)
	}
	if _, ok := e.Registry().Grid(g.ID); ok {
		t.Error("grid still registered after stop")
	}
	if got := len(mock.Canceled()); got != placed {
		t.Errorf("exchange cancels = %d, want %d", got, placed)
	}

	if _, _, err := e.StopGrid(context.Background(), "grid_unknown"); err == nil {
		t.Error("StopGrid accepted unknown id")
	}
}
