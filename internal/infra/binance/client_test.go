package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/infra"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := infra.DefaultConfig()
	cfg.Exchange.RestURL = srv.URL
	cfg.Exchange.APIKey = "test-key"
	cfg.Exchange.APISecret = "test-secret"
	return NewClient(cfg)
}

func TestGetSymbolFiltersParsing(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/exchangeInfo" {
			t.Errorf("path = %s, want /fapi/v1/exchangeInfo", r.URL.Path)
		}
		w.Write([]byte(`{"symbols":[{"symbol":"BTCUSDT","status":"TRADING","filters":[
			{"filterType":"PRICE_FILTER","tickSize":"0.10"},
			{"filterType":"LOT_SIZE","stepSize":"0.001","minQty":"0.001","maxQty":"1000"},
			{"filterType":"MIN_NOTIONAL","notional":"100"}]}]}`))
	}))

	f, err := c.GetSymbolFilters(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("GetSymbolFilters: %v", err)
	}
	if f.Status != exchange.SymbolStatusTrading {
		t.Errorf("Status = %s, want TRADING", f.Status)
	}
	if f.TickSize != 0.10 || f.StepSize != 0.001 {
		t.Errorf("tick/step = %v/%v, want 0.10/0.001", f.TickSize, f.StepSize)
	}
	if f.MinQty != 0.001 || f.MaxQty != 1000 || f.MinNotional != 100 {
		t.Errorf("qty bounds = %v/%v/%v", f.MinQty, f.MaxQty, f.MinNotional)
	}
}

func TestGetSymbolFiltersUnknownSymbol(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":[]}`))
	}))

	_, err := c.GetSymbolFilters(context.Background(), "NOPEUSDT")
	if !errors.Is(err, exchange.ErrUnknownSymbol) {
		t.Errorf("err = %v, want ErrUnknownSymbol", err)
	}
}

func TestGetCurrentPrice(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol param = %s", got)
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"45123.40"}`))
	}))

	p, err := c.GetCurrentPrice(context.Background(), "btcusdt")
	if err != nil {
		t.Fatalf("GetCurrentPrice: %v", err)
	}
	if p != 45123.40 {
		t.Errorf("price = %v, want 45123.40", p)
	}
}

func TestSubmitOrderParamsAndSignature(t *testing.T) {
	var seen map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		seen = map[string]string{
			"symbol":      q.Get("symbol"),
			"side":        q.Get("side"),
			"type":        q.Get("type"),
			"quantity":    q.Get("quantity"),
			"price":       q.Get("price"),
			"timeInForce": q.Get("timeInForce"),
			"reduceOnly":  q.Get("reduceOnly"),
			"signature":   q.Get("signature"),
			"timestamp":   q.Get("timestamp"),
			"apikey":      r.Header.Get("X-MBX-APIKEY"),
		}
		w.Write([]byte(`{"orderId":123456,"symbol":"BTCUSDT","status":"NEW","side":"SELL","type":"LIMIT","origQty":"0.010"}`))
	}))

	id, err := c.SubmitOrder(context.Background(), domain.OrderIntent{
		Symbol:      "BTCUSDT",
		Side:        domain.SideSell,
		Kind:        domain.KindLimit,
		Quantity:    0.01,
		Price:       46000.5,
		TimeInForce: domain.TifGTC,
		ReduceOnly:  true,
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if id != "123456" {
		t.Errorf("order id = %s, want 123456", id)
	}

	want := map[string]string{
		"symbol": "BTCUSDT", "side": "SELL", "type": "LIMIT",
		"quantity": "0.01", "price": "46000.5",
		"timeInForce": "GTC", "reduceOnly": "true",
		"apikey": "test-key",
	}
	for k, v := range want {
		if seen[k] != v {
			t.Errorf("%s = %q, want %q", k, seen[k], v)
		}
	}
	if seen["signature"] == "" || seen["timestamp"] == "" {
		t.Error("signed request missing signature or timestamp")
	}
}

func TestSubmitOrderRejection(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2010,"msg":"Order would immediately trigger."}`))
	}))

	_, err := c.SubmitOrder(context.Background(), domain.OrderIntent{
		Symbol: "BTCUSDT", Side: domain.SideBuy, Kind: domain.KindMarket, Quantity: 0.01,
	})

	var rej *exchange.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want RejectionError", err)
	}
	if rej.Code != -2010 {
		t.Errorf("code = %d, want -2010", rej.Code)
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	calls := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
