// Package binance implements the exchange.Client boundary against the
// Binance USDT-M futures REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/infra"
)

const (
	// MainnetURL is the production USDT-M futures endpoint.
	MainnetURL = "https://fapi.binance.com"
	// TestnetURL is the futures testnet endpoint.
	TestnetURL = "https://testnet.binancefuture.com"

	defaultRecvWindow = 5000
	maxAttempts       = 3
)

// Client is the REST implementation of exchange.Client.
type Client struct {
	baseURL    string
	signer     *Signer
	httpc      *http.Client
	recvWindow int
}

// NewClient builds a client from config. Environment-provided keys are
// already folded into cfg by the config loader.
func NewClient(cfg *infra.Config) *Client {
	recv := cfg.Exchange.RecvWindowMS
	if recv <= 0 {
		recv = defaultRecvWindow
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Exchange.RestURL, "/"),
		signer:     NewSigner(cfg.Exchange.APIKey, cfg.Exchange.APISecret),
		httpc:      &http.Client{Timeout: 15 * time.Second},
		recvWindow: recv,
	}
}

var _ exchange.Client = (*Client)(nil)

// Ping verifies REST connectivity.
func (c *Client) Ping(ctx context.Context) error {
	infra.MarketLimiter().Wait()
	_, err := c.do(ctx, http.MethodGet, "/fapi/v1/ping", nil, false)
	return err
}

// GetSymbolFilters fetches exchange metadata and extracts the trading
// constraints for one symbol. Metadata is never cached across calls.
func (c *Client) GetSymbolFilters(ctx context.Context, symbol string) (exchange.SymbolFilters, error) {
	infra.MarketLimiter().Wait()

	body, err := c.do(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false)
	if err != nil {
		return exchange.SymbolFilters{}, err
	}

	var info exchangeInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return exchange.SymbolFilters{}, fmt.Errorf("decode exchangeInfo: %w", err)
	}

	symbol = strings.ToUpper(symbol)
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		out := exchange.SymbolFilters{Symbol: s.Symbol, Status: s.Status}
		for _, f := range s.Filters {
			switch f.FilterType {
			case filterPrice:
				out.TickSize = parseFloat(f.TickSize)
			case filterLotSize:
				out.StepSize = parseFloat(f.StepSize)
				out.MinQty = parseFloat(f.MinQty)
				out.MaxQty = parseFloat(f.MaxQty)
			case filterMinNotional:
				out.MinNotional = parseFloat(f.Notional)
			}
		}
		return out, nil
	}

	return exchange.SymbolFilters{}, fmt.Errorf("%w: %s", exchange.ErrUnknownSymbol, symbol)
}

// GetCurrentPrice returns the latest ticker price for a symbol.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	infra.MarketLimiter().Wait()

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	body, err := c.do(ctx, http.MethodGet, "/fapi/v1/ticker/price?"+params.Encode(), nil, false)
	if err != nil {
		return 0, err
	}

	var tk tickerPriceResponse
	if err := json.Unmarshal(body, &tk); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}
	return parseFloat(tk.Price), nil
}

// SubmitOrder places an order and returns the exchange order ID.
func (c *Client) SubmitOrder(ctx context.Context, intent domain.OrderIntent) (string, error) {
	infra.OrderLimiter().Wait()

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(intent.Symbol))
	params.Set("side", string(intent.Side))
	params.Set("type", string(intent.Kind))
	params.Set("quantity", formatFloat(intent.Quantity))
	if intent.Price > 0 {
		params.Set("price", formatFloat(intent.Price))
	}
	if intent.StopPrice > 0 {
		params.Set("stopPrice", formatFloat(intent.StopPrice))
	}
	if intent.TimeInForce != "" {
		params.Set("timeInForce", string(intent.TimeInForce))
	}
	if intent.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	clientID := intent.ClientOrderID
	if clientID == "" {
		clientID = "bot-" + uuid.NewString()
	}
	params.Set("newClientOrderId", clientID)

	body, err := c.signedRequest(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return "", err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}

	slog.Info("order submitted",
		"symbol", resp.Symbol, "side", resp.Side, "type", resp.Type,
		"qty", resp.OrigQty, "orderId", resp.OrderID, "status", resp.Status)

	return strconv.FormatInt(resp.OrderID, 10), nil
}

// GetOrderStatus returns the exchange-side state of an order.
func (c *Client) GetOrderStatus(ctx context.Context, symbol, orderID string) (exchange.OrderState, error) {
	infra.QueryLimiter().Wait()

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("orderId", orderID)

	body, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v1/order", params)
	if err != nil {
		return "", err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode order status: %w", err)
	}
	return exchange.OrderState(resp.Status), nil
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	infra.OrderLimiter().Wait()

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("orderId", orderID)

	_, err := c.signedRequest(ctx, http.MethodDelete, "/fapi/v1/order", params)
	return err
}

// GetAccountInfo returns the account balance summary.
func (c *Client) GetAccountInfo(ctx context.Context) (exchange.AccountInfo, error) {
	infra.QueryLimiter().Wait()

	body, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v2/account", url.Values{})
	if err != nil {
		return exchange.AccountInfo{}, err
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return exchange.AccountInfo{}, fmt.Errorf("decode account: %w", err)
	}
	return exchange.AccountInfo{
		TotalWalletBalance:    parseFloat(resp.TotalWalletBalance),
		AvailableBalance:      parseFloat(resp.AvailableBalance),
		TotalUnrealizedProfit: parseFloat(resp.TotalUnrealizedProfit),
		UpdateTime:            time.UnixMilli(resp.UpdateTime),
	}, nil
}

// GetOpenPositions returns positions with non-zero size.
func (c *Client) GetOpenPositions(ctx context.Context, symbol string) ([]exchange.Position, error) {
	infra.QueryLimiter().Wait()

	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", strings.ToUpper(symbol))
	}

	body, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", params)
	if err != nil {
		return nil, err
	}

	var raw []positionRisk
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	var out []exchange.Position
	for _, p := range raw {
		amt := parseFloat(p.PositionAmt)
		if amt == 0 {
			continue
		}
		out = append(out, exchange.Position{
			Symbol:           p.Symbol,
			PositionSide:     p.PositionSide,
			PositionAmt:      amt,
			EntryPrice:       parseFloat(p.EntryPrice),
			UnrealizedProfit: parseFloat(p.UnrealizedProfit),
		})
	}
	return out, nil
}

// GetOpenOrders lists resting orders, optionally filtered by symbol.
func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]exchange.OpenOrder, error) {
	infra.QueryLimiter().Wait()

	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", strings.ToUpper(symbol))
	}

	body, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v1/openOrders", params)
	if err != nil {
		return nil, err
	}

	var raw []orderResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode open orders: %w", err)
	}

	out := make([]exchange.OpenOrder, 0, len(raw))
	for _, o := range raw {
		out = append(out, exchange.OpenOrder{
			OrderID: strconv.FormatInt(o.OrderID, 10),
			Symbol:  o.Symbol,
			Side:    o.Side,
			Kind:    o.Type,
			Price:   parseFloat(o.Price),
			OrigQty: parseFloat(o.OrigQty),
			State:   exchange.OrderState(o.Status),
		})
	}
	return out, nil
}

// signedRequest appends timestamp, recvWindow, and signature, then sends.
func (c *Client) signedRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", strconv.Itoa(c.recvWindow))

	query := params.Encode()
	query += "&signature=" + c.signer.Sign(query)

	return c.do(ctx, method, path+"?"+query, nil, true)
}

// do issues one HTTP request with bounded retries on transport and
// server-side failures. Exchange rejections (4xx) are never retried.
func (c *Client) do(ctx context.Context, method, pathAndQuery string, body io.Reader, signed bool) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(infra.CalculateBackoff(attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, body)
		if err != nil {
			return nil, err
		}
		if signed {
			req.Header.Set("X-MBX-APIKEY", c.signer.APIKey())
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			slog.Warn("request failed, retrying", "method", method, "err", err, "attempt", attempt)
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return data, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, data)
			slog.Warn("server error, retrying", "status", resp.StatusCode, "attempt", attempt)
			continue
		default:
			var apiErr apiError
			if json.Unmarshal(data, &apiErr) == nil && apiErr.Msg != "" {
				return nil, &exchange.RejectionError{Code: apiErr.Code, Msg: apiErr.Msg}
			}
			return nil, &exchange.RejectionError{Code: resp.StatusCode, Msg: string(data)}
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
