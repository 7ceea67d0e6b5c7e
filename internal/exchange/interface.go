// Package exchange defines the boundary to the derivatives exchange.
// Strategy engines depend only on the Client interface; the concrete
// REST implementation lives in internal/infra/binance.
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
)

// SymbolStatusTrading is the exchange status of an actively trading symbol.
const SymbolStatusTrading = "TRADING"

// SymbolFilters are the per-symbol trading constraints from exchange metadata.
type SymbolFilters struct {
	Symbol      string
	Status      string
	TickSize    float64
	StepSize    float64
	MinQty      float64
	MaxQty      float64
	MinNotional float64
}

// OrderState is the order status as reported by the exchange.
type OrderState string

const (
	StateNew             OrderState = "NEW"
	StatePartiallyFilled OrderState = "PARTIALLY_FILLED"
	StateFilled          OrderState = "FILLED"
	StateCanceled        OrderState = "CANCELED"
	StateExpired         OrderState = "EXPIRED"
	StateRejected        OrderState = "REJECTED"
)

// AccountInfo is a read-only account summary.
type AccountInfo struct {
	TotalWalletBalance    float64
	AvailableBalance      float64
	TotalUnrealizedProfit float64
	UpdateTime            time.Time
}

// Position is one open futures position.
type Position struct {
	Symbol           string
	PositionSide     string
	PositionAmt      float64
	EntryPrice       float64
	UnrealizedProfit float64
}

// OpenOrder is one resting order, as listed by the exchange.
type OpenOrder struct {
	OrderID  string
	Symbol   string
	Side     string
	Kind     string
	Price    float64
	OrigQty  float64
	State    OrderState
}

// Client is the exchange connectivity boundary. All calls are blocking
// and may fail with a transport error or a *RejectionError.
type Client interface {
	// Ping verifies connectivity. A failure at startup is fatal.
	Ping(ctx context.Context) error

	// GetSymbolFilters returns trading constraints for a symbol. It
	// returns ErrUnknownSymbol if the exchange does not list it.
	GetSymbolFilters(ctx context.Context, symbol string) (SymbolFilters, error)

	// GetCurrentPrice returns the latest ticker price.
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)

	// SubmitOrder places an order and returns the exchange order ID.
	SubmitOrder(ctx context.Context, intent domain.OrderIntent) (string, error)

	// GetOrderStatus returns the exchange-side state of an order.
	GetOrderStatus(ctx context.Context, symbol, orderID string) (OrderState, error)

	// CancelOrder cancels a resting order. Canceling an order that has
	// already filled or been canceled fails with a *RejectionError.
	CancelOrder(ctx context.Context, symbol, orderID string) error

	// Read-only status reporting. Not used by strategy logic.
	GetAccountInfo(ctx context.Context) (AccountInfo, error)
	GetOpenPositions(ctx context.Context, symbol string) ([]Position, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error)
}

// ErrUnknownSymbol reports a symbol the exchange does not list.
var ErrUnknownSymbol = fmt.Errorf("unknown symbol")

// RejectionError is an order the exchange refused (filters, balance,
// rate limit). It is caught per order and never aborts sibling
// independent operations.
type RejectionError struct {
	Code int
	Msg  string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("exchange rejection %d: %s", e.Code, e.Msg)
}
