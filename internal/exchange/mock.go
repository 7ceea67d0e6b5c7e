package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
)

// MockClient is a scriptable in-memory Client for tests. Every call is
// safe for concurrent use; hooks let tests inject failures per call.
type MockClient struct {
	mu sync.Mutex

	Filters map[string]SymbolFilters
	Prices  map[string]float64

	// SubmitHook, when set, may reject an intent before it is recorded.
	SubmitHook func(intent domain.OrderIntent) error
	// CancelHook, when set, may fail a cancellation.
	CancelHook func(symbol, orderID string) error

	nextID     int
	submitted  []domain.OrderIntent
	states     map[string]OrderState
	canceled   []string
	cancelFail int
}

// NewMockClient returns a mock with sane BTCUSDT-style defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Filters: map[string]SymbolFilters{
			"BTCUSDT": {
				Symbol:      "BTCUSDT",
				Status:      SymbolStatusTrading,
				TickSize:    0.10,
				StepSize:    0.001,
				MinQty:      0.001,
				MaxQty:      1000,
				MinNotional: 100,
			},
		},
		Prices: map[string]float64{"BTCUSDT": 45000},
		states: make(map[string]OrderState),
		nextID: 100000,
	}
}

func (m *MockClient) Ping(ctx context.Context) error { return nil }

func (m *MockClient) GetSymbolFilters(ctx context.Context, symbol string) (SymbolFilters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Filters[symbol]
	if !ok {
		return SymbolFilters{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return f, nil
}

func (m *MockClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Prices[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return p, nil
}

func (m *MockClient) SubmitOrder(ctx context.Context, intent domain.OrderIntent) (string, error) {
	m.mu.Lock()
	hook := m.SubmitHook
	m.mu.Unlock()
	if hook != nil {
		if err := hook(intent); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("%d", m.nextID)
	m.submitted = append(m.submitted, intent)
	m.states[id] = StateNew
	return id, nil
}

func (m *MockClient) GetOrderStatus(ctx context.Context, symbol, orderID string) (OrderState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[orderID]
	if !ok {
		return "", fmt.Errorf("order not found: %s", orderID)
	}
	return st, nil
}

func (m *MockClient) CancelOrder(ctx context.Context, symbol, orderID string) error {
	m.mu.Lock()
	hook := m.CancelHook
	m.mu.Unlock()
	if hook != nil {
		if err := hook(symbol, orderID); err != nil {
			m.mu.Lock()
			m.cancelFail++
			m.mu.Unlock()
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[orderID]; ok && st == StateFilled {
		return &RejectionError{Code: -2011, Msg: "order already filled"}
	}
	m.states[orderID] = StateCanceled
	m.canceled = append(m.canceled, orderID)
	return nil
}

func (m *MockClient) GetAccountInfo(ctx context.Context) (AccountInfo, error) {
	return AccountInfo{TotalWalletBalance: 10000, AvailableBalance: 10000}, nil
}

func (m *MockClient) GetOpenPositions(ctx context.Context, symbol string) ([]Position, error) {
	return nil, nil
}

func (m *MockClient) GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []OpenOrder
	for id, st := range m.states {
		if st == StateNew || st == StatePartiallyFilled {
			open = append(open, OpenOrder{OrderID: id, Symbol: symbol, State: st})
		}
	}
	return open, nil
}

// SetOrderState scripts the exchange-side state of an order.
func (m *MockClient) SetOrderState(orderID string, st OrderState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[orderID] = st
}

// Submitted returns a copy of every intent accepted so far.
func (m *MockClient) Submitted() []domain.OrderIntent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderIntent(nil), m.submitted...)
}

// Canceled returns the order IDs canceled so far, in order.
func (m *MockClient) Canceled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.canceled...)
}

// LastOrderID returns the most recently issued exchange order ID.
func (m *MockClient) LastOrderID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("%d", m.nextID)
}
