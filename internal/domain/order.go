package domain

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is BUY or SELL.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderKind is the exchange order type.
type OrderKind string

const (
	KindLimit      OrderKind = "LIMIT"
	KindMarket     OrderKind = "MARKET"
	KindStopMarket OrderKind = "STOP_MARKET"
	// KindStopLimit triggers at StopPrice and rests at Price.
	KindStopLimit OrderKind = "STOP"
)

// TimeInForce controls how long a resting order stays on the book.
type TimeInForce string

const (
	TifGTC TimeInForce = "GTC"
	TifIOC TimeInForce = "IOC"
	TifFOK TimeInForce = "FOK"
)

// OrderStatus is the lifecycle of an order as tracked by this bot.
type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderPlaced   OrderStatus = "PLACED"
	OrderFilled   OrderStatus = "FILLED"
	OrderCanceled OrderStatus = "CANCELED"
	OrderFailed   OrderStatus = "FAILED"
	// OrderSkipped marks a grid level deliberately left unplaced
	// because its price falls at the reference price.
	OrderSkipped OrderStatus = "SKIPPED"
)

// OrderIntent describes a single order to submit. Immutable once submitted.
type OrderIntent struct {
	Symbol        string
	Side          Side
	Kind          OrderKind
	Quantity      float64
	Price         float64 // limit price, 0 for market orders
	StopPrice     float64 // trigger price for stop kinds
	TimeInForce   TimeInForce
	ReduceOnly    bool
	ClientOrderID string
}

// OrderRecord tracks an intent through its lifecycle. Status is the only
// mutable field and is updated only by the owning monitor goroutine.
type OrderRecord struct {
	Intent          OrderIntent
	ExchangeOrderID string
	Status          OrderStatus
	LastError       string
}
