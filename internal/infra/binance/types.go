package binance

// Wire types for the Binance USDT-M futures REST API. Numeric fields
// arrive as strings and are parsed at the boundary.

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type exchangeInfoResponse struct {
	Symbols []symbolInfo `json:"symbols"`
}

type symbolInfo struct {
	Symbol  string         `json:"symbol"`
	Status  string         `json:"status"`
	Filters []symbolFilter `json:"filters"`
}

type symbolFilter struct {
	FilterType string `json:"filterType"`
	TickSize   string `json:"tickSize"`
	StepSize   string `json:"stepSize"`
	MinQty     string `json:"minQty"`
	MaxQty     string `json:"maxQty"`
	Notional   string `json:"notional"`
}

const (
	filterPrice       = "PRICE_FILTER"
	filterLotSize     = "LOT_SIZE"
	filterMinNotional = "MIN_NOTIONAL"
)

type tickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type orderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	Price         string `json:"price"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	AvgPrice      string `json:"avgPrice"`
	Side          string `json:"side"`
	Type          string `json:"type"`
}

type accountResponse struct {
	TotalWalletBalance    string `json:"totalWalletBalance"`
	AvailableBalance      string `json:"availableBalance"`
	TotalUnrealizedProfit string `json:"totalUnrealizedProfit"`
	UpdateTime            int64  `json:"updateTime"`
}

type positionRisk struct {
	Symbol           string `json:"symbol"`
	PositionSide     string `json:"positionSide"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	UnrealizedProfit string `json:"unRealizedProfit"`
}

type markPriceEvent struct {
	Symbol    string `json:"s"`
	MarkPrice string `json:"p"`
	EventTime int64  `json:"E"`
}
