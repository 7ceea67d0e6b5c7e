package domain

import "time"

// GridStatus is the lifecycle of a grid strategy.
type GridStatus string

const (
	GridActive  GridStatus = "ACTIVE"
	GridStopped GridStatus = "STOPPED"
)

// GridLevel is one rung of the ladder. Index is 1-based, ascending by price.
type GridLevel struct {
	Index    int
	Price    float64 // quantized to tick size
	Quantity float64
	Side     Side
	Order    OrderRecord
}

// ExecutedTrade is an observed fill on a grid level. Append-only.
type ExecutedTrade struct {
	Side     Side
	Price    float64
	Quantity float64
	At       time.Time
}

// GridStrategy holds the full state of one grid. After creation it is
// mutated only by its monitor goroutine; readers get published snapshots.
type GridStrategy struct {
	ID               string
	Symbol           string
	LowPrice         float64
	HighPrice        float64
	LevelCount       int
	QuantityPerLevel float64
	Spacing          float64
	ReferencePrice   float64 // price at creation, not re-checked later
	Levels           []GridLevel
	ExecutedTrades   []ExecutedTrade
	CreatedAt        time.Time
	Status           GridStatus
}

// Clone returns a deep copy for atomic snapshot publishing.
func (g *GridStrategy) Clone() *GridStrategy {
	cp := *g
	cp.Levels = append([]GridLevel(nil), g.Levels...)
	cp.ExecutedTrades = append([]ExecutedTrade(nil), g.ExecutedTrades...)
	return &cp
}

// PlacementCounts reports how many levels landed in each terminal
// placement state. Partial successes are always reported as counts.
func (g *GridStrategy) PlacementCounts() (buys, sells, failed int) {
	for _, lv := range g.Levels {
		switch {
		case lv.Order.Status == OrderSkipped:
		case lv.Order.Status == OrderFailed:
			failed++
		case lv.Side == SideBuy:
			buys++
		default:
			sells++
		}
	}
	return buys, sells, failed
}
