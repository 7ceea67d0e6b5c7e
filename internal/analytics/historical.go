// Package analytics derives strategy parameters from historical trade
// executions and market-sentiment data.
package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// TradeRecord is one row of a trade-execution export.
type TradeRecord struct {
	Coin           string
	ExecutionPrice float64
	SizeUSD        float64
	Side           string
	ClosedPnL      float64
	hasPnL         bool
}

// PatternAnalysis summarizes execution behavior for one symbol.
type PatternAnalysis struct {
	Symbol       string
	TradeCount   int
	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	// VolatilityPct is the price standard deviation as a percentage
	// of the mean.
	VolatilityPct float64
	// TwapIntervals are the recommended TWAP durations in minutes.
	TwapIntervals  [3]int
	TwapNote       string
	SideCounts     map[string]int
	WinRatePct     float64
	ProfitableGain float64 // average winning PnL
	LosingLoss     float64 // average losing PnL (negative)
	TotalPnL       float64
}

// GridRange is a suggested grid band derived from recent executions.
type GridRange struct {
	SuggestedLow    float64
	SuggestedHigh   float64
	AveragePrice    float64
	RecentLow       float64
	RecentHigh      float64
	PriceStd        float64
	ConfidenceLevel float64
}

// minGridRows is the smallest sample the grid-range estimate accepts.
const minGridRows = 100

// confidenceMultipliers maps a confidence level to its one-sided
// normal quantile.
var confidenceMultipliers = map[float64]float64{
	0.80: 1.28,
	0.90: 1.64,
	0.95: 1.96,
}

// LoadTradeCSV reads an execution export. Expected columns include
// Coin, Execution Price, Size USD, Side, and optionally Closed PnL;
// rows with an unparseable price are dropped.
func LoadTradeCSV(path string) ([]TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade csv: %w", err)
	}
	defer f.Close()
	return parseTradeCSV(f)
}

func parseTradeCSV(r io.Reader) ([]TradeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	priceIdx, ok := col["execution price"]
	if !ok {
		return nil, fmt.Errorf("csv has no Execution Price column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []TradeRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		price, perr := strconv.ParseFloat(field(row, "execution price"), 64)
		if perr != nil || priceIdx >= len(row) {
			continue
		}

		rec := TradeRecord{
			Coin:           field(row, "coin"),
			ExecutionPrice: price,
			Side:           field(row, "side"),
		}
		if v, err := strconv.ParseFloat(field(row, "size usd"), 64); err == nil {
			rec.SizeUSD = v
		}
		if v, err := strconv.ParseFloat(field(row, "closed pnl"), 64); err == nil {
			rec.ClosedPnL = v
			rec.hasPnL = true
		}
		out = append(out, rec)
	}
	return out, nil
}

// filterCoin keeps records whose coin contains symbol (case folded).
// An empty match falls back to the whole set, mirroring exports where
// the coin column uses a different alias.
func filterCoin(records []TradeRecord, symbol string) []TradeRecord {
	needle := strings.ToLower(symbol)
	var out []TradeRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Coin), needle) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return records
	}
	return out
}

// AnalyzePatterns computes price, side, and PnL statistics for a
// symbol, plus TWAP interval recommendations keyed to volatility.
func AnalyzePatterns(records []TradeRecord, symbol string) (PatternAnalysis, error) {
	rows := filterCoin(records, symbol)
	if len(rows) == 0 {
		return PatternAnalysis{}, fmt.Errorf("no trades to analyze for %s", symbol)
	}

	a := PatternAnalysis{
		Symbol:     symbol,
		TradeCount: len(rows),
		SideCounts: make(map[string]int),
		MinPrice:   math.Inf(1),
		MaxPrice:   math.Inf(-1),
	}

	prices := make([]float64, 0, len(rows))
	var wins, losses int
	var winSum, lossSum float64
	pnlRows := 0
	for _, r := range rows {
		prices = append(prices, r.ExecutionPrice)
		a.MinPrice = math.Min(a.MinPrice, r.ExecutionPrice)
		a.MaxPrice = math.Max(a.MaxPrice, r.ExecutionPrice)
		if r.Side != "" {
			a.SideCounts[r.Side]++
		}
		if r.hasPnL {
			pnlRows++
			a.TotalPnL += r.ClosedPnL
			switch {
			case r.ClosedPnL > 0:
				wins++
				winSum += r.ClosedPnL
			case r.ClosedPnL < 0:
				losses++
				lossSum += r.ClosedPnL
			}
		}
	}

	a.AveragePrice = mean(prices)
	std := sampleStd(prices, a.AveragePrice)
	if a.AveragePrice > 0 {
		a.VolatilityPct = std / a.AveragePrice * 100
	}

	switch {
	case a.VolatilityPct < 2:
		a.TwapIntervals = [3]int{5, 10, 15}
		a.TwapNote = "low volatility, shorter intervals"
	case a.VolatilityPct < 5:
		a.TwapIntervals = [3]int{10, 15, 30}
		a.TwapNote = "medium volatility, standard intervals"
	default:
		a.TwapIntervals = [3]int{30, 45, 60}
		a.TwapNote = "high volatility, longer intervals"
	}

	if pnlRows > 0 {
		a.WinRatePct = float64(wins) / float64(pnlRows) * 100
	}
	if wins > 0 {
		a.ProfitableGain = winSum / float64(wins)
	}
	if losses > 0 {
		a.LosingLoss = lossSum / float64(losses)
	}
	return a, nil
}

// OptimalGridRange suggests a grid band from the most recent 25% of a
// symbol's executions, expanded by a confidence-scaled slice of the
// standard deviation and widened to at least 5% of the average price.
// It needs more than minGridRows price rows.
func OptimalGridRange(records []TradeRecord, symbol string, confidence float64) (GridRange, error) {
	mult, ok := confidenceMultipliers[confidence]
	if !ok {
		return GridRange{}, fmt.Errorf("unsupported confidence level %v (want 0.80, 0.90, or 0.95)", confidence)
	}

	rows := filterCoin(records, symbol)
	if len(rows) <= minGridRows {
		return GridRange{}, fmt.Errorf("insufficient data for %s: %d rows, need more than %d", symbol, len(rows), minGridRows)
	}

	recent := rows[len(rows)-len(rows)/4:]
	prices := make([]float64, len(recent))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, r := range recent {
		prices[i] = r.ExecutionPrice
		lo = math.Min(lo, r.ExecutionPrice)
		hi = math.Max(hi, r.ExecutionPrice)
	}

	avg := mean(prices)
	std := sampleStd(prices, avg)
	expansion := std * mult * 0.1

	g := GridRange{
		SuggestedLow:    lo - expansion,
		SuggestedHigh:   hi + expansion,
		AveragePrice:    avg,
		RecentLow:       lo,
		RecentHigh:      hi,
		PriceStd:        std,
		ConfidenceLevel: confidence,
	}

	if minRange := avg * 0.05; g.SuggestedHigh-g.SuggestedLow < minRange {
		g.SuggestedLow = avg - minRange/2
		g.SuggestedHigh = avg + minRange/2
	}
	return g, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation, matching the estimator the
// exports were analyzed with.
func sampleStd(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
