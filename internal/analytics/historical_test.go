package analytics

import (
	"math"
	"strings"
	"testing"
)

func tradeCSV(rows []string) string {
	return "Coin,Execution Price,Size USD,Side,Closed PnL\n" + strings.Join(rows, "\n") + "\n"
}

func TestParseTradeCSV(t *testing.T) {
	csv := tradeCSV([]string{
		"BTC,45000.5,100,BUY,12.5",
		"BTC,45100.0,200,SELL,-3.2",
		"ETH,3000,50,BUY,0",
		"BTC,not-a-price,10,BUY,1", // dropped
	})

	records, err := parseTradeCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parseTradeCSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].ExecutionPrice != 45000.5 || records[0].Side != "BUY" || records[0].ClosedPnL != 12.5 {
		t.Errorf("first record = %+v", records[0])
	}
}

func TestParseTradeCSVMissingPriceColumn(t *testing.T) {
	_, err := parseTradeCSV(strings.NewReader("Coin,Side\nBTC,BUY\n"))
	if err == nil {
		t.Fatal("accepted csv without Execution Price")
	}
}

func TestAnalyzePatterns(t *testing.T) {
	csv := tradeCSV([]string{
		"BTC,45000,100,BUY,10",
		"BTC,45100,100,SELL,-5",
		"BTC,44900,100,BUY,20",
		"BTC,45050,100,SELL,-10",
		"ETH,3000,50,BUY,100", // filtered out
	})
	records, err := parseTradeCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parseTradeCSV: %v", err)
	}

	a, err := AnalyzePatterns(records, "BTC")
	if err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}
	if a.TradeCount != 4 {
		t.Errorf("trade count = %d, want 4", a.TradeCount)
	}
	if math.Abs(a.AveragePrice-45012.5) > 1e-9 {
		t.Errorf("avg price = %v, want 45012.5", a.AveragePrice)
	}
	if a.SideCounts["BUY"] != 2 || a.SideCounts["SELL"] != 2 {
		t.Errorf("side counts = %v", a.SideCounts)
	}
	if a.WinRatePct != 50 {
		t.Errorf("win rate = %v, want 50", a.WinRatePct)
	}
	if a.ProfitableGain != 15 || a.LosingLoss != -7.5 {
		t.Errorf("avg win/loss = %v/%v, want 15/-7.5", a.ProfitableGain, a.LosingLoss)
	}
	// Tight cluster around 45000: well under 2% volatility.
	if a.TwapIntervals != [3]int{5, 10, 15} {
		t.Errorf("intervals = %v, want low-volatility bucket", a.TwapIntervals)
	}
}

func TestTwapIntervalBuckets(t *testing.T) {
	// Two prices p±d around mean p give sample std d*sqrt(2).
	mkRecords := func(center, delta float64) []TradeRecord {
		return []TradeRecord{
			{Coin: "BTC", ExecutionPrice: center - delta},
			{Coin: "BTC", ExecutionPrice: center + delta},
		}
	}

	tests := []struct {
		name  string
		delta float64
		want  [3]int
	}{
		{"low volatility", 100, [3]int{5, 10, 15}},       // ~0.35%
		{"medium volatility", 1000, [3]int{10, 15, 30}},  // ~3.5%
		{"high volatility", 3000, [3]int{30, 45, 60}},    // ~10.6%
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := AnalyzePatterns(mkRecords(40000, tt.delta), "BTC")
			if err != nil {
				t.Fatalf("AnalyzePatterns: %v", err)
			}
			if a.TwapIntervals != tt.want {
				t.Errorf("volatility %.2f%%: intervals = %v, want %v", a.VolatilityPct, a.TwapIntervals, tt.want)
			}
		})
	}
}

func TestOptimalGridRange(t *testing.T) {
	// 200 rows; the recent quarter (last 50) sits in [44000, 46000].
	var records []TradeRecord
	for i := 0; i < 150; i++ {
		records = append(records, TradeRecord{Coin: "BTC", ExecutionPrice: 40000})
	}
	for i := 0; i < 50; i++ {
		price := 44000 + float64(i%2)*2000
		records = append(records, TradeRecord{Coin: "BTC", ExecutionPrice: price})
	}

	g, err := OptimalGridRange(records, "BTC", 0.80)
	if err != nil {
		t.Fatalf("OptimalGridRange: %v", err)
	}
	if g.RecentLow != 44000 || g.RecentHigh != 46000 {
		t.Errorf("recent range = [%v, %v], want [44000, 46000]", g.RecentLow, g.RecentHigh)
	}
	if g.SuggestedLow >= g.RecentLow || g.SuggestedHigh <= g.RecentHigh {
		t.Errorf("suggested range [%v, %v] does not expand recent range", g.SuggestedLow, g.SuggestedHigh)
	}
	if g.SuggestedHigh-g.SuggestedLow < g.AveragePrice*0.05 {
		t.Errorf("range %v narrower than 5%% of average", g.SuggestedHigh-g.SuggestedLow)
	}
}

func TestOptimalGridRangeMinimumWidth(t *testing.T) {
	// Flat prices: zero std, so the 5% floor must kick in.
	var records []TradeRecord
	for i := 0; i < 200; i++ {
		records = append(records, TradeRecord{Coin: "BTC", ExecutionPrice: 40000})
	}

	g, err := OptimalGridRange(records, "BTC", 0.95)
	if err != nil {
		t.Fatalf("OptimalGridRange: %v", err)
	}
	want := 40000 * 0.05
	if math.Abs((g.SuggestedHigh-g.SuggestedLow)-want) > 1e-6 {
		t.Errorf("range = %v, want 5%% floor %v", g.SuggestedHigh-g.SuggestedLow, want)
	}
}

func TestOptimalGridRangeInsufficientData(t *testing.T) {
	records := make([]TradeRecord, 100)
	for i := range records {
		records[i] = TradeRecord{Coin: "BTC", ExecutionPrice: 40000}
	}
	if _, err := OptimalGridRange(records, "BTC", 0.80); err == nil {
		t.Error("accepted exactly 100 rows, need more than 100")
	}
	if _, err := OptimalGridRange(records, "BTC", 0.85); err == nil {
		t.Error("accepted unsupported confidence level")
	}
}
