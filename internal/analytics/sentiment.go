package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SentimentLabel buckets a fear/greed index score.
type SentimentLabel string

const (
	ExtremeFear  SentimentLabel = "EXTREME_FEAR"
	Fear         SentimentLabel = "FEAR"
	Neutral      SentimentLabel = "NEUTRAL"
	Greed        SentimentLabel = "GREED"
	ExtremeGreed SentimentLabel = "EXTREME_GREED"
)

// InterpretScore maps a 0-100 fear/greed score to its label.
func InterpretScore(score float64) SentimentLabel {
	switch {
	case score <= 20:
		return ExtremeFear
	case score <= 40:
		return Fear
	case score <= 60:
		return Neutral
	case score <= 80:
		return Greed
	default:
		return ExtremeGreed
	}
}

// Multipliers adjust strategy parameters per sentiment regime. Values
// above 1 widen/slow; below 1 shrink.
type Multipliers struct {
	GridSpacing  float64
	TwapInterval float64
	PositionSize float64
	RiskLevel    string
}

var sentimentMultipliers = map[SentimentLabel]Multipliers{
	ExtremeFear:  {GridSpacing: 1.5, TwapInterval: 1.3, PositionSize: 1.2, RiskLevel: "HIGH"},
	Fear:         {GridSpacing: 1.2, TwapInterval: 1.1, PositionSize: 1.1, RiskLevel: "MEDIUM_HIGH"},
	Neutral:      {GridSpacing: 1.0, TwapInterval: 1.0, PositionSize: 1.0, RiskLevel: "MEDIUM"},
	Greed:        {GridSpacing: 1.2, TwapInterval: 1.1, PositionSize: 0.9, RiskLevel: "MEDIUM_HIGH"},
	ExtremeGreed: {GridSpacing: 1.5, TwapInterval: 1.3, PositionSize: 0.8, RiskLevel: "HIGH"},
}

var marketOutlooks = map[SentimentLabel]string{
	ExtremeFear:  "Market in extreme fear. Potential buying opportunity for contrarian strategies. High volatility expected.",
	Fear:         "Fearful market sentiment. Consider careful accumulation strategies. Moderate volatility likely.",
	Neutral:      "Balanced market sentiment. Normal trading strategies recommended. Standard volatility expected.",
	Greed:        "Greedy market sentiment. Consider profit-taking strategies. Moderate volatility likely.",
	ExtremeGreed: "Market in extreme greed. High risk of reversal. Consider defensive strategies. High volatility expected.",
}

// MultipliersFor returns the strategy multipliers for a score.
func MultipliersFor(score float64) Multipliers {
	return sentimentMultipliers[InterpretScore(score)]
}

// Outlook returns the market-outlook text for a label.
func Outlook(label SentimentLabel) string {
	return marketOutlooks[label]
}

// Recommendation bundles sentiment-adjusted strategy parameters around
// the live price.
type Recommendation struct {
	Symbol          string
	CurrentPrice    float64
	Score           float64
	Label           SentimentLabel
	RiskLevel       string
	GridRecommended bool
	GridLow         float64
	GridHigh        float64
	// SpacingAdjustmentPct and friends are percentage deltas from the
	// neutral baseline.
	SpacingAdjustmentPct  float64
	IntervalAdjustmentPct float64
	SizeAdjustmentPct     float64
	SuggestedDurationMin  int
	MaxRiskPerTradePct    float64
	Outlook               string
}

// Recommend derives strategy adjustments from the latest score and the
// current price. Grid trading is only recommended outside the extreme
// regimes; the suggested band is ±5% scaled by the spacing multiplier.
func Recommend(symbol string, score, currentPrice float64) Recommendation {
	label := InterpretScore(score)
	m := sentimentMultipliers[label]

	return Recommendation{
		Symbol:                symbol,
		CurrentPrice:          currentPrice,
		Score:                 score,
		Label:                 label,
		RiskLevel:             m.RiskLevel,
		GridRecommended:       m.RiskLevel == "MEDIUM" || m.RiskLevel == "MEDIUM_HIGH",
		GridLow:               currentPrice * (1 - 0.05*m.GridSpacing),
		GridHigh:              currentPrice * (1 + 0.05*m.GridSpacing),
		SpacingAdjustmentPct:  (m.GridSpacing - 1) * 100,
		IntervalAdjustmentPct: (m.TwapInterval - 1) * 100,
		SizeAdjustmentPct:     (m.PositionSize - 1) * 100,
		SuggestedDurationMin:  int(30 * m.TwapInterval),
		MaxRiskPerTradePct:    2.0 / m.PositionSize,
		Outlook:               marketOutlooks[label],
	}
}

// LoadSentimentCSV reads a fear/greed export and returns the scores in
// file order. The value column is located by header name.
func LoadSentimentCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sentiment csv: %w", err)
	}
	defer f.Close()
	return parseSentimentCSV(f)
}

func parseSentimentCSV(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	valueIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "value") {
			valueIdx = i
			break
		}
	}
	if valueIdx == -1 {
		return nil, fmt.Errorf("csv has no value column")
	}

	var scores []float64
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if valueIdx >= len(row) {
			continue
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if perr != nil {
			continue
		}
		scores = append(scores, v)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("sentiment csv has no parseable scores")
	}
	return scores, nil
}

// LatestScore returns the most recent score in a file-ordered series.
func LatestScore(scores []float64) float64 {
	return scores[len(scores)-1]
}
