// Package quant rounds prices and quantities to exchange-mandated
// increments. All rounding goes through decimal arithmetic and a fixed
// 8-decimal truncation so repeated rounding never drifts.
package quant

import (
	"github.com/shopspring/decimal"
)

// Precision is the fixed number of decimal places kept after rounding.
const Precision = 8

// RoundToTick rounds price to the nearest multiple of tick.
// A non-positive tick returns the price truncated to Precision.
func RoundToTick(price, tick float64) float64 {
	return roundToIncrement(price, tick)
}

// RoundToStep rounds qty to the nearest multiple of step.
func RoundToStep(qty, step float64) float64 {
	return roundToIncrement(qty, step)
}

// AlignedToStep reports whether (value - offset) is a whole number of
// steps, within Precision. Used for LOT_SIZE compliance checks.
func AlignedToStep(value, offset, step float64) bool {
	if step <= 0 {
		return true
	}
	rem := decimal.NewFromFloat(value).
		Sub(decimal.NewFromFloat(offset)).
		Mod(decimal.NewFromFloat(step)).
		Truncate(Precision).
		Abs()
	if rem.IsZero() {
		return true
	}
	// A remainder of almost exactly one step is also aligned (mod of a
	// value that rounds up against the step boundary).
	return decimal.NewFromFloat(step).Sub(rem).Truncate(Precision).IsZero()
}

func roundToIncrement(value, inc float64) float64 {
	v := decimal.NewFromFloat(value)
	if inc <= 0 {
		f, _ := v.Truncate(Precision).Float64()
		return f
	}
	i := decimal.NewFromFloat(inc)
	f, _ := v.Div(i).Round(0).Mul(i).Truncate(Precision).Float64()
	return f
}
