package performance

import (
	"fmt"
	"math"
)

// Drawdown is the result of a drawdown analysis over a return series.
type Drawdown struct {
	Series   []float64 // fractional decline from the high-water mark, same length as the input
	Max      float64   // largest value in Series
	Duration int       // longest run of consecutive periods with nonzero drawdown
}

// HighWaterMark returns the running maximum of the return values. Index 0 is
// seeded at zero rather than at returns[0], and returns[0] never enters the
// maximum.
func HighWaterMark(returns []float64) []float64 {
	hwm := make([]float64, len(returns))
	for t := 1; t < len(returns); t++ {
		hwm[t] = max(hwm[t-1], returns[t])
	}
	return hwm
}

// Drawdowns measures each period's decline from the high-water mark of the
// raw return values: drawdown[t] = (hwm[t] - returns[t]) / hwm[t], with
// drawdown[0] forced to zero.
//
// The input is not compounded into an equity curve first. Callers that want
// the conventional equity-curve figure use EquityDrawdowns.
//
// A zero high-water mark at t > 0 (every return up to t is <= 0) makes the
// drawdown undefined and yields ErrDivisionByZero, as does a drawdown that
// overflows.
func Drawdowns(returns []float64) (Drawdown, error) {
	if err := checkReturns(returns); err != nil {
		return Drawdown{}, err
	}

	hwm := HighWaterMark(returns)
	dd := make([]float64, len(returns))
	for t := 1; t < len(returns); t++ {
		if hwm[t] == 0 {
			return Drawdown{}, fmt.Errorf("%w: zero high-water mark at index %d", ErrDivisionByZero, t)
		}
		dd[t] = (hwm[t] - returns[t]) / hwm[t]
		if err := checkFinite(dd[t], t); err != nil {
			return Drawdown{}, err
		}
	}

	return summarize(dd), nil
}

// EquityDrawdowns compounds the returns into an equity curve starting at 1.0
// and measures each point's decline from the curve's running peak. The
// starting capital counts as the initial peak, so the peak never drops below
// 1.0 and the division is always defined.
//
// A return of -1 or below wipes the curve out: equity is floored at zero and
// stays there, so every later drawdown is exactly 1.
func EquityDrawdowns(returns []float64) (Drawdown, error) {
	if err := checkReturns(returns); err != nil {
		return Drawdown{}, err
	}

	dd := make([]float64, len(returns))
	equity, peak := 1.0, 1.0
	for t, r := range returns {
		equity = max(0, equity*(1+r))
		peak = max(peak, equity)
		dd[t] = (peak - equity) / peak
		if err := checkFinite(dd[t], t); err != nil {
			return Drawdown{}, err
		}
	}

	return summarize(dd), nil
}

// LongestRun returns the length of the longest run of consecutive true
// values, or 0 when there is none.
func LongestRun(flags []bool) int {
	longest, run := 0, 0
	for _, f := range flags {
		if !f {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

func checkFinite(d float64, t int) error {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: non-finite drawdown at index %d", ErrDivisionByZero, t)
	}
	return nil
}

func summarize(dd []float64) Drawdown {
	out := Drawdown{Series: dd}
	nonzero := make([]bool, len(dd))
	for t, d := range dd {
		out.Max = max(out.Max, d)
		nonzero[t] = d != 0
	}
	out.Duration = LongestRun(nonzero)
	return out
}
