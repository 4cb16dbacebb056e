// Package performance computes risk-adjusted return and drawdown statistics
// from an ordered series of period returns. Every function is pure: the same
// input always yields the same output and nothing is retained between calls.
package performance

import (
	"errors"
	"fmt"
	"math"
)

// Annualization factors for common sampling frequencies.
const (
	PeriodsDaily    = 252.0
	PeriodsHourly   = 252.0 * 6.5
	PeriodsMinutely = 252.0 * 6.5 * 60

	DefaultPeriods = PeriodsDaily
)

var (
	// ErrInvalidInput is returned for empty series, non-finite values and
	// non-positive annualization factors.
	ErrInvalidInput = errors.New("performance: invalid input")

	// ErrDivisionByZero is returned when a metric is undefined for the input:
	// zero standard deviation for the Sharpe ratio, or a zero high-water mark
	// past the first period for the drawdown.
	ErrDivisionByZero = errors.New("performance: division by zero")
)

// SharpeRatio returns sqrt(periods) * mean(returns) / stddev(returns) with a
// zero risk-free rate. The standard deviation is the population one (divide
// by N). Series with fewer than two values or with all values equal have no
// dispersion and yield ErrDivisionByZero, as does any non-finite result.
func SharpeRatio(returns []float64, periods float64) (float64, error) {
	if err := checkReturns(returns); err != nil {
		return 0, err
	}
	if periods <= 0 || math.IsNaN(periods) || math.IsInf(periods, 0) {
		return 0, fmt.Errorf("%w: periods must be positive, got %v", ErrInvalidInput, periods)
	}

	// The mean of equal floats can carry rounding noise, so equality is
	// tested directly rather than through std == 0.
	if constant(returns) {
		return 0, fmt.Errorf("%w: zero standard deviation over %d returns", ErrDivisionByZero, len(returns))
	}

	// The ratio is scale-free, so the returns are rescaled by a power of two
	// (exact) to keep sums and squares of extreme values from overflowing.
	scaled := rescale(returns)
	m := mean(scaled)
	std := populationStddev(scaled, m)
	if std == 0 {
		return 0, fmt.Errorf("%w: zero standard deviation over %d returns", ErrDivisionByZero, len(returns))
	}

	sharpe := math.Sqrt(periods) * m / std
	if math.IsNaN(sharpe) || math.IsInf(sharpe, 0) {
		return 0, fmt.Errorf("%w: non-finite sharpe ratio (mean %v, std %v)", ErrDivisionByZero, m, std)
	}
	return sharpe, nil
}

// rescale divides xs by the power of two at or above its largest magnitude,
// leaving every value in [-1, 1].
func rescale(xs []float64) []float64 {
	maxAbs := 0.0
	for _, x := range xs {
		maxAbs = max(maxAbs, math.Abs(x))
	}
	out := make([]float64, len(xs))
	if maxAbs == 0 {
		return out
	}
	_, exp := math.Frexp(maxAbs)
	for i, x := range xs {
		out[i] = math.Ldexp(x, -exp)
	}
	return out
}

// checkReturns rejects empty input and any NaN or infinite value.
func checkReturns(returns []float64) error {
	if len(returns) == 0 {
		return fmt.Errorf("%w: empty return series", ErrInvalidInput)
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: non-finite return %v at index %d", ErrInvalidInput, r, i)
		}
	}
	return nil
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// populationStddev divides by N, not N-1.
func populationStddev(xs []float64, m float64) float64 {
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
