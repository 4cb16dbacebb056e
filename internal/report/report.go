// Package report evaluates the performance metrics over one return series
// and packages the results for output.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nexus-trading/perf/internal/backtest"
	"github.com/nexus-trading/perf/internal/config"
	"github.com/nexus-trading/perf/internal/performance"
	"github.com/nexus-trading/perf/internal/series"
)

// Options selects the parameters of a report run.
type Options struct {
	Periods      float64
	DrawdownMode string // config.DrawdownRaw or config.DrawdownEquity
	Now          func() time.Time
}

// DefaultOptions returns daily annualization with the raw drawdown.
func DefaultOptions() Options {
	return Options{
		Periods:      performance.DefaultPeriods,
		DrawdownMode: config.DrawdownRaw,
		Now:          time.Now,
	}
}

// OptionsFromConfig maps the metrics section onto report options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.Periods = cfg.Metrics.Periods
	opts.DrawdownMode = cfg.Metrics.DrawdownMode
	return opts
}

// DrawdownPoint is one element of the drawdown series.
type DrawdownPoint struct {
	Index int        `json:"index" yaml:"index"`
	Time  *time.Time `json:"time,omitempty" yaml:"time,omitempty"`
	Value float64    `json:"drawdown" yaml:"drawdown"`
}

// Report is the outcome of one run. A metric that is undefined for the input
// is left nil and explained in Warnings.
type Report struct {
	ID           string            `json:"id" yaml:"id"`
	Series       string            `json:"series" yaml:"series"`
	GeneratedAt  time.Time         `json:"generated_at" yaml:"generated_at"`
	Points       int               `json:"points" yaml:"points"`
	Periods      float64           `json:"periods" yaml:"periods"`
	DrawdownMode string            `json:"drawdown_mode" yaml:"drawdown_mode"`
	Sharpe       *float64          `json:"sharpe" yaml:"sharpe"`
	MaxDrawdown  *float64          `json:"max_drawdown" yaml:"max_drawdown"`
	Duration     *int              `json:"duration" yaml:"duration"`
	Drawdown     []DrawdownPoint   `json:"drawdown,omitempty" yaml:"drawdown,omitempty"`
	Trades       *backtest.Summary `json:"trades,omitempty" yaml:"trades,omitempty"`
	Warnings     []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Build computes the Sharpe ratio and drawdown statistics for s. Invalid
// input is returned as an error. A division by zero in either metric only
// leaves that metric empty, so the other one is still reported.
func Build(s series.Series, opts Options) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DrawdownMode == "" {
		opts.DrawdownMode = config.DrawdownRaw
	}

	r := &Report{
		ID:           uuid.NewString(),
		Series:       s.Name,
		GeneratedAt:  opts.Now().UTC(),
		Points:       s.Len(),
		Periods:      opts.Periods,
		DrawdownMode: opts.DrawdownMode,
	}
	values := s.Values()

	sharpe, err := performance.SharpeRatio(values, opts.Periods)
	switch {
	case err == nil:
		r.Sharpe = &sharpe
	case errors.Is(err, performance.ErrDivisionByZero):
		r.Warnings = append(r.Warnings, "sharpe undefined: "+err.Error())
	default:
		return nil, fmt.Errorf("report: sharpe: %w", err)
	}

	dd, err := Drawdown(values, opts.DrawdownMode)
	switch {
	case err == nil:
		r.MaxDrawdown = &dd.Max
		r.Duration = &dd.Duration
		r.Drawdown = drawdownPoints(s, dd.Series)
	case errors.Is(err, performance.ErrDivisionByZero):
		r.Warnings = append(r.Warnings, "drawdown undefined: "+err.Error())
	default:
		return nil, fmt.Errorf("report: drawdown: %w", err)
	}

	log.Debug().
		Str("id", r.ID).
		Str("series", r.Series).
		Int("points", r.Points).
		Int("warnings", len(r.Warnings)).
		Msg("report: built")

	return r, nil
}

// Drawdown dispatches to the drawdown variant named by mode.
func Drawdown(values []float64, mode string) (performance.Drawdown, error) {
	switch mode {
	case config.DrawdownRaw:
		return performance.Drawdowns(values)
	case config.DrawdownEquity:
		return performance.EquityDrawdowns(values)
	default:
		return performance.Drawdown{}, fmt.Errorf("%w: unknown drawdown mode %q", performance.ErrInvalidInput, mode)
	}
}

// AttachTrades adds the ledger summary to r. A nil profit factor means it is
// unbounded and is flagged with a warning.
func (r *Report) AttachTrades(s backtest.Summary) {
	if s.ProfitFactor == nil && s.TradeCount > 0 {
		r.Warnings = append(r.Warnings, "profit factor unbounded: no losing trades")
	}
	r.Trades = &s
}

func drawdownPoints(s series.Series, dd []float64) []DrawdownPoint {
	var times []time.Time
	if s.Indexed() {
		times = s.Times()
	}
	out := make([]DrawdownPoint, len(dd))
	for i, v := range dd {
		out[i] = DrawdownPoint{Index: i, Value: v}
		if times != nil {
			out[i].Time = &times[i]
		}
	}
	return out
}
