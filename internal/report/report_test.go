package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nexus-trading/perf/internal/backtest"
	"github.com/nexus-trading/perf/internal/config"
	"github.com/nexus-trading/perf/internal/performance"
	"github.com/nexus-trading/perf/internal/series"
)

const floatTol = 1e-9

var fixedNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func indexedSeries(values ...float64) series.Series {
	s := series.Series{Name: "test"}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		s.Points = append(s.Points, series.Point{Time: base.AddDate(0, 0, i), Value: v})
	}
	return s
}

func TestBuild_BothMetrics(t *testing.T) {
	values := []float64{0.1, 0.05, -0.02, 0.08, -0.01, 0.03}
	r, err := Build(indexedSeries(values...), testOptions())
	require.NoError(t, err)

	_, err = uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixedNow, r.GeneratedAt)
	assert.Equal(t, 6, r.Points)
	assert.Equal(t, performance.PeriodsDaily, r.Periods)
	assert.Empty(t, r.Warnings)

	wantSharpe, err := performance.SharpeRatio(values, performance.PeriodsDaily)
	require.NoError(t, err)
	require.NotNil(t, r.Sharpe)
	assert.InDelta(t, wantSharpe, *r.Sharpe, floatTol)

	require.NotNil(t, r.MaxDrawdown)
	assert.InDelta(t, 1.4, *r.MaxDrawdown, floatTol)
	require.NotNil(t, r.Duration)
	assert.Equal(t, 2, *r.Duration)

	require.Len(t, r.Drawdown, 6)
	assert.Equal(t, 2, r.Drawdown[2].Index)
	require.NotNil(t, r.Drawdown[2].Time)
	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), *r.Drawdown[2].Time)
}

func TestBuild_UnindexedSeriesHasNoTimes(t *testing.T) {
	r, err := Build(series.FromValues("raw", []float64{0.1, 0.2, 0.1}), testOptions())
	require.NoError(t, err)
	require.Len(t, r.Drawdown, 3)
	assert.Nil(t, r.Drawdown[0].Time)
}

func TestBuild_UndefinedSharpeKeepsDrawdown(t *testing.T) {
	r, err := Build(indexedSeries(0.01, 0.01, 0.01), testOptions())
	require.NoError(t, err)

	assert.Nil(t, r.Sharpe)
	require.NotNil(t, r.MaxDrawdown)
	assert.Equal(t, 0.0, *r.MaxDrawdown)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "sharpe undefined")
}

func TestBuild_UndefinedDrawdownKeepsSharpe(t *testing.T) {
	r, err := Build(indexedSeries(0.02, -0.01, 0.03), testOptions())
	require.NoError(t, err)

	assert.NotNil(t, r.Sharpe)
	assert.Nil(t, r.MaxDrawdown)
	assert.Nil(t, r.Duration)
	assert.Empty(t, r.Drawdown)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "drawdown undefined")
}

func TestBuild_EquityMode(t *testing.T) {
	opts := testOptions()
	opts.DrawdownMode = config.DrawdownEquity

	r, err := Build(indexedSeries(0.02, -0.01, 0.03), opts)
	require.NoError(t, err)
	require.NotNil(t, r.MaxDrawdown)
	assert.InDelta(t, 0.01, *r.MaxDrawdown, floatTol)
	assert.Equal(t, 1, *r.Duration)
	assert.Equal(t, config.DrawdownEquity, r.DrawdownMode)
}

func TestBuild_InvalidInput(t *testing.T) {
	_, err := Build(series.Series{Name: "empty"}, testOptions())
	assert.ErrorIs(t, err, series.ErrInvalidSeries)

	_, err = Build(series.FromValues("nan", []float64{0.1, math.NaN()}), testOptions())
	assert.ErrorIs(t, err, performance.ErrInvalidInput)

	opts := testOptions()
	opts.Periods = 0
	_, err = Build(series.FromValues("zero periods", []float64{0.1, 0.2}), opts)
	assert.ErrorIs(t, err, performance.ErrInvalidInput)

	opts = testOptions()
	opts.DrawdownMode = "peak"
	_, err = Build(series.FromValues("bad mode", []float64{0.1, 0.2}), opts)
	assert.ErrorIs(t, err, performance.ErrInvalidInput)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Periods = performance.PeriodsHourly
	cfg.Metrics.DrawdownMode = config.DrawdownEquity

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, performance.PeriodsHourly, opts.Periods)
	assert.Equal(t, config.DrawdownEquity, opts.DrawdownMode)
	assert.NotNil(t, opts.Now)
}

func TestAttachTrades_UnboundedProfitFactor(t *testing.T) {
	r, err := Build(series.FromValues("ledger", []float64{0.1, 0.2, 0.15}), testOptions())
	require.NoError(t, err)

	r.AttachTrades(backtest.Summary{TradeCount: 3})
	require.NotNil(t, r.Trades)
	assert.Nil(t, r.Trades.ProfitFactor)
	assert.Contains(t, r.Warnings, "profit factor unbounded: no losing trades")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatJSON, false))
	var decoded struct {
		Trades map[string]any `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	pf, ok := decoded.Trades["profit_factor"]
	assert.True(t, ok)
	assert.Nil(t, pf, "unbounded profit factor is encoded as null")

	buf.Reset()
	require.NoError(t, Encode(&buf, r, FormatText, false))
	assert.Contains(t, buf.String(), "profit factor unbounded")
}

func TestAttachTrades_ZeroProfitFactorIsNotUnbounded(t *testing.T) {
	r, err := Build(series.FromValues("ledger", []float64{0.1, 0.2, 0.15}), testOptions())
	require.NoError(t, err)

	zero := 0.0
	r.AttachTrades(backtest.Summary{TradeCount: 2, ProfitFactor: &zero})
	require.NotNil(t, r.Trades.ProfitFactor)
	assert.Equal(t, 0.0, *r.Trades.ProfitFactor)
	assert.Empty(t, r.Warnings)
}

func TestBuild_ExtremeMagnitudesEncode(t *testing.T) {
	opts := testOptions()
	opts.DrawdownMode = config.DrawdownEquity
	r, err := Build(series.FromValues("extreme", []float64{1e308, 1e308, -1e308}), opts)
	require.NoError(t, err)

	require.NotNil(t, r.Sharpe)
	assert.False(t, math.IsNaN(*r.Sharpe) || math.IsInf(*r.Sharpe, 0))
	assert.Nil(t, r.MaxDrawdown, "overflowing equity curve leaves the drawdown undefined")
	assert.NotEmpty(t, r.Warnings)

	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, r, FormatJSON, false))
}

func TestEncode_JSON(t *testing.T) {
	r, err := Build(indexedSeries(0.01, 0.01), testOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatJSON, false))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Nil(t, decoded["sharpe"], "undefined sharpe is encoded as null")
	assert.Equal(t, r.ID, decoded["id"])
	assert.Len(t, decoded["drawdown"], 2)
}

func TestEncode_YAML(t *testing.T) {
	r, err := Build(indexedSeries(0.1, 0.05, 0.2), testOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatYAML, false))

	var decoded struct {
		ID          string  `yaml:"id"`
		MaxDrawdown float64 `yaml:"max_drawdown"`
		Duration    int     `yaml:"duration"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.ID, decoded.ID)
	assert.InDelta(t, *r.MaxDrawdown, decoded.MaxDrawdown, floatTol)
	assert.Equal(t, *r.Duration, decoded.Duration)
}

func TestEncode_Text(t *testing.T) {
	r, err := Build(indexedSeries(0.01, 0.01), testOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatText, true))
	out := buf.String()

	assert.Contains(t, out, "sharpe")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "2025-01-02T00:00:00Z")
	assert.Equal(t, 1, strings.Count(out, "index"))
}

func TestEncode_UnknownFormat(t *testing.T) {
	r, err := Build(indexedSeries(0.1, 0.2), testOptions())
	require.NoError(t, err)
	assert.Error(t, Encode(&bytes.Buffer{}, r, "xml", false))
}
