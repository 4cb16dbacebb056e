package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nexus-trading/perf/internal/series"
)

// TradeRecord represents a single completed round-trip trade.
type TradeRecord struct {
	Symbol     string
	Side       string // buy or sell
	EntryPrice float64
	ExitPrice  float64
	Qty        float64
	PnL        float64
	Fees       float64
	Slippage   float64
	EntryTime  time.Time
	ExitTime   time.Time
}

// NetPnL is the trade PnL after fees and slippage.
func (tr TradeRecord) NetPnL() float64 {
	return tr.PnL - tr.Fees - tr.Slippage
}

// Summary holds the trade-level statistics reported next to the return metrics.
type Summary struct {
	TradeCount     int     `json:"trade_count" yaml:"trade_count"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	NetPnL         float64 `json:"net_pnl" yaml:"net_pnl"`           // PnL after fees and slippage
	TotalFees      float64 `json:"total_fees" yaml:"total_fees"`     // Sum of all fees
	TotalReturn    float64 `json:"total_return" yaml:"total_return"` // NetPnL / initial capital
	WinRate        float64 `json:"win_rate" yaml:"win_rate"`         // Fraction of winning trades [0, 1]
	ProfitFactor   *float64 `json:"profit_factor" yaml:"profit_factor"` // nil when there are wins but no losses
}

// Summarize computes trade statistics. Trades must be ordered by exit time.
func Summarize(trades []TradeRecord, initialCapital float64) (Summary, error) {
	if err := checkLedger(trades, initialCapital); err != nil {
		return Summary{}, err
	}

	s := Summary{TradeCount: len(trades), InitialCapital: initialCapital}
	wins := 0
	for _, tr := range trades {
		s.NetPnL += tr.NetPnL()
		s.TotalFees += tr.Fees
		if tr.NetPnL() > 0 {
			wins++
		}
	}
	s.WinRate = float64(wins) / float64(len(trades))
	s.TotalReturn = s.NetPnL / initialCapital
	if pf := ProfitFactor(trades); !math.IsInf(pf, 0) {
		s.ProfitFactor = &pf
	}

	return s, nil
}

// ProfitFactor computes gross profit / gross loss from net trade PnL.
// Returns math.Inf(1) if there are no losing trades but there are winning trades.
// Returns 0 if there are no trades or no winning trades.
func ProfitFactor(trades []TradeRecord) float64 {
	var grossProfit, grossLoss float64
	for _, tr := range trades {
		if pnl := tr.NetPnL(); pnl > 0 {
			grossProfit += pnl
		} else if pnl < 0 {
			grossLoss += math.Abs(pnl)
		}
	}

	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// ReturnsFromTrades turns a trade ledger into a return series: one fractional
// return per trade, measured against the capital available before it and
// indexed by exit time.
func ReturnsFromTrades(name string, trades []TradeRecord, initialCapital float64) (series.Series, error) {
	if err := checkLedger(trades, initialCapital); err != nil {
		return series.Series{}, err
	}

	s := series.Series{Name: name, Points: make([]series.Point, len(trades))}
	capital := initialCapital
	for i, tr := range trades {
		if capital <= 0 {
			return series.Series{}, fmt.Errorf("backtest: capital exhausted before trade %d (%s)", i, tr.Symbol)
		}
		s.Points[i] = series.Point{Time: tr.ExitTime, Value: tr.NetPnL() / capital}
		capital += tr.NetPnL()
	}

	return s, nil
}

// SortByExit orders trades by exit time, keeping ledger order for ties.
func SortByExit(trades []TradeRecord) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ExitTime.Before(trades[j].ExitTime)
	})
}

func checkLedger(trades []TradeRecord, initialCapital float64) error {
	if len(trades) == 0 {
		return fmt.Errorf("%w: no trades", series.ErrInvalidSeries)
	}
	if initialCapital <= 0 || math.IsInf(initialCapital, 0) || math.IsNaN(initialCapital) {
		return fmt.Errorf("%w: initial capital must be positive, got %v", series.ErrInvalidSeries, initialCapital)
	}
	return nil
}
