package backtest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nexus-trading/perf/internal/series"
)

// Ledger CSV columns. pnl and exit_time are required, the rest may be absent.
const (
	colSymbol     = "symbol"
	colSide       = "side"
	colEntryPrice = "entry_price"
	colExitPrice  = "exit_price"
	colQty        = "qty"
	colPnL        = "pnl"
	colFees       = "fees"
	colSlippage   = "slippage"
	colEntryTime  = "entry_time"
	colExitTime   = "exit_time"
)

// LoadTrades reads a trade ledger CSV file and returns the trades ordered by
// exit time.
func LoadTrades(path string, timeLayout string) ([]TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backtest: open ledger %s: %w", path, err)
	}
	defer f.Close()

	trades, err := ReadTradesCSV(f, timeLayout)
	if err != nil {
		return nil, fmt.Errorf("backtest: %s: %w", path, err)
	}
	SortByExit(trades)

	log.Debug().Str("path", path).Int("trades", len(trades)).Msg("backtest: ledger loaded")
	return trades, nil
}

// ReadTradesCSV decodes a ledger with a header row. Amounts are parsed as
// decimals so values like "1e-3" and "12.50" are accepted.
func ReadTradesCSV(r io.Reader, timeLayout string) ([]TradeRecord, error) {
	if timeLayout == "" {
		timeLayout = time.RFC3339
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: ledger has no header row", series.ErrInvalidSeries)
		}
		return nil, fmt.Errorf("read ledger header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{colPnL, colExitTime} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: ledger has no %q column", series.ErrInvalidSeries, req)
		}
	}

	var trades []TradeRecord
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger row %d: %w", row, err)
		}

		p := rowParser{rec: rec, cols: cols, layout: timeLayout}
		tr := TradeRecord{
			Symbol:     p.text(colSymbol),
			Side:       p.text(colSide),
			EntryPrice: p.amount(colEntryPrice),
			ExitPrice:  p.amount(colExitPrice),
			Qty:        p.amount(colQty),
			PnL:        p.amount(colPnL),
			Fees:       p.amount(colFees),
			Slippage:   p.amount(colSlippage),
			EntryTime:  p.timestamp(colEntryTime),
			ExitTime:   p.timestamp(colExitTime),
		}
		for _, req := range []string{colPnL, colExitTime} {
			if p.err == nil && p.text(req) == "" {
				p.err = fmt.Errorf("%s is empty", req)
			}
		}
		if p.err != nil {
			return nil, fmt.Errorf("%w: ledger row %d: %v", series.ErrInvalidSeries, row, p.err)
		}
		trades = append(trades, tr)
	}

	return trades, nil
}

// rowParser reads optional columns from one record and keeps the first error.
type rowParser struct {
	rec    []string
	cols   map[string]int
	layout string
	err    error
}

func (p *rowParser) text(col string) string {
	i, ok := p.cols[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(p.rec[i])
}

func (p *rowParser) amount(col string) float64 {
	v := p.text(col)
	if v == "" || p.err != nil {
		return 0
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.err = fmt.Errorf("%s %q is not numeric", col, v)
		return 0
	}
	return d.InexactFloat64()
}

func (p *rowParser) timestamp(col string) time.Time {
	v := p.text(col)
	if v == "" || p.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(p.layout, v)
	if err != nil {
		p.err = fmt.Errorf("%s: %v", col, err)
		return time.Time{}
	}
	return t
}
