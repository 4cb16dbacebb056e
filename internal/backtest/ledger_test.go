package backtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-trading/perf/internal/series"
)

func TestReadTradesCSV(t *testing.T) {
	in := `symbol,side,entry_price,exit_price,qty,pnl,fees,slippage,entry_time,exit_time
BTC-USD,buy,50000,51000,0.1,100,5,2,2025-01-01T10:00:00Z,2025-01-03T10:00:00Z
# manual adjustment below
ETH-USD,sell,3000,2900,1,-100,3,1e0,2025-01-06T10:00:00Z,2025-01-08T10:00:00Z
`
	trades, err := ReadTradesCSV(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "BTC-USD", trades[0].Symbol)
	assert.Equal(t, "buy", trades[0].Side)
	assert.InDelta(t, 0.1, trades[0].Qty, floatTol)
	assert.InDelta(t, 93.0, trades[0].NetPnL(), floatTol)
	assert.Equal(t, dayTime(2), trades[0].ExitTime)

	assert.InDelta(t, 1.0, trades[1].Slippage, floatTol)
	assert.Equal(t, dayTime(7), trades[1].ExitTime)
}

func TestReadTradesCSV_MinimalColumns(t *testing.T) {
	in := "exit_time,PnL\n2025-01-01,10\n2025-01-02,-4\n"

	trades, err := ReadTradesCSV(strings.NewReader(in), "2006-01-02")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "", trades[0].Symbol)
	assert.InDelta(t, -4.0, trades[1].PnL, floatTol)
}

func TestReadTradesCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no pnl column", "exit_time,fees\n2025-01-01T00:00:00Z,1\n"},
		{"no exit column", "pnl\n1\n"},
		{"bad amount", "pnl,exit_time\nten,2025-01-01T00:00:00Z\n"},
		{"blank pnl", "pnl,exit_time\n,2025-01-01T00:00:00Z\n"},
		{"blank exit time", "pnl,exit_time\n1,2025-01-01T00:00:00Z\n2,\n"},
		{"bad time", "pnl,exit_time\n1,soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTradesCSV(strings.NewReader(tt.in), "")
			assert.ErrorIs(t, err, series.ErrInvalidSeries)
		})
	}
}

func TestLoadTrades_SortsByExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	content := "symbol,pnl,exit_time\nLATE,5,2025-01-05T00:00:00Z\nEARLY,7,2025-01-02T00:00:00Z\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	trades, err := LoadTrades(path, "")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "EARLY", trades[0].Symbol)

	_, err = LoadTrades(filepath.Join(t.TempDir(), "nope.csv"), "")
	assert.Error(t, err)
}
