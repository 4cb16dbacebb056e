package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Encode writes r to w in the given format. The text format omits the
// per-period drawdown unless withSeries is set; json and yaml always carry it.
func Encode(w io.Writer, r *Report, format string, withSeries bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("report: encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatText:
		return encodeText(w, r, withSeries)
	default:
		return fmt.Errorf("report: unknown output format %q", format)
	}
}

func encodeText(w io.Writer, r *Report, withSeries bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "run\t%s\n", r.ID)
	fmt.Fprintf(tw, "series\t%s (%d points)\n", r.Series, r.Points)
	fmt.Fprintf(tw, "sharpe\t%s\t(periods %s)\n", optFloat(r.Sharpe), strconv.FormatFloat(r.Periods, 'f', -1, 64))
	fmt.Fprintf(tw, "max drawdown\t%s\t(%s)\n", optFloat(r.MaxDrawdown), r.DrawdownMode)
	if r.Duration != nil {
		fmt.Fprintf(tw, "duration\t%d\n", *r.Duration)
	} else {
		fmt.Fprintf(tw, "duration\tn/a\n")
	}
	if t := r.Trades; t != nil {
		pf := "unbounded"
		if t.ProfitFactor != nil {
			pf = strconv.FormatFloat(*t.ProfitFactor, 'f', 4, 64)
		}
		fmt.Fprintf(tw, "trades\t%d\twin rate %.2f%%, profit factor %s\n", t.TradeCount, t.WinRate*100, pf)
		fmt.Fprintf(tw, "net pnl\t%.2f\ttotal return %.4f%%\n", t.NetPnL, t.TotalReturn*100)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(tw, "warning\t%s\n", warn)
	}

	if withSeries && len(r.Drawdown) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "index\ttime\tdrawdown")
		for _, p := range r.Drawdown {
			ts := "-"
			if p.Time != nil {
				ts = p.Time.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%.6f\n", p.Index, ts, p.Value)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("report: write text: %w", err)
	}
	return nil
}

func optFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
