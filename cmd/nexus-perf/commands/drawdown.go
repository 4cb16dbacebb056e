package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-trading/perf/internal/report"
)

var drawdownCmd = &cobra.Command{
	Use:   "drawdown",
	Short: "Maximum drawdown and longest drawdown duration",
	Long: `Computes the drawdown of every period from the running high-water mark,
then prints the maximum drawdown and the longest run of periods with a
nonzero drawdown.

--mode raw (default) takes the high-water mark over the return values
themselves, seeded at zero. --mode equity compounds the returns into an
equity curve first.

Example:
  nexus-perf drawdown --input returns.csv
  nexus-perf drawdown --input returns.csv --mode equity --series`,
	RunE: runDrawdown,
}

var (
	drawdownMode   string
	drawdownSeries bool
)

func init() {
	rootCmd.AddCommand(drawdownCmd)

	drawdownCmd.Flags().StringVar(&drawdownMode, "mode", "", "raw|equity (overrides config)")
	drawdownCmd.Flags().BoolVar(&drawdownSeries, "series", false, "also print the per-period drawdown")
}

func runDrawdown(cmd *cobra.Command, _ []string) error {
	mode := drawdownMode
	if mode == "" {
		mode = cfg.Metrics.DrawdownMode
	}

	s, _, err := loadInput()
	if err != nil {
		return err
	}

	dd, err := report.Drawdown(s.Values(), mode)
	if err != nil {
		return fmt.Errorf("drawdown for %s: %w", s.Name, err)
	}

	log.Info().
		Str("series", s.Name).
		Str("mode", mode).
		Float64("max_drawdown", dd.Max).
		Int("duration", dd.Duration).
		Msg("Drawdown computed")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "max_drawdown %.6f\nduration %d\n", dd.Max, dd.Duration)
	if drawdownSeries {
		for i, v := range dd.Series {
			fmt.Fprintf(out, "%d %.6f\n", i, v)
		}
	}
	return nil
}
