package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-trading/perf/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Sharpe ratio and drawdown analysis in one document",
	Long: `Builds a report with a run ID, both metrics and the per-period drawdown.
A metric that is undefined for the input (zero deviation, zero high-water
mark) is reported as null with a warning instead of failing the run.

Example:
  nexus-perf report --input returns.csv --format text --series
  nexus-perf report --trades trades.csv --format yaml`,
	RunE: runReport,
}

var (
	reportFormat string
	reportSeries bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "", "json|yaml|text (overrides config)")
	reportCmd.Flags().BoolVar(&reportSeries, "series", false, "include the per-period drawdown in text output")
}

func runReport(cmd *cobra.Command, _ []string) error {
	format := reportFormat
	if format == "" {
		format = cfg.Output.Format
	}

	s, summary, err := loadInput()
	if err != nil {
		return err
	}

	r, err := report.Build(s, report.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	if summary != nil {
		r.AttachTrades(*summary)
	}

	for _, w := range r.Warnings {
		log.Warn().Str("id", r.ID).Msg(w)
	}
	log.Info().
		Str("id", r.ID).
		Str("series", r.Series).
		Int("points", r.Points).
		Msg("Report generated")

	return report.Encode(cmd.OutOrStdout(), r, format, reportSeries)
}
