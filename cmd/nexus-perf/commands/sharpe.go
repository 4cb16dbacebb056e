package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-trading/perf/internal/config"
	"github.com/nexus-trading/perf/internal/performance"
)

var sharpeCmd = &cobra.Command{
	Use:   "sharpe",
	Short: "Annualized Sharpe ratio (zero risk-free rate)",
	Long: `Prints sqrt(periods) * mean / stddev of the return series, using the
population standard deviation.

The annualization factor comes from --periods, else --frequency, else the
config file (daily = 252, hourly = 252*6.5, minutely = 252*6.5*60).

Example:
  nexus-perf sharpe --input returns.csv
  nexus-perf sharpe --input minute.csv --frequency minutely`,
	RunE: runSharpe,
}

var (
	sharpePeriods   float64
	sharpeFrequency string
)

func init() {
	rootCmd.AddCommand(sharpeCmd)

	sharpeCmd.Flags().Float64Var(&sharpePeriods, "periods", 0, "annualization factor (overrides config)")
	sharpeCmd.Flags().StringVar(&sharpeFrequency, "frequency", "", "daily|hourly|minutely (overrides config)")
}

func runSharpe(cmd *cobra.Command, _ []string) error {
	periods, err := resolvePeriods(sharpePeriods, sharpeFrequency)
	if err != nil {
		return err
	}

	s, _, err := loadInput()
	if err != nil {
		return err
	}

	sharpe, err := performance.SharpeRatio(s.Values(), periods)
	if err != nil {
		return fmt.Errorf("sharpe for %s: %w", s.Name, err)
	}

	log.Info().
		Str("series", s.Name).
		Int("points", s.Len()).
		Float64("periods", periods).
		Float64("sharpe", sharpe).
		Msg("Sharpe ratio computed")

	fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", sharpe)
	return nil
}

func resolvePeriods(periods float64, frequency string) (float64, error) {
	if periods != 0 {
		return periods, nil
	}
	if frequency == "" {
		return cfg.Metrics.Periods, nil
	}
	p, ok := config.PeriodsFor(frequency)
	if !ok {
		return 0, fmt.Errorf("unknown frequency %q", frequency)
	}
	return p, nil
}
