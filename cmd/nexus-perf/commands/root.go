package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-trading/perf/internal/backtest"
	"github.com/nexus-trading/perf/internal/config"
	"github.com/nexus-trading/perf/internal/series"
)

var (
	// Global flags
	configFile string
	logLevel   string
	inputPath  string
	tradesPath string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nexus-perf",
	Short: "Sharpe ratio and drawdown analysis for return series",
	Long: `nexus-perf evaluates a time-ordered series of period returns.

Input is a CSV or JSON return file (--input), or a trade ledger CSV
(--trades) that is turned into per-trade returns on running capital.

Examples:
  nexus-perf sharpe --input returns.csv --frequency hourly
  nexus-perf drawdown --input returns.json --series
  nexus-perf report --trades trades.csv --config perf.yaml --format yaml`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override general.log_level")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "return series file (csv or json)")
	rootCmd.PersistentFlags().StringVar(&tradesPath, "trades", "", "trade ledger csv")
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if logLevel != "" {
		cfg.General.LogLevel = logLevel
	}

	if err := setupLogger(cmd.ErrOrStderr(), cfg.General); err != nil {
		return err
	}

	log.Debug().
		Str("instance_id", cfg.General.InstanceID).
		Float64("periods", cfg.Metrics.Periods).
		Str("drawdown_mode", cfg.Metrics.DrawdownMode).
		Msg("Configuration loaded")
	return nil
}

func setupLogger(w io.Writer, gc config.GeneralConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(gc.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", gc.LogLevel, err)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	if gc.LogFormat == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", "nexus-perf").
		Str("instance_id", gc.InstanceID).
		Logger()
	return nil
}

// loadInput returns the series named by --input or --trades, plus the trade
// summary when the input is a ledger.
func loadInput() (series.Series, *backtest.Summary, error) {
	switch {
	case inputPath != "" && tradesPath != "":
		return series.Series{}, nil, fmt.Errorf("--input and --trades are mutually exclusive")
	case inputPath != "":
		s, err := series.LoadFile(inputPath, seriesOptions(cfg.Input))
		return s, nil, err
	case tradesPath != "":
		trades, err := backtest.LoadTrades(tradesPath, cfg.Input.TimeLayout)
		if err != nil {
			return series.Series{}, nil, err
		}
		s, err := backtest.ReturnsFromTrades(tradesPath, trades, cfg.Input.InitialCapital)
		if err != nil {
			return series.Series{}, nil, err
		}
		sum, err := backtest.Summarize(trades, cfg.Input.InitialCapital)
		if err != nil {
			return series.Series{}, nil, err
		}
		log.Info().
			Str("ledger", tradesPath).
			Int("trades", sum.TradeCount).
			Float64("net_pnl", sum.NetPnL).
			Msg("Trade ledger converted to returns")
		return s, &sum, nil
	default:
		return series.Series{}, nil, fmt.Errorf("one of --input or --trades is required")
	}
}

func seriesOptions(ic config.InputConfig) series.Options {
	return series.Options{
		Format:       ic.Format,
		TimeColumn:   ic.TimeColumn,
		ReturnColumn: ic.ReturnColumn,
		TimeLayout:   ic.TimeLayout,
		Percent:      ic.Percent,
	}
}
