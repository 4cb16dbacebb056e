package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nexus-trading/perf/internal/performance"
)

// Drawdown modes.
const (
	DrawdownRaw    = "raw"    // high-water mark over the raw return values
	DrawdownEquity = "equity" // high-water mark over the compounded equity curve
)

// Config is the root configuration structure for nexus-perf.
type Config struct {
	General GeneralConfig `yaml:"general"`
	Metrics MetricsConfig `yaml:"metrics"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
}

type GeneralConfig struct {
	InstanceID string `yaml:"instance_id"`
	EnvFile    string `yaml:"env_file"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"` // json|text
}

type MetricsConfig struct {
	// Periods is the annualization factor. When zero it is derived from
	// Frequency.
	Periods      float64 `yaml:"periods"`
	Frequency    string  `yaml:"frequency"`     // daily|hourly|minutely
	DrawdownMode string  `yaml:"drawdown_mode"` // raw|equity
}

type InputConfig struct {
	Format         string  `yaml:"format"` // csv|json; empty picks by extension
	TimeColumn     string  `yaml:"time_column"`
	ReturnColumn   string  `yaml:"return_column"`
	TimeLayout     string  `yaml:"time_layout"`
	Percent        bool    `yaml:"percent"`
	InitialCapital float64 `yaml:"initial_capital"` // for trade ledgers
}

type OutputConfig struct {
	Format string `yaml:"format"` // json|yaml|text
}

var frequencies = map[string]float64{
	"daily":    performance.PeriodsDaily,
	"hourly":   performance.PeriodsHourly,
	"minutely": performance.PeriodsMinutely,
}

// PeriodsFor returns the annualization factor for a named sampling frequency.
func PeriodsFor(frequency string) (float64, bool) {
	p, ok := frequencies[frequency]
	return p, ok
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a YAML configuration file. If general.env_file is
// set, or a .env file sits in the working directory, its variables are
// loaded before ${VAR} references are expanded. Variables already present
// in the environment win.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var pre struct {
		General struct {
			EnvFile string `yaml:"env_file"`
		} `yaml:"general"`
	}
	if err := yaml.Unmarshal(data, &pre); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := loadEnvFile(pre.General.EnvFile); err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.General.InstanceID == "" {
		cfg.General.InstanceID = "nexus-perf-1"
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}
	if cfg.Metrics.Frequency == "" {
		cfg.Metrics.Frequency = "daily"
	}
	if cfg.Metrics.Periods == 0 {
		if p, ok := PeriodsFor(cfg.Metrics.Frequency); ok {
			cfg.Metrics.Periods = p
		}
	}
	if cfg.Metrics.DrawdownMode == "" {
		cfg.Metrics.DrawdownMode = DrawdownRaw
	}
	if cfg.Input.InitialCapital == 0 {
		cfg.Input.InitialCapital = 10000
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if _, ok := PeriodsFor(c.Metrics.Frequency); !ok {
		return fmt.Errorf("config: unknown metrics.frequency %q", c.Metrics.Frequency)
	}
	if c.Metrics.Periods <= 0 {
		return fmt.Errorf("config: metrics.periods must be positive, got %v", c.Metrics.Periods)
	}
	switch c.Metrics.DrawdownMode {
	case DrawdownRaw, DrawdownEquity:
	default:
		return fmt.Errorf("config: unknown metrics.drawdown_mode %q", c.Metrics.DrawdownMode)
	}
	switch c.General.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown general.log_format %q", c.General.LogFormat)
	}
	switch c.Output.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("config: unknown output.format %q", c.Output.Format)
	}
	if c.Input.InitialCapital <= 0 {
		return fmt.Errorf("config: input.initial_capital must be positive, got %v", c.Input.InitialCapital)
	}
	return nil
}
