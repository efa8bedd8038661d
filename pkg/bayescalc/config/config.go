package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
)

// Config holds calculator settings. There is no ambient/global state: the
// loaded struct is passed explicitly to the constructors that need it.
type Config struct {
	// Prompt is the interactive prompt string.
	Prompt string `yaml:"prompt"`
	// HistoryFile is where the interactive session persists its input history.
	HistoryFile string `yaml:"history_file"`
	// Places is the number of decimals used when printing probabilities and
	// entropies.
	Places int `yaml:"places"`

	Analytics AnalyticsConfig `yaml:"analytics"`
}

// AnalyticsConfig overrides the numeric tolerances of the analytics layer.
// Zero values keep the defaults.
type AnalyticsConfig struct {
	StratumEpsilon float64 `yaml:"stratum_epsilon"`
	RelTol         float64 `yaml:"rel_tol"`
	AbsTol         float64 `yaml:"abs_tol"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Prompt:      ">> ",
		HistoryFile: ".bayescalc_history",
		Places:      6,
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Places < 0 {
		return fmt.Errorf("%w: places must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Analytics.StratumEpsilon < 0 || c.Analytics.RelTol < 0 || c.Analytics.AbsTol < 0 {
		return fmt.Errorf("%w: analytics tolerances must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}
