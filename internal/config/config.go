// Package config loads forestctl's runtime configuration via
// github.com/spf13/viper, grounded on the perf-analysis service's own
// config.Load: a defaults-then-file-then-environment layering, unmarshaled
// into a mapstructure-tagged struct and validated before use.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is forestctl's top-level configuration.
type Config struct {
	Forest ForestConfig `mapstructure:"forest"`
	Log    LogConfig    `mapstructure:"log"`
}

// ForestConfig controls the demo forest the CLI builds and operates on.
type ForestConfig struct {
	// DataSize is the per-quadrant payload size, in bytes, of the pool the
	// demo forest allocates from.
	DataSize int `mapstructure:"data_size"`

	// RefineLevel is the uniform refinement depth applied to the single
	// demo tree before balancing.
	RefineLevel uint8 `mapstructure:"refine_level"`

	// BalanceMode selects "face" or "full" balance.
	BalanceMode string `mapstructure:"balance_mode"`

	// RejectOutOfBoundsParent forwards to balance.Options, per OQ-3.
	RejectOutOfBoundsParent bool `mapstructure:"reject_out_of_bounds_parent"`

	// NumProcs is the simulated rank count the local partition simulator
	// reshuffles the demo forest's quadrants across.
	NumProcs int32 `mapstructure:"num_procs"`
}

// LogConfig controls internal/flog's output level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from configPath (YAML), falling back to defaults
// when the path is empty or the file does not exist, then lets environment
// variables of the form FORESTCTL_FOREST_REFINE_LEVEL etc. override.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
			}
		}
	}

	v.SetEnvPrefix("FORESTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("forest.data_size", 0)
	v.SetDefault("forest.refine_level", 2)
	v.SetDefault("forest.balance_mode", "face")
	v.SetDefault("forest.reject_out_of_bounds_parent", false)
	v.SetDefault("forest.num_procs", 1)
	v.SetDefault("log.level", "info")
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Forest.RefineLevel == 0 {
		return fmt.Errorf("forest.refine_level must be at least 1")
	}
	if c.Forest.BalanceMode != "face" && c.Forest.BalanceMode != "full" {
		return fmt.Errorf("forest.balance_mode must be \"face\" or \"full\", got %q", c.Forest.BalanceMode)
	}
	if c.Forest.NumProcs < 1 {
		return fmt.Errorf("forest.num_procs must be at least 1")
	}

	return nil
}
