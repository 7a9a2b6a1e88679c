// Package config aggregates the deployment configuration surface of the scan
// pipeline into one struct loaded from YAML over documented defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pablonification/compfest-spartans-sub000/internal/actuator"
	"github.com/pablonification/compfest-spartans-sub000/internal/brand"
	"github.com/pablonification/compfest-spartans-sub000/internal/measure"
	"github.com/pablonification/compfest-spartans-sub000/internal/payout"
	"github.com/pablonification/compfest-spartans-sub000/internal/scan"
)

// Config is the full tunable surface: HSV bounds, geometry thresholds, spec
// tables, payout tables, validation band, classifier endpoint and actuator
// link. Every component receives its slice of this struct at construction
// time; nothing reads mutable globals.
type Config struct {
	Measure   measure.MeasurerOptions `mapstructure:"measure"`
	Payout    payout.Options          `mapstructure:"payout"`
	Validator scan.ValidatorOptions   `mapstructure:"validator"`
	Service   scan.ServiceOptions     `mapstructure:"service"`
	Brand     brand.ClientOptions     `mapstructure:"brand"`
	Actuator  actuator.Options        `mapstructure:"actuator"`
}

// Default returns the canonical configuration. Values match the production
// tuning: 4 cm2 contour target, spec table including the 600 mL entry.
func Default() Config {
	return Config{
		Measure:   measure.DefaultMeasurerOptions(),
		Payout:    payout.DefaultOptions(),
		Validator: scan.DefaultValidatorOptions(),
		Service:   scan.DefaultServiceOptions(),
		Brand:     brand.DefaultClientOptions(),
		Actuator:  actuator.DefaultOptions(),
	}
}

// Load reads a YAML config file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
