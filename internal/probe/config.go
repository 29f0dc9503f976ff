package probe

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the parameters of every workload.
type Config struct {
	Counter CounterConfig `mapstructure:"counter"`
	RWMix   RWMixConfig   `mapstructure:"rwmix"`
	Once    OnceConfig    `mapstructure:"once"`
}

// CounterConfig controls the lost-update workload.
type CounterConfig struct {
	// Workers is the number of goroutines incrementing the shared counter
	Workers int `mapstructure:"workers"`
	// Increments is how many times each worker increments
	Increments int `mapstructure:"increments"`
	// Raw selects RawMutex instead of the poisoning Mutex
	Raw bool `mapstructure:"raw"`
}

// RWMixConfig controls the reader/writer policy comparison.
type RWMixConfig struct {
	// Readers is the number of goroutines reading continuously
	Readers int `mapstructure:"readers"`
	// Duration is how long each policy is measured
	Duration time.Duration `mapstructure:"duration"`
	// WriteInterval is the pause between two writes of the single writer
	WriteInterval time.Duration `mapstructure:"write_interval"`
}

// OnceConfig controls the exactly-once workload.
type OnceConfig struct {
	// Racers is the number of goroutines calling GetOrInit together
	Racers int `mapstructure:"racers"`
	// Rounds is how many fresh OnceLocks are raced on
	Rounds int `mapstructure:"rounds"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Counter: CounterConfig{
			Workers:    8,
			Increments: 10_000,
		},
		RWMix: RWMixConfig{
			Readers:       4,
			Duration:      500 * time.Millisecond,
			WriteInterval: time.Millisecond,
		},
		Once: OnceConfig{
			Racers: 16,
			Rounds: 100,
		},
	}
}

// SetDefaults registers Default with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("counter.workers", defaults.Counter.Workers)
	viper.SetDefault("counter.increments", defaults.Counter.Increments)
	viper.SetDefault("counter.raw", defaults.Counter.Raw)

	viper.SetDefault("rwmix.readers", defaults.RWMix.Readers)
	viper.SetDefault("rwmix.duration", defaults.RWMix.Duration)
	viper.SetDefault("rwmix.write_interval", defaults.RWMix.WriteInterval)

	viper.SetDefault("once.racers", defaults.Once.Racers)
	viper.SetDefault("once.rounds", defaults.Once.Rounds)
}

// Load reads the configuration from viper and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode probe config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every out-of-range field.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("counter.workers", c.Counter.Workers)
	positive("counter.increments", c.Counter.Increments)
	positive("rwmix.readers", c.RWMix.Readers)
	positive("once.racers", c.Once.Racers)
	positive("once.rounds", c.Once.Rounds)
	if c.RWMix.Duration <= 0 {
		errs = append(errs, fmt.Errorf("rwmix.duration must be positive, got %s", c.RWMix.Duration))
	}
	if c.RWMix.WriteInterval < 0 {
		errs = append(errs, fmt.Errorf("rwmix.write_interval must not be negative, got %s", c.RWMix.WriteInterval))
	}
	return errors.Join(errs...)
}
