package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/llxisdsh/spinx"
	"github.com/llxisdsh/spinx/internal/probe"
)

var rootCmd = &cobra.Command{
	Use:   "spinxprobe",
	Short: "Stress the spinx primitives and check their guarantees",
	Long: `spinxprobe drives the spinx locks from many goroutines and measures
what the documentation promises: no lost updates through a Mutex, exactly one
initializer run per OnceLock, and a writer that is never starved by the
writer-preferring RwLock.

Settings come from flags, SPINX_* environment variables (SPINX_COUNTER_WORKERS
for counter.workers), or a YAML config file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./spinxprobe.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "human-readable debug logging")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	probe.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("spinxprobe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SPINX")
	// SPINX_RWMIX_DURATION for rwmix.duration
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env still apply.
	_ = viper.ReadInConfig()
}

func setupLogger(*cobra.Command, []string) error {
	var (
		l   *zap.Logger
		err error
	)
	if viper.GetBool("verbose") {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	probe.SetLogger(l.With(
		zap.String("platform", spinx.Platform),
		zap.Bool("threaded", spinx.Threaded),
	))
	return nil
}
