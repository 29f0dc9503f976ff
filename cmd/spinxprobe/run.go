package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/llxisdsh/spinx/internal/probe"
)

var workloadHelp = map[string]string{
	"counter": "Increment a Mutex-protected counter from many goroutines and count lost updates",
	"rwmix":   "Compare read throughput and writer delay of the two RwLock policies",
	"once":    "Race goroutines on OnceLock.GetOrInit and count initializer runs",
}

func init() {
	counterCmd := workloadCmd("counter")
	counterCmd.Flags().Int("workers", 0, "goroutines incrementing the counter")
	counterCmd.Flags().Int("increments", 0, "increments per goroutine")
	counterCmd.Flags().Bool("raw", false, "use RawMutex instead of Mutex")
	bindFlags(counterCmd.Flags(), "counter")

	rwmixCmd := workloadCmd("rwmix")
	rwmixCmd.Flags().Int("readers", 0, "goroutines reading continuously")
	rwmixCmd.Flags().Duration("duration", 0, "measurement time per policy")
	rwmixCmd.Flags().Duration("write-interval", 0, "pause between writes")
	bindFlags(rwmixCmd.Flags(), "rwmix")

	onceCmd := workloadCmd("once")
	onceCmd.Flags().Int("racers", 0, "goroutines racing per round")
	onceCmd.Flags().Int("rounds", 0, "number of fresh OnceLocks")
	bindFlags(onceCmd.Flags(), "once")

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Run every workload with the configured settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkloads(cmd.Context(), probe.Names()...)
		},
	}

	rootCmd.AddCommand(counterCmd, rwmixCmd, onceCmd, allCmd)
}

func workloadCmd(name string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: workloadHelp[name],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkloads(cmd.Context(), name)
		},
	}
}

// bindFlags binds each flag of fs to the viper key section.flag_name, so a
// flag only overrides the config when it is set.
func bindFlags(fs *pflag.FlagSet, section string) {
	fs.VisitAll(func(f *pflag.Flag) {
		key := section + "." + snake(f.Name)
		_ = viper.BindPFlag(key, f)
	})
}

func snake(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}

func runWorkloads(ctx context.Context, names ...string) error {
	cfg, err := probe.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	defer func() { _ = probe.Logger().Sync() }()

	var violations []error
	for _, name := range names {
		r, err := probe.Run(ctx, name, cfg)
		if err != nil {
			return err
		}
		if err := r.Err(); err != nil {
			violations = append(violations, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(violations...)
}
