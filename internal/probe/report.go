// Package probe runs contention workloads against the spinx primitives and
// checks the properties they promise: no lost updates, exactly-once
// initialization, and no writer starvation under the writer-preferring
// policy.
package probe

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrViolation is wrapped by every Report.Err that found a broken invariant.
var ErrViolation = errors.New("probe: invariant violated")

// Report is the outcome of one workload.
type Report interface {
	// Name is the workload name.
	Name() string
	// Fields renders the measurements for structured logging.
	Fields() []zap.Field
	// Err is non-nil when a measured invariant does not hold.
	Err() error
}

// Workload runs against a configuration and reports what it measured.
type Workload func(ctx context.Context, cfg *Config) (Report, error)

var workloads = map[string]Workload{
	"counter": func(ctx context.Context, cfg *Config) (Report, error) {
		return RunCounter(ctx, cfg.Counter)
	},
	"rwmix": func(ctx context.Context, cfg *Config) (Report, error) {
		return RunRWMix(ctx, cfg.RWMix)
	},
	"once": func(ctx context.Context, cfg *Config) (Report, error) {
		return RunOnce(ctx, cfg.Once)
	},
}

// Names lists the registered workloads in order.
func Names() []string {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run runs the named workload and logs its report.
func Run(ctx context.Context, name string, cfg *Config) (Report, error) {
	w, ok := workloads[name]
	if !ok {
		return nil, fmt.Errorf("unknown workload %q", name)
	}
	Logger().Debug("workload starting", zap.String("workload", name))
	r, err := w(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	Log(r)
	return r, nil
}

// Log writes r to the package logger, at error level if it failed.
func Log(r Report) {
	fields := append([]zap.Field{zap.String("workload", r.Name())}, r.Fields()...)
	if err := r.Err(); err != nil {
		Logger().Error("invariant violated", append(fields, zap.Error(err))...)
		return
	}
	Logger().Info("workload passed", fields...)
}
