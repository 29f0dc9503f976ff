package probe

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/spinx"
)

// OnceReport is the result of RunOnce.
type OnceReport struct {
	Racers int
	Rounds int
	// Executions is the number of initializer calls over all rounds.
	Executions int64
	// Mismatches counts racers that got a value other than their round's.
	Mismatches int64
	Elapsed    time.Duration
}

// Name implements Report.
func (r *OnceReport) Name() string { return "once" }

// Fields implements Report.
func (r *OnceReport) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("racers", r.Racers),
		zap.Int("rounds", r.Rounds),
		zap.Int64("executions", r.Executions),
		zap.Int64("mismatches", r.Mismatches),
		zap.Duration("elapsed", r.Elapsed),
	}
}

// Err implements Report.
func (r *OnceReport) Err() error {
	if r.Executions != int64(r.Rounds) {
		return fmt.Errorf("%w: %d initializer runs over %d rounds", ErrViolation, r.Executions, r.Rounds)
	}
	if r.Mismatches != 0 {
		return fmt.Errorf("%w: %d racers observed a foreign value", ErrViolation, r.Mismatches)
	}
	return nil
}

// RunOnce races Racers goroutines on GetOrInit of a fresh OnceLock, Rounds
// times. Every round must run its initializer once and hand every racer the
// same value.
func RunOnce(ctx context.Context, cfg OnceConfig) (*OnceReport, error) {
	r := &OnceReport{Racers: cfg.Racers, Rounds: cfg.Rounds}
	var executions, mismatches atomic.Int64

	start := time.Now()
	for round := range cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var cell spinx.OnceLock[int]
		var gate spinx.AtomicFlag
		var eg errgroup.Group
		for range cfg.Racers {
			eg.Go(func() error {
				var sw spinx.SpinWait
				for !gate.IsSet() {
					sw.SpinOrYield()
				}
				v := cell.GetOrInit(func() int {
					executions.Add(1)
					return round
				})
				if *v != round {
					mismatches.Add(1)
				}
				return nil
			})
		}
		gate.Set()
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	r.Elapsed = time.Since(start)
	r.Executions = executions.Load()
	r.Mismatches = mismatches.Load()
	return r, nil
}
