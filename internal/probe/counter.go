package probe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/spinx"
)

// CounterReport is the result of RunCounter.
type CounterReport struct {
	Workers    int
	Increments int
	Raw        bool
	Expected   int64
	Got        int64
	Elapsed    time.Duration
}

// Name implements Report.
func (r *CounterReport) Name() string { return "counter" }

// LostUpdates is the number of increments that did not land.
func (r *CounterReport) LostUpdates() int64 { return r.Expected - r.Got }

// Fields implements Report.
func (r *CounterReport) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("workers", r.Workers),
		zap.Int("increments", r.Increments),
		zap.Bool("raw", r.Raw),
		zap.Int64("expected", r.Expected),
		zap.Int64("got", r.Got),
		zap.Int64("lost", r.LostUpdates()),
		zap.Duration("elapsed", r.Elapsed),
	}
}

// Err implements Report.
func (r *CounterReport) Err() error {
	if r.Got != r.Expected {
		return fmt.Errorf("%w: counter = %d, want %d", ErrViolation, r.Got, r.Expected)
	}
	return nil
}

// RunCounter has Workers goroutines each add Increments to a counter held by
// a mutex. Any shortfall is a lost update.
func RunCounter(ctx context.Context, cfg CounterConfig) (*CounterReport, error) {
	r := &CounterReport{
		Workers:    cfg.Workers,
		Increments: cfg.Increments,
		Raw:        cfg.Raw,
		Expected:   int64(cfg.Workers) * int64(cfg.Increments),
	}

	var inc func()
	var read func() int64
	if cfg.Raw {
		m := spinx.NewRawMutex[int64](0)
		inc = func() {
			g := m.Lock()
			*g.Get()++
			g.Unlock()
		}
		read = func() int64 {
			g := m.Lock()
			defer g.Unlock()
			return *g.Get()
		}
	} else {
		m := spinx.NewMutex[int64](0)
		inc = func() {
			g, _ := m.Lock()
			*g.Get()++
			g.Unlock()
		}
		read = func() int64 {
			g, _ := m.Lock()
			defer g.Unlock()
			return *g.Get()
		}
	}

	start := time.Now()
	eg, ctx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		eg.Go(func() error {
			for i := range cfg.Increments {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				inc()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	r.Elapsed = time.Since(start)
	r.Got = read()
	return r, nil
}
