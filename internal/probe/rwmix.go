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

// PolicyReport is what one RwLock policy achieved under RunRWMix.
type PolicyReport struct {
	Policy string
	// Reads is the number of read critical sections completed.
	Reads int64
	// Writes is the number of write critical sections completed.
	Writes int64
	// MaxWriteWait is the longest a single Write call spun.
	MaxWriteWait time.Duration
	// Overlaps counts critical sections that saw a writer alongside
	// another holder. It must be zero.
	Overlaps int64
}

// RWMixReport compares the writer- and reader-preferring RwLocks.
type RWMixReport struct {
	Readers  int
	Duration time.Duration
	Writer   PolicyReport
	Reader   PolicyReport
}

// Name implements Report.
func (r *RWMixReport) Name() string { return "rwmix" }

// Fields implements Report.
func (r *RWMixReport) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("readers", r.Readers),
		zap.Duration("duration", r.Duration),
		zap.Int64("writer_pref.reads", r.Writer.Reads),
		zap.Int64("writer_pref.writes", r.Writer.Writes),
		zap.Duration("writer_pref.max_write_wait", r.Writer.MaxWriteWait),
		zap.Int64("reader_pref.reads", r.Reader.Reads),
		zap.Int64("reader_pref.writes", r.Reader.Writes),
		zap.Duration("reader_pref.max_write_wait", r.Reader.MaxWriteWait),
	}
}

// Err implements Report. The writer-preferring lock must let its writer in;
// the reader-preferring lock is allowed to starve it.
func (r *RWMixReport) Err() error {
	for _, p := range []PolicyReport{r.Writer, r.Reader} {
		if p.Overlaps != 0 {
			return fmt.Errorf("%w: %s lock admitted a writer alongside other holders %d times",
				ErrViolation, p.Policy, p.Overlaps)
		}
	}
	if r.Writer.Writes == 0 {
		return fmt.Errorf("%w: writer starved under the writer-preferring policy", ErrViolation)
	}
	return nil
}

// rwTarget is the part of the poisoning RwLock API the workload needs.
type rwTarget interface {
	Read() spinx.RwLockReadGuard[int64]
	Write() (spinx.RwLockWriteGuard[int64], error)
}

// RunRWMix measures each RwLock policy for Duration with Readers goroutines
// reading back to back and one writer writing every WriteInterval.
func RunRWMix(ctx context.Context, cfg RWMixConfig) (*RWMixReport, error) {
	r := &RWMixReport{Readers: cfg.Readers, Duration: cfg.Duration}

	var err error
	if r.Writer, err = runPolicy(ctx, "writer_preferring", spinx.NewRwLock[int64](0), cfg); err != nil {
		return nil, err
	}
	if r.Reader, err = runPolicy(ctx, "reader_preferring", spinx.NewReaderRwLock[int64](0), cfg); err != nil {
		return nil, err
	}
	return r, nil
}

func runPolicy(ctx context.Context, name string, l rwTarget, cfg RWMixConfig) (PolicyReport, error) {
	p := PolicyReport{Policy: name}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var (
		reads, writes, overlaps atomic.Int64
		maxWait                 atomic.Int64
		inside                  atomic.Int32
		writing                 atomic.Bool
	)

	eg, ctx := errgroup.WithContext(ctx)
	for range cfg.Readers {
		eg.Go(func() error {
			for ctx.Err() == nil {
				g := l.Read()
				inside.Add(1)
				if writing.Load() {
					overlaps.Add(1)
				}
				_ = *g.Get()
				inside.Add(-1)
				g.Unlock()
				reads.Add(1)
			}
			return nil
		})
	}

	eg.Go(func() error {
		for ctx.Err() == nil {
			start := time.Now()
			g, err := l.Write()
			if wait := int64(time.Since(start)); wait > maxWait.Load() {
				maxWait.Store(wait)
			}
			if err != nil {
				g.Unlock()
				return err
			}
			writing.Store(true)
			if inside.Load() != 0 {
				overlaps.Add(1)
			}
			*g.Get()++
			writing.Store(false)
			g.Unlock()
			writes.Add(1)

			if cfg.WriteInterval > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(cfg.WriteInterval):
				}
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return p, err
	}

	p.Reads = reads.Load()
	p.Writes = writes.Load()
	p.MaxWriteWait = time.Duration(maxWait.Load())
	p.Overlaps = overlaps.Load()
	Logger().Debug("policy measured",
		zap.String("policy", name),
		zap.Int64("reads", p.Reads),
		zap.Int64("writes", p.Writes))
	return p, nil
}
