package spin

import (
	"sync/atomic"

	"github.com/llxisdsh/spinx/internal/state"
)

// Once runs an initializer exactly once across all goroutines.
//
// State machine: incomplete → running → complete, with a terminal poisoned
// state reached when the initializer panics or calls runtime.Goexit. The
// goroutine that wins the incomplete → running CAS runs the function; every
// other caller spins until the state leaves running.
//
// Calling Do on a poisoned Once panics with ErrOncePoisoned: an initializer
// that already failed cannot be retried safely.
//
// It is zero-value usable.
//
// Size: 4 bytes.
type Once struct {
	_     noCopy
	state atomic.Uint32
}

// Do calls f if and only if Do is being called for the first time on this
// Once. When Do returns, f has completed, whichever goroutine ran it.
//
// f must not call Do on the same Once; it would spin forever.
func (o *Once) Do(f func()) {
	if state.Once(o.state.Load()) == state.OnceComplete {
		return
	}
	o.doSlow(f)
}

func (o *Once) doSlow(f func()) {
	var sw SpinWait
	for {
		switch state.Once(o.state.Load()) {
		case state.OnceComplete:
			return
		case state.OncePoisoned:
			panic(ErrOncePoisoned)
		case state.OnceIncomplete:
			if o.state.CompareAndSwap(uint32(state.OnceIncomplete), uint32(state.OnceRunning)) {
				o.run(f)
				return
			}
		default:
			sw.SpinOrYield()
		}
	}
}

func (o *Once) run(f func()) {
	normalReturn := false
	defer func() {
		if normalReturn {
			o.state.Store(uint32(state.OnceComplete))
		} else {
			// Panic or Goexit. Either way the initializer did not finish.
			o.state.Store(uint32(state.OncePoisoned))
		}
	}()
	f()
	normalReturn = true
}

// Wait spins until another goroutine completes the Once. It panics with
// ErrOncePoisoned if the initializer failed.
func (o *Once) Wait() {
	var sw SpinWait
	for {
		switch state.Once(o.state.Load()) {
		case state.OnceComplete:
			return
		case state.OncePoisoned:
			panic(ErrOncePoisoned)
		}
		sw.SpinOrYield()
	}
}

// IsCompleted reports whether the initializer has run to completion.
func (o *Once) IsCompleted() bool {
	return state.Once(o.state.Load()) == state.OnceComplete
}

// IsPoisoned reports whether the initializer panicked.
func (o *Once) IsPoisoned() bool {
	return state.Once(o.state.Load()) == state.OncePoisoned
}

// OnceLock is a value written at most once.
//
// GetOrInit calls its function only on the goroutine that wins the race;
// every caller, winner and losers, gets a pointer to the same stored value.
// The pointer must not be written through.
//
// It is zero-value usable.
type OnceLock[T any] struct {
	once  Once
	value T
}

// Get returns the value if it has been initialized.
func (c *OnceLock[T]) Get() (*T, bool) {
	if !c.once.IsCompleted() {
		return nil, false
	}
	return &c.value, true
}

// GetOrInit returns the value, initializing it with f if needed.
func (c *OnceLock[T]) GetOrInit(f func() T) *T {
	if !c.once.IsCompleted() {
		c.once.Do(func() {
			c.value = f()
		})
	}
	return &c.value
}

// Set stores v if the cell is empty and reports whether it did.
func (c *OnceLock[T]) Set(v T) bool {
	set := false
	c.once.Do(func() {
		c.value = v
		set = true
	})
	return set
}

// Wait spins until the value is initialized by another goroutine.
func (c *OnceLock[T]) Wait() *T {
	c.once.Wait()
	return &c.value
}

// IsInitialized reports whether the value has been stored.
func (c *OnceLock[T]) IsInitialized() bool {
	return c.once.IsCompleted()
}

// Lazy is a value computed on first access.
//
// It is the portable stand-in for a statically initialized global:
//
//	var table = spin.NewLazy(buildTable)
//
//	func lookup(k int) int { return (*table.Get())[k] }
type Lazy[T any] struct {
	cell OnceLock[T]
	init func() T
}

// NewLazy returns a Lazy that computes its value with f.
func NewLazy[T any](f func() T) *Lazy[T] {
	if f == nil {
		panic("spinx: nil Lazy initializer")
	}
	return &Lazy[T]{init: f}
}

// Get returns the value, computing it on the first call.
func (l *Lazy[T]) Get() *T {
	if l.init == nil {
		panic("spinx: Lazy used without NewLazy")
	}
	return l.cell.GetOrInit(l.init)
}

// IsInitialized reports whether the value has been computed.
func (l *Lazy[T]) IsInitialized() bool {
	return l.cell.IsInitialized()
}
