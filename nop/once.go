package nop

import (
	"runtime"

	"github.com/llxisdsh/spinx/internal/state"
)

// Once runs an initializer exactly once. It follows the same state machine
// as spin.Once, including poisoning on panic or runtime.Goexit.
//
// It is zero-value usable.
type Once struct {
	_     noCopy
	state state.Once
}

// Do calls f if Do has not been called before. When another goroutine is
// running f, Do yields until it finishes. It panics with ErrOncePoisoned if
// f panicked.
//
// f must not call Do on the same Once; it would yield forever.
func (o *Once) Do(f func()) {
	for o.state != state.OnceIncomplete {
		switch o.state {
		case state.OnceComplete:
			return
		case state.OncePoisoned:
			panic(ErrOncePoisoned)
		}
		runtime.Gosched()
	}

	o.state = state.OnceRunning
	normalReturn := false
	defer func() {
		if normalReturn {
			o.state = state.OnceComplete
		} else {
			o.state = state.OncePoisoned
		}
	}()
	f()
	normalReturn = true
}

// Wait yields until another goroutine completes the Once. It panics with
// ErrOncePoisoned if the initializer failed.
func (o *Once) Wait() {
	for {
		switch o.state {
		case state.OnceComplete:
			return
		case state.OncePoisoned:
			panic(ErrOncePoisoned)
		}
		runtime.Gosched()
	}
}

// IsCompleted reports whether the initializer has run to completion.
func (o *Once) IsCompleted() bool { return o.state == state.OnceComplete }

// IsPoisoned reports whether the initializer panicked.
func (o *Once) IsPoisoned() bool { return o.state == state.OncePoisoned }

// OnceLock is a value written at most once.
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
	c.once.Do(func() {
		c.value = f()
	})
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

// Wait yields until the value is initialized by another goroutine.
func (c *OnceLock[T]) Wait() *T {
	c.once.Wait()
	return &c.value
}

// IsInitialized reports whether the value has been stored.
func (c *OnceLock[T]) IsInitialized() bool { return c.once.IsCompleted() }

// Lazy is a value computed on first access.
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
func (l *Lazy[T]) IsInitialized() bool { return l.cell.IsInitialized() }
