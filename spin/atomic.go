package spin

import (
	"sync/atomic"

	"github.com/llxisdsh/spinx/internal/state"
)

// AtomicCell holds a small value that is loaded and stored atomically.
//
// T must fit in 8 bytes, need at most 8-byte alignment, and contain no
// pointers: the value is copied bytewise into a uint64 word that the garbage
// collector does not scan. Every operation that takes a T checks all three
// and panics otherwise, the zero value included.
//
// CompareAndSwap compares the raw bytes, padding included.
//
// It is zero-value usable (holds the zero T).
type AtomicCell[T any] struct {
	_    noCopy
	bits atomic.Uint64
}

// NewAtomicCell returns a cell holding v. It panics if T is not suitable.
func NewAtomicCell[T any](v T) *AtomicCell[T] {
	c := &AtomicCell[T]{}
	c.bits.Store(state.EncodeCell(v))
	return c
}

// Load returns the current value.
func (c *AtomicCell[T]) Load() T {
	return state.DecodeCell[T](c.bits.Load())
}

// Store sets the value.
func (c *AtomicCell[T]) Store(v T) {
	c.bits.Store(state.EncodeCell(v))
}

// Swap sets the value and returns the previous one.
func (c *AtomicCell[T]) Swap(v T) T {
	return state.DecodeCell[T](c.bits.Swap(state.EncodeCell(v)))
}

// CompareAndSwap sets the value to new if it currently equals old.
func (c *AtomicCell[T]) CompareAndSwap(old, new T) bool {
	return c.bits.CompareAndSwap(state.EncodeCell(old), state.EncodeCell(new))
}

// CompareExchange is CompareAndSwap that also returns the value it saw:
// old on success, the conflicting value on failure.
func (c *AtomicCell[T]) CompareExchange(old, new T) (T, bool) {
	o, n := state.EncodeCell(old), state.EncodeCell(new)
	for {
		cur := c.bits.Load()
		if cur != o {
			return state.DecodeCell[T](cur), false
		}
		if c.bits.CompareAndSwap(o, n) {
			return old, true
		}
	}
}

// Update applies f until its result is stored without interference, backing
// off between failed attempts. f may run more than once and must not have
// side effects.
func (c *AtomicCell[T]) Update(f func(T) T) (old, new T) {
	var sw SpinWait
	for {
		cur := c.bits.Load()
		old = state.DecodeCell[T](cur)
		new = f(old)
		if c.bits.CompareAndSwap(cur, state.EncodeCell(new)) {
			return old, new
		}
		sw.SpinOrYield()
	}
}

// AtomicOption is an atomically swappable, optional, heap-allocated value.
//
// Take moves the value out and leaves the slot empty, so exactly one
// caller ends up owning it. The slot is never dereferenced by the
// wrapper itself.
//
// It is zero-value usable (starts empty).
type AtomicOption[T any] struct {
	_ noCopy
	p atomic.Pointer[T]
}

// NewAtomicOption returns a slot holding v, which may be nil.
func NewAtomicOption[T any](v *T) *AtomicOption[T] {
	o := &AtomicOption[T]{}
	o.p.Store(v)
	return o
}

// Swap stores v, which may be nil, and returns the previous value.
func (o *AtomicOption[T]) Swap(v *T) *T {
	return o.p.Swap(v)
}

// Take empties the slot and returns what it held, or nil.
func (o *AtomicOption[T]) Take() *T {
	return o.p.Swap(nil)
}

// Put stores v only if the slot is empty and reports whether it did.
func (o *AtomicOption[T]) Put(v *T) bool {
	return o.p.CompareAndSwap(nil, v)
}

// IsSome reports whether the slot holds a value.
func (o *AtomicOption[T]) IsSome() bool {
	return o.p.Load() != nil
}

// Clear empties the slot, dropping any value.
func (o *AtomicOption[T]) Clear() {
	o.p.Store(nil)
}

// AtomicFlag is a boolean with test-and-set semantics.
//
// It is zero-value usable (starts clear).
type AtomicFlag struct {
	_ noCopy
	v atomic.Uint32
}

// Set raises the flag.
func (f *AtomicFlag) Set() {
	f.v.Store(1)
}

// Clear lowers the flag.
func (f *AtomicFlag) Clear() {
	f.v.Store(0)
}

// IsSet reports whether the flag is raised.
func (f *AtomicFlag) IsSet() bool {
	return f.v.Load() != 0
}

// TestAndSet raises the flag and reports whether it was already raised.
func (f *AtomicFlag) TestAndSet() bool {
	return f.v.Swap(1) != 0
}
