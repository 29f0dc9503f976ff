package nop

import "github.com/llxisdsh/spinx/internal/state"

// AtomicCell holds a small value. It accepts the same types as
// spin.AtomicCell and compares the same bytes, so code behaves identically
// on both.
//
// It is zero-value usable.
type AtomicCell[T any] struct {
	_    noCopy
	bits uint64
}

// NewAtomicCell returns a cell holding v. It panics if T is not suitable.
func NewAtomicCell[T any](v T) *AtomicCell[T] {
	return &AtomicCell[T]{bits: state.EncodeCell(v)}
}

// Load returns the current value.
func (c *AtomicCell[T]) Load() T { return state.DecodeCell[T](c.bits) }

// Store sets the value.
func (c *AtomicCell[T]) Store(v T) { c.bits = state.EncodeCell(v) }

// Swap sets the value and returns the previous one.
func (c *AtomicCell[T]) Swap(v T) T {
	old := c.bits
	c.bits = state.EncodeCell(v)
	return state.DecodeCell[T](old)
}

// CompareAndSwap sets the value to new if it currently equals old.
func (c *AtomicCell[T]) CompareAndSwap(old, new T) bool {
	_, ok := c.CompareExchange(old, new)
	return ok
}

// CompareExchange is CompareAndSwap that also returns the value it saw.
func (c *AtomicCell[T]) CompareExchange(old, new T) (T, bool) {
	o, n := state.EncodeCell(old), state.EncodeCell(new)
	if c.bits != o {
		return state.DecodeCell[T](c.bits), false
	}
	c.bits = n
	return old, true
}

// Update stores f applied to the current value.
func (c *AtomicCell[T]) Update(f func(T) T) (old, new T) {
	old = c.Load()
	new = f(old)
	c.Store(new)
	return old, new
}

// AtomicOption is an optional, heap-allocated value.
//
// It is zero-value usable (starts empty).
type AtomicOption[T any] struct {
	_ noCopy
	p *T
}

// NewAtomicOption returns a slot holding v, which may be nil.
func NewAtomicOption[T any](v *T) *AtomicOption[T] {
	return &AtomicOption[T]{p: v}
}

// Swap stores v and returns the previous value.
func (o *AtomicOption[T]) Swap(v *T) *T {
	old := o.p
	o.p = v
	return old
}

// Take empties the slot and returns what it held, or nil.
func (o *AtomicOption[T]) Take() *T { return o.Swap(nil) }

// Put stores v only if the slot is empty and reports whether it did.
func (o *AtomicOption[T]) Put(v *T) bool {
	if o.p != nil {
		return false
	}
	o.p = v
	return true
}

// IsSome reports whether the slot holds a value.
func (o *AtomicOption[T]) IsSome() bool { return o.p != nil }

// Clear empties the slot.
func (o *AtomicOption[T]) Clear() { o.p = nil }

// AtomicFlag is a boolean with test-and-set semantics.
//
// It is zero-value usable (starts clear).
type AtomicFlag struct {
	_ noCopy
	v bool
}

// Set raises the flag.
func (f *AtomicFlag) Set() { f.v = true }

// Clear lowers the flag.
func (f *AtomicFlag) Clear() { f.v = false }

// IsSet reports whether the flag is raised.
func (f *AtomicFlag) IsSet() bool { return f.v }

// TestAndSet raises the flag and reports whether it was already raised.
func (f *AtomicFlag) TestAndSet() bool {
	old := f.v
	f.v = true
	return old
}
