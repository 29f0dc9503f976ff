//go:build !wasm || spinx_wasm_threads

package spinx

import impl "github.com/llxisdsh/spinx/spin"

// Spinning primitives. See package spin for the implementation.
type (
	SpinLock                     = impl.SpinLock
	Mutex[T any]                 = impl.Mutex[T]
	MutexGuard[T any]            = impl.MutexGuard[T]
	RawMutex[T any]              = impl.RawMutex[T]
	RawMutexGuard[T any]         = impl.RawMutexGuard[T]
	RwLock[T any]                = impl.RwLock[T]
	ReaderRwLock[T any]          = impl.ReaderRwLock[T]
	RawRwLock[T any]             = impl.RawRwLock[T]
	RwLockReadGuard[T any]       = impl.RwLockReadGuard[T]
	RwLockWriteGuard[T any]      = impl.RwLockWriteGuard[T]
	RawRwLockWriteGuard[T any]   = impl.RawRwLockWriteGuard[T]
	Once                         = impl.Once
	OnceLock[T any]              = impl.OnceLock[T]
	Lazy[T any]                  = impl.Lazy[T]
	OnceMap[K comparable, V any] = impl.OnceMap[K, V]
	AtomicCell[T any]            = impl.AtomicCell[T]
	AtomicOption[T any]          = impl.AtomicOption[T]
	AtomicFlag                   = impl.AtomicFlag
	SpinBarrier                  = impl.SpinBarrier
	SpinWait                     = impl.SpinWait
)

// NewMutex returns a Mutex holding v.
func NewMutex[T any](v T) *Mutex[T] { return impl.NewMutex(v) }

// NewRawMutex returns a RawMutex holding v.
func NewRawMutex[T any](v T) *RawMutex[T] { return impl.NewRawMutex(v) }

// NewRwLock returns a writer-preferring RwLock holding v.
func NewRwLock[T any](v T) *RwLock[T] { return impl.NewRwLock(v) }

// NewReaderRwLock returns a reader-preferring RwLock holding v.
func NewReaderRwLock[T any](v T) *ReaderRwLock[T] { return impl.NewReaderRwLock(v) }

// NewRawRwLock returns a non-poisoning RwLock holding v.
func NewRawRwLock[T any](v T) *RawRwLock[T] { return impl.NewRawRwLock(v) }

// NewLazy returns a Lazy that computes its value with f on first access.
func NewLazy[T any](f func() T) *Lazy[T] { return impl.NewLazy(f) }

// NewOnceMap returns an empty OnceMap.
func NewOnceMap[K comparable, V any]() *OnceMap[K, V] { return impl.NewOnceMap[K, V]() }

// NewAtomicCell returns a cell holding v. It panics if T is wider than 8
// bytes or contains pointers.
func NewAtomicCell[T any](v T) *AtomicCell[T] { return impl.NewAtomicCell(v) }

// NewAtomicOption returns a slot holding v, which may be nil.
func NewAtomicOption[T any](v *T) *AtomicOption[T] { return impl.NewAtomicOption(v) }

// NewSpinBarrier returns a barrier for n participants.
func NewSpinBarrier(n int) *SpinBarrier { return impl.NewSpinBarrier(n) }
