package spinx

import (
	"sync"

	"github.com/llxisdsh/spinx/nop"
	"github.com/llxisdsh/spinx/spin"
)

// The two implementations must stay interchangeable behind the aliases.
// These interfaces pin the shared method sets at compile time.

type mutexAPI[G any] interface {
	Lock() (G, error)
	TryLock() (G, error)
	LockSpin(int) (G, error)
	IsLocked() bool
	IsPoisoned() bool
	ClearPoison()
}

type rawMutexAPI[G any] interface {
	Lock() G
	TryLock() (G, error)
	LockSpin(int) (G, error)
	IsLocked() bool
}

type rwLockAPI[R, W any] interface {
	Read() R
	TryRead() (R, error)
	ReadSpin(int) (R, error)
	Write() (W, error)
	TryWrite() (W, error)
	WriteSpin(int) (W, error)
	Readers() int
	IsWriteLocked() bool
	IsPoisoned() bool
	ClearPoison()
}

type rawRwLockAPI[R, W any] interface {
	Read() R
	TryRead() (R, error)
	ReadSpin(int) (R, error)
	Write() W
	TryWrite() (W, error)
	WriteSpin(int) (W, error)
	Readers() int
	IsWriteLocked() bool
}

type guardAPI[T any] interface {
	Get() *T
	Unlock()
}

type writeGuardAPI[T, R any] interface {
	guardAPI[T]
	Downgrade() R
}

type onceAPI interface {
	Do(func())
	Wait()
	IsCompleted() bool
	IsPoisoned() bool
}

type onceLockAPI[T any] interface {
	Get() (*T, bool)
	GetOrInit(func() T) *T
	Set(T) bool
	Wait() *T
	IsInitialized() bool
}

type onceMapAPI[K comparable, V any] interface {
	GetOrInit(K, func(K) V) *V
	Get(K) (*V, bool)
	Forget(K)
}

type cellAPI[T any] interface {
	Load() T
	Store(T)
	Swap(T) T
	CompareAndSwap(T, T) bool
	CompareExchange(T, T) (T, bool)
	Update(func(T) T) (T, T)
}

type optionAPI[T any] interface {
	Swap(*T) *T
	Take() *T
	Put(*T) bool
	IsSome() bool
	Clear()
}

type flagAPI interface {
	Set()
	Clear()
	IsSet() bool
	TestAndSet() bool
}

type barrierAPI interface {
	Wait() bool
	Parties() int
}

type spinWaitAPI interface {
	Spin() bool
	SpinOrYield()
	Reset()
	Count() uint32
}

type lazyAPI[T any] interface {
	Get() *T
	IsInitialized() bool
}

type spinLockAPI interface {
	sync.Locker
	TryLock() bool
	LockSpin(int) bool
	IsLocked() bool
}

var (
	_ spinLockAPI                                                            = (*spin.SpinLock)(nil)
	_ spinLockAPI                                                            = (*nop.SpinLock)(nil)
	_ mutexAPI[spin.MutexGuard[int]]                                         = (*spin.Mutex[int])(nil)
	_ mutexAPI[nop.MutexGuard[int]]                                          = (*nop.Mutex[int])(nil)
	_ rawMutexAPI[spin.RawMutexGuard[int]]                                   = (*spin.RawMutex[int])(nil)
	_ rawMutexAPI[nop.RawMutexGuard[int]]                                    = (*nop.RawMutex[int])(nil)
	_ guardAPI[int]                                                          = spin.MutexGuard[int]{}
	_ guardAPI[int]                                                          = nop.MutexGuard[int]{}
	_ guardAPI[int]                                                          = spin.RawMutexGuard[int]{}
	_ guardAPI[int]                                                          = nop.RawMutexGuard[int]{}
	_ rwLockAPI[spin.RwLockReadGuard[int], spin.RwLockWriteGuard[int]]       = (*spin.RwLock[int])(nil)
	_ rwLockAPI[nop.RwLockReadGuard[int], nop.RwLockWriteGuard[int]]         = (*nop.RwLock[int])(nil)
	_ rwLockAPI[spin.RwLockReadGuard[int], spin.RwLockWriteGuard[int]]       = (*spin.ReaderRwLock[int])(nil)
	_ rwLockAPI[nop.RwLockReadGuard[int], nop.RwLockWriteGuard[int]]         = (*nop.ReaderRwLock[int])(nil)
	_ rawRwLockAPI[spin.RwLockReadGuard[int], spin.RawRwLockWriteGuard[int]] = (*spin.RawRwLock[int])(nil)
	_ rawRwLockAPI[nop.RwLockReadGuard[int], nop.RawRwLockWriteGuard[int]]   = (*nop.RawRwLock[int])(nil)
	_ guardAPI[int]                                                          = spin.RwLockReadGuard[int]{}
	_ guardAPI[int]                                                          = nop.RwLockReadGuard[int]{}
	_ writeGuardAPI[int, spin.RwLockReadGuard[int]]                          = spin.RwLockWriteGuard[int]{}
	_ writeGuardAPI[int, nop.RwLockReadGuard[int]]                           = nop.RwLockWriteGuard[int]{}
	_ writeGuardAPI[int, spin.RwLockReadGuard[int]]                          = spin.RawRwLockWriteGuard[int]{}
	_ writeGuardAPI[int, nop.RwLockReadGuard[int]]                           = nop.RawRwLockWriteGuard[int]{}
	_ onceAPI                                                                = (*spin.Once)(nil)
	_ onceAPI                                                                = (*nop.Once)(nil)
	_ onceLockAPI[int]                                                       = (*spin.OnceLock[int])(nil)
	_ onceLockAPI[int]                                                       = (*nop.OnceLock[int])(nil)
	_ onceMapAPI[string, int]                                                = (*spin.OnceMap[string, int])(nil)
	_ onceMapAPI[string, int]                                                = (*nop.OnceMap[string, int])(nil)
	_ cellAPI[int32]                                                         = (*spin.AtomicCell[int32])(nil)
	_ cellAPI[int32]                                                         = (*nop.AtomicCell[int32])(nil)
	_ optionAPI[int]                                                         = (*spin.AtomicOption[int])(nil)
	_ optionAPI[int]                                                         = (*nop.AtomicOption[int])(nil)
	_ flagAPI                                                                = (*spin.AtomicFlag)(nil)
	_ flagAPI                                                                = (*nop.AtomicFlag)(nil)
	_ barrierAPI                                                             = (*spin.SpinBarrier)(nil)
	_ barrierAPI                                                             = (*nop.SpinBarrier)(nil)
	_ spinWaitAPI                                                            = (*spin.SpinWait)(nil)
	_ spinWaitAPI                                                            = (*nop.SpinWait)(nil)
	_ lazyAPI[int]                                                           = (*spin.Lazy[int])(nil)
	_ lazyAPI[int]                                                           = (*nop.Lazy[int])(nil)
)
