package spin

import "github.com/llxisdsh/spinx/internal/state"

// Mutex is a spinning mutual exclusion lock that stores the value it
// protects inline and supports poisoning.
//
// Access to the value is only granted through a MutexGuard. Release the
// guard with a directly deferred Unlock:
//
//	g, err := m.Lock()
//	if err != nil {
//		// A previous holder panicked. g is still valid and the lock is held.
//	}
//	defer g.Unlock()
//	*g.Get()++
//
// When the goroutine panics while the deferred Unlock runs, the mutex is
// marked poisoned and the panic continues. Every later acquisition reports a
// PoisonError until ClearPoison is called. A runtime.Goexit does not poison.
//
// It is zero-value usable (starts unlocked and holding the zero T).
type Mutex[T any] struct {
	_     noCopy
	lock  lockWord
	value T
}

// NewMutex returns a Mutex holding v.
func NewMutex[T any](v T) *Mutex[T] {
	return &Mutex[T]{value: v}
}

// Lock spins until the mutex is acquired. If the mutex is poisoned the
// guard is returned together with a *PoisonError holding the same guard.
func (m *Mutex[T]) Lock() (MutexGuard[T], error) {
	return m.guard(m.lock.acquire())
}

// TryLock acquires the mutex only if it is free. It returns ErrWouldBlock,
// and a zero guard, when the mutex is held.
func (m *Mutex[T]) TryLock() (MutexGuard[T], error) {
	prev, ok := m.lock.tryAcquire()
	if !ok {
		return MutexGuard[T]{}, ErrWouldBlock
	}
	return m.guard(prev)
}

// LockSpin is like Lock but returns ErrSpinTimeout after maxSpins failed
// polls.
func (m *Mutex[T]) LockSpin(maxSpins int) (MutexGuard[T], error) {
	prev, ok := m.lock.acquireSpin(maxSpins)
	if !ok {
		return MutexGuard[T]{}, ErrSpinTimeout
	}
	return m.guard(prev)
}

func (m *Mutex[T]) guard(prev uint32) (MutexGuard[T], error) {
	g := MutexGuard[T]{poisonRelease: poisonRelease{&m.lock}, value: &m.value}
	if prev&state.LockPoisoned != 0 {
		return g, NewPoisonError(g)
	}
	return g, nil
}

// IsLocked reports whether a guard is currently alive.
func (m *Mutex[T]) IsLocked() bool {
	return m.lock.held()
}

// IsPoisoned reports whether a holder panicked.
func (m *Mutex[T]) IsPoisoned() bool {
	return m.lock.poisoned()
}

// ClearPoison clears the poisoned state. Call it once the protected value
// has been checked or repaired.
func (m *Mutex[T]) ClearPoison() {
	m.lock.clearPoison()
}

// poisonRelease is the non-generic release half of a poisoning guard. It is
// kept free of type parameters so that recover() runs directly in the
// deferred call.
type poisonRelease struct {
	lock *lockWord
}

// Unlock releases the lock. When deferred directly and the goroutine is
// panicking, the lock is poisoned first and the panic is resumed with the
// same value.
func (r poisonRelease) Unlock() {
	if p := recover(); p != nil {
		r.lock.release(true)
		panic(p)
	}
	r.lock.release(false)
}

// MutexGuard grants exclusive access to the value of a Mutex until Unlock.
type MutexGuard[T any] struct {
	poisonRelease
	value *T
}

// Get returns the protected value. The pointer must not be retained past
// Unlock.
func (g MutexGuard[T]) Get() *T {
	return g.value
}

// RawMutex is a spinning mutual exclusion lock without poisoning.
//
// A panic while a RawMutexGuard is alive leaves no trace; the next holder
// gets the value as the panicking goroutine left it.
//
// It is zero-value usable.
type RawMutex[T any] struct {
	_     noCopy
	lock  lockWord
	value T
}

// NewRawMutex returns a RawMutex holding v.
func NewRawMutex[T any](v T) *RawMutex[T] {
	return &RawMutex[T]{value: v}
}

// Lock spins until the mutex is acquired.
func (m *RawMutex[T]) Lock() RawMutexGuard[T] {
	m.lock.acquire()
	return m.guard()
}

// TryLock acquires the mutex only if it is free, else returns ErrWouldBlock.
func (m *RawMutex[T]) TryLock() (RawMutexGuard[T], error) {
	if _, ok := m.lock.tryAcquire(); !ok {
		return RawMutexGuard[T]{}, ErrWouldBlock
	}
	return m.guard(), nil
}

// LockSpin returns ErrSpinTimeout after maxSpins failed polls.
func (m *RawMutex[T]) LockSpin(maxSpins int) (RawMutexGuard[T], error) {
	if _, ok := m.lock.acquireSpin(maxSpins); !ok {
		return RawMutexGuard[T]{}, ErrSpinTimeout
	}
	return m.guard(), nil
}

func (m *RawMutex[T]) guard() RawMutexGuard[T] {
	return RawMutexGuard[T]{rawRelease: rawRelease{&m.lock}, value: &m.value}
}

// IsLocked reports whether a guard is currently alive.
func (m *RawMutex[T]) IsLocked() bool {
	return m.lock.held()
}

type rawRelease struct {
	lock *lockWord
}

// Unlock releases the lock.
func (r rawRelease) Unlock() {
	r.lock.release(false)
}

// RawMutexGuard grants exclusive access to the value of a RawMutex.
type RawMutexGuard[T any] struct {
	rawRelease
	value *T
}

// Get returns the protected value.
func (g RawMutexGuard[T]) Get() *T {
	return g.value
}
