package nop

// Mutex is the single-threaded Mutex. It keeps the poison flag.
//
// It is zero-value usable.
type Mutex[T any] struct {
	_     noCopy
	lock  lockFlags
	value T
}

// NewMutex returns a Mutex holding v.
func NewMutex[T any](v T) *Mutex[T] {
	return &Mutex[T]{value: v}
}

// Lock acquires the mutex, yielding while another goroutine holds it.
func (m *Mutex[T]) Lock() (MutexGuard[T], error) {
	wait(m.lock.acquire)
	return m.guard()
}

// TryLock returns ErrWouldBlock if the mutex is held.
func (m *Mutex[T]) TryLock() (MutexGuard[T], error) {
	if !m.lock.acquire() {
		return MutexGuard[T]{}, ErrWouldBlock
	}
	return m.guard()
}

// LockSpin returns ErrSpinTimeout after maxSpins failed attempts.
func (m *Mutex[T]) LockSpin(maxSpins int) (MutexGuard[T], error) {
	if !poll(m.lock.acquire, maxSpins) {
		return MutexGuard[T]{}, ErrSpinTimeout
	}
	return m.guard()
}

func (m *Mutex[T]) guard() (MutexGuard[T], error) {
	g := MutexGuard[T]{poisonRelease: poisonRelease{&m.lock}, value: &m.value}
	if m.lock.poisoned {
		return g, NewPoisonError(g)
	}
	return g, nil
}

// IsLocked reports whether a guard is alive.
func (m *Mutex[T]) IsLocked() bool { return m.lock.held }

// IsPoisoned reports whether a holder panicked.
func (m *Mutex[T]) IsPoisoned() bool { return m.lock.poisoned }

// ClearPoison clears the poisoned state.
func (m *Mutex[T]) ClearPoison() { m.lock.poisoned = false }

type poisonRelease struct {
	lock *lockFlags
}

// Unlock releases the mutex, poisoning it first if the goroutine is
// panicking.
func (r poisonRelease) Unlock() {
	if p := recover(); p != nil {
		r.lock.release(true)
		panic(p)
	}
	r.lock.release(false)
}

// MutexGuard grants access to the value of a Mutex until Unlock.
type MutexGuard[T any] struct {
	poisonRelease
	value *T
}

// Get returns the protected value.
func (g MutexGuard[T]) Get() *T {
	return g.value
}

// RawMutex is Mutex without poisoning.
//
// It is zero-value usable.
type RawMutex[T any] struct {
	_     noCopy
	lock  lockFlags
	value T
}

// NewRawMutex returns a RawMutex holding v.
func NewRawMutex[T any](v T) *RawMutex[T] {
	return &RawMutex[T]{value: v}
}

// Lock acquires the mutex, yielding while another goroutine holds it.
func (m *RawMutex[T]) Lock() RawMutexGuard[T] {
	wait(m.lock.acquire)
	return m.guard()
}

// TryLock returns ErrWouldBlock if the mutex is held.
func (m *RawMutex[T]) TryLock() (RawMutexGuard[T], error) {
	if !m.lock.acquire() {
		return RawMutexGuard[T]{}, ErrWouldBlock
	}
	return m.guard(), nil
}

// LockSpin returns ErrSpinTimeout after maxSpins failed attempts.
func (m *RawMutex[T]) LockSpin(maxSpins int) (RawMutexGuard[T], error) {
	if !poll(m.lock.acquire, maxSpins) {
		return RawMutexGuard[T]{}, ErrSpinTimeout
	}
	return m.guard(), nil
}

func (m *RawMutex[T]) guard() RawMutexGuard[T] {
	return RawMutexGuard[T]{rawRelease: rawRelease{&m.lock}, value: &m.value}
}

// IsLocked reports whether a guard is alive.
func (m *RawMutex[T]) IsLocked() bool { return m.lock.held }

type rawRelease struct {
	lock *lockFlags
}

// Unlock releases the mutex.
func (r rawRelease) Unlock() {
	r.lock.release(false)
}

// RawMutexGuard grants access to the value of a RawMutex until Unlock.
type RawMutexGuard[T any] struct {
	rawRelease
	value *T
}

// Get returns the protected value.
func (g RawMutexGuard[T]) Get() *T {
	return g.value
}
