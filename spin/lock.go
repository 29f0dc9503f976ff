package spin

import (
	"sync"
	"sync/atomic"

	"github.com/llxisdsh/spinx/internal/state"
)

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
//goland:noinspection GoUnusedType
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// lockWord is the held/poisoned word shared by SpinLock, Mutex and RawMutex.
type lockWord struct {
	state atomic.Uint32
}

// tryAcquire sets the held bit if it is clear, preserving the poison bit.
// It returns the word observed just before the acquisition.
//
//go:nosplit
func (l *lockWord) tryAcquire() (uint32, bool) {
	for {
		s := l.state.Load()
		if s&state.LockHeld != 0 {
			return s, false
		}
		if l.state.CompareAndSwap(s, state.Acquire(s)) {
			return s, true
		}
	}
}

func (l *lockWord) acquire() uint32 {
	s := l.state.Load()
	if s&state.LockHeld == 0 && l.state.CompareAndSwap(s, state.Acquire(s)) {
		return s
	}
	return l.acquireSlow()
}

func (l *lockWord) acquireSlow() uint32 {
	var w SpinWait
	for {
		// Test before test-and-set keeps the cache line shared while held.
		if l.state.Load()&state.LockHeld == 0 {
			if s, ok := l.tryAcquire(); ok {
				return s
			}
		}
		w.SpinOrYield()
	}
}

// acquireSpin gives up after maxSpins failed polls.
func (l *lockWord) acquireSpin(maxSpins int) (uint32, bool) {
	var w SpinWait
	for i := 0; ; i++ {
		if s, ok := l.tryAcquire(); ok {
			return s, true
		}
		if i >= maxSpins {
			return 0, false
		}
		w.SpinOrYield()
	}
}

func (l *lockWord) release(poison bool) {
	for {
		s := l.state.Load()
		if s&state.LockHeld == 0 {
			panic("spinx: unlock of unlocked lock")
		}
		if l.state.CompareAndSwap(s, state.Release(s, poison)) {
			return
		}
	}
}

func (l *lockWord) held() bool {
	return l.state.Load()&state.LockHeld != 0
}

func (l *lockWord) poisoned() bool {
	return l.state.Load()&state.LockPoisoned != 0
}

func (l *lockWord) clearPoison() {
	l.state.And(^state.LockPoisoned)
}

// SpinLock is a busy-wait mutual exclusion lock that guards no value.
//
// It implements sync.Locker for code that wants a plain Lock/Unlock pair.
// Acquisition order is unspecified; a newcomer may win over a goroutine
// that has been spinning for longer.
//
// It is zero-value usable (starts unlocked).
//
// Size: 4 bytes.
type SpinLock struct {
	_ noCopy
	w lockWord
}

var _ sync.Locker = (*SpinLock)(nil)

// Lock spins until the lock is acquired.
func (l *SpinLock) Lock() {
	l.w.acquire()
}

// TryLock acquires the lock only if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	_, ok := l.w.tryAcquire()
	return ok
}

// LockSpin polls at most maxSpins+1 times before giving up.
func (l *SpinLock) LockSpin(maxSpins int) bool {
	_, ok := l.w.acquireSpin(maxSpins)
	return ok
}

// Unlock releases the lock. It panics if the lock is not held.
// A SpinLock is not associated with a particular goroutine.
func (l *SpinLock) Unlock() {
	l.w.release(false)
}

// IsLocked reports whether the lock is currently held.
func (l *SpinLock) IsLocked() bool {
	return l.w.held()
}
