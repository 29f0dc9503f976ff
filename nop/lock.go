package nop

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// lockFlags is the plain counterpart of the spin lock word.
type lockFlags struct {
	held     bool
	poisoned bool
}

func (l *lockFlags) acquire() bool {
	if l.held {
		return false
	}
	l.held = true
	return true
}

func (l *lockFlags) release(poison bool) {
	if !l.held {
		panic("spinx: unlock of unlocked lock")
	}
	if poison {
		l.poisoned = true
	}
	l.held = false
}

// SpinLock is a lock flag without a protected value.
//
// It is zero-value usable.
type SpinLock struct {
	_ noCopy
	l lockFlags
}

// Lock takes the lock, yielding while another goroutine holds it.
func (l *SpinLock) Lock() {
	wait(l.l.acquire)
}

// TryLock reports whether the lock was free and is now held.
func (l *SpinLock) TryLock() bool {
	return l.l.acquire()
}

// LockSpin makes up to maxSpins+1 attempts, yielding between them.
func (l *SpinLock) LockSpin(maxSpins int) bool {
	return poll(l.l.acquire, maxSpins)
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	l.l.release(false)
}

// IsLocked reports whether the lock is held.
func (l *SpinLock) IsLocked() bool {
	return l.l.held
}
