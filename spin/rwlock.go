package spin

import (
	"sync/atomic"

	"github.com/llxisdsh/spinx/internal/state"
)

// rwWord is the reader/writer word shared by the RwLock variants. The
// policy is a parameter of each operation rather than a field: every caller
// passes a constant, so the check folds away.
type rwWord struct {
	state    atomic.Uint32
	poisoned atomic.Bool
}

func (w *rwWord) tryRead(p state.Policy) bool {
	for {
		s := w.state.Load()
		if !state.CanRead(s, p) {
			return false
		}
		if state.Readers(s) == state.MaxReaders {
			panic("spinx: too many readers")
		}
		if w.state.CompareAndSwap(s, state.AddReader(s)) {
			return true
		}
	}
}

func (w *rwWord) read(p state.Policy) {
	if w.tryRead(p) {
		return
	}
	var sw SpinWait
	for !w.tryRead(p) {
		sw.SpinOrYield()
	}
}

func (w *rwWord) readSpin(p state.Policy, maxSpins int) bool {
	var sw SpinWait
	for i := 0; ; i++ {
		if w.tryRead(p) {
			return true
		}
		if i >= maxSpins {
			return false
		}
		sw.SpinOrYield()
	}
}

func (w *rwWord) unlockRead() {
	for {
		s := w.state.Load()
		if state.Readers(s) == 0 {
			panic("spinx: unlock of unlocked read lock")
		}
		if w.state.CompareAndSwap(s, s-1) {
			return
		}
	}
}

// tryWrite takes the write lock if it is free right now. It never raises
// the waiting bit.
//
//go:nosplit
func (w *rwWord) tryWrite() bool {
	for {
		s := w.state.Load()
		if !state.CanWrite(s) {
			return false
		}
		if w.state.CompareAndSwap(s, state.TakeWrite(s)) {
			return true
		}
	}
}

// pollWrite makes one attempt at the write lock. Under the writer-preferring
// policy a writer that cannot get in raises the waiting bit, which turns new
// readers away until the current ones drain. Every waiting writer re-raises
// the bit on each poll, since the winner clears it on acquisition.
func (w *rwWord) pollWrite(p state.Policy) bool {
	for {
		s := w.state.Load()
		if state.CanWrite(s) {
			if w.state.CompareAndSwap(s, state.TakeWrite(s)) {
				return true
			}
			continue
		}
		if p == state.WriterPreferring && s&state.WriterWaiting == 0 {
			if !w.state.CompareAndSwap(s, state.MarkWaiting(s)) {
				continue
			}
		}
		return false
	}
}

func (w *rwWord) write(p state.Policy) {
	var sw SpinWait
	for !w.pollWrite(p) {
		sw.SpinOrYield()
	}
}

func (w *rwWord) writeSpin(p state.Policy, maxSpins int) bool {
	var sw SpinWait
	for i := 0; ; i++ {
		if w.pollWrite(p) {
			return true
		}
		if i >= maxSpins {
			break
		}
		sw.SpinOrYield()
	}
	if p == state.WriterPreferring {
		// Withdraw the signal. Writers still waiting raise it again on their
		// next poll.
		w.state.And(^state.WriterWaiting)
	}
	return false
}

func (w *rwWord) unlockWrite(poison bool) {
	if poison {
		w.poisoned.Store(true)
	}
	for {
		s := w.state.Load()
		if s&state.WriterActive == 0 {
			panic("spinx: unlock of unlocked write lock")
		}
		if w.state.CompareAndSwap(s, s&^state.WriterActive) {
			return
		}
	}
}

func (w *rwWord) downgrade() {
	for {
		s := w.state.Load()
		if s&state.WriterActive == 0 {
			panic("spinx: downgrade of unlocked write lock")
		}
		if w.state.CompareAndSwap(s, state.Downgrade(s)) {
			return
		}
	}
}

func (w *rwWord) readers() int {
	return int(state.Readers(w.state.Load()))
}

func (w *rwWord) writeLocked() bool {
	return w.state.Load()&state.WriterActive != 0
}

// ============================================================================
// Guards
// ============================================================================

type readRelease struct {
	w *rwWord
}

// Unlock releases the read lock. Panics while reading never poison.
func (r readRelease) Unlock() {
	r.w.unlockRead()
}

// RwLockReadGuard grants shared, read-only access to the value of an RwLock
// variant until Unlock.
type RwLockReadGuard[T any] struct {
	readRelease
	value *T
}

// Get returns the protected value. It must not be written through.
func (g RwLockReadGuard[T]) Get() *T {
	return g.value
}

// writeRelease is kept free of type parameters so that recover() runs
// directly in the deferred call.
type writeRelease struct {
	w *rwWord
}

// Unlock releases the write lock. When deferred directly and the goroutine
// is panicking, the lock is poisoned first and the panic is resumed.
func (r writeRelease) Unlock() {
	if p := recover(); p != nil {
		r.w.unlockWrite(true)
		panic(p)
	}
	r.w.unlockWrite(false)
}

// RwLockWriteGuard grants exclusive access to the value of a poisoning
// RwLock variant until Unlock.
type RwLockWriteGuard[T any] struct {
	writeRelease
	value *T
}

// Get returns the protected value.
func (g RwLockWriteGuard[T]) Get() *T {
	return g.value
}

// Downgrade atomically turns the write hold into a read hold. No writer can
// get in between. The write guard must not be used afterwards.
func (g RwLockWriteGuard[T]) Downgrade() RwLockReadGuard[T] {
	g.w.downgrade()
	return RwLockReadGuard[T]{readRelease: readRelease{g.w}, value: g.value}
}

type rawWriteRelease struct {
	w *rwWord
}

// Unlock releases the write lock.
func (r rawWriteRelease) Unlock() {
	r.w.unlockWrite(false)
}

// RawRwLockWriteGuard grants exclusive access to the value of a RawRwLock.
type RawRwLockWriteGuard[T any] struct {
	rawWriteRelease
	value *T
}

// Get returns the protected value.
func (g RawRwLockWriteGuard[T]) Get() *T {
	return g.value
}

// Downgrade atomically turns the write hold into a read hold.
func (g RawRwLockWriteGuard[T]) Downgrade() RwLockReadGuard[T] {
	g.w.downgrade()
	return RwLockReadGuard[T]{readRelease: readRelease{g.w}, value: g.value}
}

// ============================================================================
// RwLock (writer-preferring)
// ============================================================================

// RwLock is a spin-based reader-writer lock that stores the value it protects
// inline and supports poisoning.
//
// Properties:
//   - Writer-preferring: a writer that cannot acquire raises a waiting flag
//     that turns new readers away, so a writer gets in once the readers
//     already inside have left.
//   - Poisoned only by a panic while a write guard is alive. Read never
//     reports poison; use IsPoisoned to check.
//   - Up to 2^30-1 concurrent readers.
//
// It is zero-value usable.
//
// Size: 8 bytes plus T.
type RwLock[T any] struct {
	_     noCopy
	w     rwWord
	value T
}

// NewRwLock returns an RwLock holding v.
func NewRwLock[T any](v T) *RwLock[T] {
	return &RwLock[T]{value: v}
}

// Read spins until a read lock is acquired.
func (l *RwLock[T]) Read() RwLockReadGuard[T] {
	l.w.read(state.WriterPreferring)
	return l.readGuard()
}

// TryRead returns ErrWouldBlock if a writer is active or waiting.
func (l *RwLock[T]) TryRead() (RwLockReadGuard[T], error) {
	if !l.w.tryRead(state.WriterPreferring) {
		return RwLockReadGuard[T]{}, ErrWouldBlock
	}
	return l.readGuard(), nil
}

// ReadSpin returns ErrSpinTimeout after maxSpins failed polls.
func (l *RwLock[T]) ReadSpin(maxSpins int) (RwLockReadGuard[T], error) {
	if !l.w.readSpin(state.WriterPreferring, maxSpins) {
		return RwLockReadGuard[T]{}, ErrSpinTimeout
	}
	return l.readGuard(), nil
}

// Write spins until the write lock is acquired. If the lock is poisoned
// the guard is returned together with a *PoisonError.
func (l *RwLock[T]) Write() (RwLockWriteGuard[T], error) {
	l.w.write(state.WriterPreferring)
	return l.writeGuard()
}

// TryWrite returns ErrWouldBlock if any reader or writer holds the lock.
func (l *RwLock[T]) TryWrite() (RwLockWriteGuard[T], error) {
	if !l.w.tryWrite() {
		return RwLockWriteGuard[T]{}, ErrWouldBlock
	}
	return l.writeGuard()
}

// WriteSpin returns ErrSpinTimeout after maxSpins failed polls. A writer
// that gives up withdraws its waiting signal.
func (l *RwLock[T]) WriteSpin(maxSpins int) (RwLockWriteGuard[T], error) {
	if !l.w.writeSpin(state.WriterPreferring, maxSpins) {
		return RwLockWriteGuard[T]{}, ErrSpinTimeout
	}
	return l.writeGuard()
}

func (l *RwLock[T]) readGuard() RwLockReadGuard[T] {
	return RwLockReadGuard[T]{readRelease: readRelease{&l.w}, value: &l.value}
}

func (l *RwLock[T]) writeGuard() (RwLockWriteGuard[T], error) {
	g := RwLockWriteGuard[T]{writeRelease: writeRelease{&l.w}, value: &l.value}
	if l.w.poisoned.Load() {
		return g, NewPoisonError(g)
	}
	return g, nil
}

// Readers returns the number of read guards currently alive.
func (l *RwLock[T]) Readers() int { return l.w.readers() }

// IsWriteLocked reports whether a write guard is currently alive.
func (l *RwLock[T]) IsWriteLocked() bool { return l.w.writeLocked() }

// IsPoisoned reports whether a writer panicked.
func (l *RwLock[T]) IsPoisoned() bool { return l.w.poisoned.Load() }

// ClearPoison clears the poisoned state.
func (l *RwLock[T]) ClearPoison() { l.w.poisoned.Store(false) }

// ============================================================================
// ReaderRwLock (reader-preferring)
// ============================================================================

// ReaderRwLock is the reader-preferring variant of RwLock.
//
// Readers get in whenever no writer is active, regardless of writers trying
// to acquire. This skips the waiting check on the read path and never makes
// a reader back off for a pending writer, which raises read throughput.
// The price is explicit: under sustained read pressure a writer may never
// acquire. Use it only when writes are rare and can tolerate unbounded
// delay.
//
// It is zero-value usable.
type ReaderRwLock[T any] struct {
	_     noCopy
	w     rwWord
	value T
}

// NewReaderRwLock returns a ReaderRwLock holding v.
func NewReaderRwLock[T any](v T) *ReaderRwLock[T] {
	return &ReaderRwLock[T]{value: v}
}

// Read spins until no writer is active, then joins the readers.
func (l *ReaderRwLock[T]) Read() RwLockReadGuard[T] {
	l.w.read(state.ReaderPreferring)
	return l.readGuard()
}

// TryRead returns ErrWouldBlock if a writer is active.
func (l *ReaderRwLock[T]) TryRead() (RwLockReadGuard[T], error) {
	if !l.w.tryRead(state.ReaderPreferring) {
		return RwLockReadGuard[T]{}, ErrWouldBlock
	}
	return l.readGuard(), nil
}

// ReadSpin returns ErrSpinTimeout after maxSpins failed polls.
func (l *ReaderRwLock[T]) ReadSpin(maxSpins int) (RwLockReadGuard[T], error) {
	if !l.w.readSpin(state.ReaderPreferring, maxSpins) {
		return RwLockReadGuard[T]{}, ErrSpinTimeout
	}
	return l.readGuard(), nil
}

// Write spins until there are no readers and no writer.
func (l *ReaderRwLock[T]) Write() (RwLockWriteGuard[T], error) {
	l.w.write(state.ReaderPreferring)
	return l.writeGuard()
}

// TryWrite returns ErrWouldBlock if any reader or writer holds the lock.
func (l *ReaderRwLock[T]) TryWrite() (RwLockWriteGuard[T], error) {
	if !l.w.tryWrite() {
		return RwLockWriteGuard[T]{}, ErrWouldBlock
	}
	return l.writeGuard()
}

// WriteSpin returns ErrSpinTimeout after maxSpins failed polls.
func (l *ReaderRwLock[T]) WriteSpin(maxSpins int) (RwLockWriteGuard[T], error) {
	if !l.w.writeSpin(state.ReaderPreferring, maxSpins) {
		return RwLockWriteGuard[T]{}, ErrSpinTimeout
	}
	return l.writeGuard()
}

func (l *ReaderRwLock[T]) readGuard() RwLockReadGuard[T] {
	return RwLockReadGuard[T]{readRelease: readRelease{&l.w}, value: &l.value}
}

func (l *ReaderRwLock[T]) writeGuard() (RwLockWriteGuard[T], error) {
	g := RwLockWriteGuard[T]{writeRelease: writeRelease{&l.w}, value: &l.value}
	if l.w.poisoned.Load() {
		return g, NewPoisonError(g)
	}
	return g, nil
}

// Readers returns the number of read guards currently alive.
func (l *ReaderRwLock[T]) Readers() int { return l.w.readers() }

// IsWriteLocked reports whether a write guard is currently alive.
func (l *ReaderRwLock[T]) IsWriteLocked() bool { return l.w.writeLocked() }

// IsPoisoned reports whether a writer panicked.
func (l *ReaderRwLock[T]) IsPoisoned() bool { return l.w.poisoned.Load() }

// ClearPoison clears the poisoned state.
func (l *ReaderRwLock[T]) ClearPoison() { l.w.poisoned.Store(false) }

// ============================================================================
// RawRwLock (writer-preferring, no poisoning)
// ============================================================================

// RawRwLock is the writer-preferring RwLock without poisoning.
//
// It is zero-value usable.
type RawRwLock[T any] struct {
	_     noCopy
	w     rwWord
	value T
}

// NewRawRwLock returns a RawRwLock holding v.
func NewRawRwLock[T any](v T) *RawRwLock[T] {
	return &RawRwLock[T]{value: v}
}

// Read spins until a read lock is acquired.
func (l *RawRwLock[T]) Read() RwLockReadGuard[T] {
	l.w.read(state.WriterPreferring)
	return RwLockReadGuard[T]{readRelease: readRelease{&l.w}, value: &l.value}
}

// TryRead returns ErrWouldBlock if a writer is active or waiting.
func (l *RawRwLock[T]) TryRead() (RwLockReadGuard[T], error) {
	if !l.w.tryRead(state.WriterPreferring) {
		return RwLockReadGuard[T]{}, ErrWouldBlock
	}
	return RwLockReadGuard[T]{readRelease: readRelease{&l.w}, value: &l.value}, nil
}

// ReadSpin returns ErrSpinTimeout after maxSpins failed polls.
func (l *RawRwLock[T]) ReadSpin(maxSpins int) (RwLockReadGuard[T], error) {
	if !l.w.readSpin(state.WriterPreferring, maxSpins) {
		return RwLockReadGuard[T]{}, ErrSpinTimeout
	}
	return RwLockReadGuard[T]{readRelease: readRelease{&l.w}, value: &l.value}, nil
}

// Write spins until the write lock is acquired.
func (l *RawRwLock[T]) Write() RawRwLockWriteGuard[T] {
	l.w.write(state.WriterPreferring)
	return l.writeGuard()
}

// TryWrite returns ErrWouldBlock if any reader or writer holds the lock.
func (l *RawRwLock[T]) TryWrite() (RawRwLockWriteGuard[T], error) {
	if !l.w.tryWrite() {
		return RawRwLockWriteGuard[T]{}, ErrWouldBlock
	}
	return l.writeGuard(), nil
}

// WriteSpin returns ErrSpinTimeout after maxSpins failed polls.
func (l *RawRwLock[T]) WriteSpin(maxSpins int) (RawRwLockWriteGuard[T], error) {
	if !l.w.writeSpin(state.WriterPreferring, maxSpins) {
		return RawRwLockWriteGuard[T]{}, ErrSpinTimeout
	}
	return l.writeGuard(), nil
}

func (l *RawRwLock[T]) writeGuard() RawRwLockWriteGuard[T] {
	return RawRwLockWriteGuard[T]{rawWriteRelease: rawWriteRelease{&l.w}, value: &l.value}
}

// Readers returns the number of read guards currently alive.
func (l *RawRwLock[T]) Readers() int { return l.w.readers() }

// IsWriteLocked reports whether a write guard is currently alive.
func (l *RawRwLock[T]) IsWriteLocked() bool { return l.w.writeLocked() }
