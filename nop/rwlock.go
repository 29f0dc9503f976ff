package nop

import "github.com/llxisdsh/spinx/internal/state"

// rwFlags is the plain counterpart of the spin reader/writer word. waiting
// counts writers yielding for the lock; under the writer-preferring policy
// it turns new readers away.
type rwFlags struct {
	readers  uint32
	waiting  uint32
	writer   bool
	poisoned bool
}

func (w *rwFlags) tryRead(p state.Policy) bool {
	if w.writer || (p == state.WriterPreferring && w.waiting != 0) {
		return false
	}
	if w.readers == state.MaxReaders {
		panic("spinx: too many readers")
	}
	w.readers++
	return true
}

func (w *rwFlags) unlockRead() {
	if w.readers == 0 {
		panic("spinx: unlock of unlocked read lock")
	}
	w.readers--
}

func (w *rwFlags) tryWrite() bool {
	if w.writer || w.readers != 0 {
		return false
	}
	w.writer = true
	return true
}

func (w *rwFlags) read(p state.Policy) {
	wait(func() bool { return w.tryRead(p) })
}

func (w *rwFlags) readSpin(p state.Policy, maxSpins int) bool {
	return poll(func() bool { return w.tryRead(p) }, maxSpins)
}

// writeSpin polls for the write lock, registered as a waiting writer for as
// long as it polls. maxSpins < 0 polls until it succeeds.
func (w *rwFlags) writeSpin(maxSpins int) bool {
	if w.tryWrite() {
		return true
	}
	w.waiting++
	defer func() { w.waiting-- }()
	if maxSpins < 0 {
		wait(w.tryWrite)
		return true
	}
	return poll(w.tryWrite, maxSpins)
}

func (w *rwFlags) unlockWrite(poison bool) {
	if !w.writer {
		panic("spinx: unlock of unlocked write lock")
	}
	if poison {
		w.poisoned = true
	}
	w.writer = false
}

func (w *rwFlags) downgrade() {
	if !w.writer {
		panic("spinx: downgrade of unlocked write lock")
	}
	w.writer = false
	w.readers++
}

type readRelease struct {
	w *rwFlags
}

// Unlock releases the read lock.
func (r readRelease) Unlock() {
	r.w.unlockRead()
}

// RwLockReadGuard grants shared access until Unlock.
type RwLockReadGuard[T any] struct {
	readRelease
	value *T
}

// Get returns the protected value. It must not be written through.
func (g RwLockReadGuard[T]) Get() *T {
	return g.value
}

type writeRelease struct {
	w *rwFlags
}

// Unlock releases the write lock, poisoning it first if the goroutine is
// panicking.
func (r writeRelease) Unlock() {
	if p := recover(); p != nil {
		r.w.unlockWrite(true)
		panic(p)
	}
	r.w.unlockWrite(false)
}

// RwLockWriteGuard grants exclusive access until Unlock.
type RwLockWriteGuard[T any] struct {
	writeRelease
	value *T
}

// Get returns the protected value.
func (g RwLockWriteGuard[T]) Get() *T {
	return g.value
}

// Downgrade turns the write hold into a read hold.
func (g RwLockWriteGuard[T]) Downgrade() RwLockReadGuard[T] {
	g.w.downgrade()
	return RwLockReadGuard[T]{readRelease: readRelease{g.w}, value: g.value}
}

type rawWriteRelease struct {
	w *rwFlags
}

// Unlock releases the write lock.
func (r rawWriteRelease) Unlock() {
	r.w.unlockWrite(false)
}

// RawRwLockWriteGuard grants exclusive access to a RawRwLock until Unlock.
type RawRwLockWriteGuard[T any] struct {
	rawWriteRelease
	value *T
}

// Get returns the protected value.
func (g RawRwLockWriteGuard[T]) Get() *T {
	return g.value
}

// Downgrade turns the write hold into a read hold.
func (g RawRwLockWriteGuard[T]) Downgrade() RwLockReadGuard[T] {
	g.w.downgrade()
	return RwLockReadGuard[T]{readRelease: readRelease{g.w}, value: g.value}
}

// policy selects the reader/writer preference of an rwCore at compile time.
type policy interface {
	policy() state.Policy
}

type writerFirst struct{}

func (writerFirst) policy() state.Policy { return state.WriterPreferring }

type readerFirst struct{}

func (readerFirst) policy() state.Policy { return state.ReaderPreferring }

// rwCore implements the poisoning RwLock API once for both policy types.
type rwCore[T any, P policy] struct {
	_     noCopy
	w     rwFlags
	value T
}

func (l *rwCore[T, P]) pol() state.Policy {
	var p P
	return p.policy()
}

func (l *rwCore[T, P]) readGuard() RwLockReadGuard[T] {
	return RwLockReadGuard[T]{readRelease: readRelease{&l.w}, value: &l.value}
}

func (l *rwCore[T, P]) writeGuard() (RwLockWriteGuard[T], error) {
	g := RwLockWriteGuard[T]{writeRelease: writeRelease{&l.w}, value: &l.value}
	if l.w.poisoned {
		return g, NewPoisonError(g)
	}
	return g, nil
}

// Read yields until a read lock is acquired.
func (l *rwCore[T, P]) Read() RwLockReadGuard[T] {
	l.w.read(l.pol())
	return l.readGuard()
}

// TryRead returns ErrWouldBlock if the read lock is not available now.
func (l *rwCore[T, P]) TryRead() (RwLockReadGuard[T], error) {
	if !l.w.tryRead(l.pol()) {
		return RwLockReadGuard[T]{}, ErrWouldBlock
	}
	return l.readGuard(), nil
}

// ReadSpin returns ErrSpinTimeout after maxSpins failed attempts.
func (l *rwCore[T, P]) ReadSpin(maxSpins int) (RwLockReadGuard[T], error) {
	if !l.w.readSpin(l.pol(), maxSpins) {
		return RwLockReadGuard[T]{}, ErrSpinTimeout
	}
	return l.readGuard(), nil
}

// Write yields until no guard is alive, then takes the write lock.
func (l *rwCore[T, P]) Write() (RwLockWriteGuard[T], error) {
	l.w.writeSpin(-1)
	return l.writeGuard()
}

// TryWrite returns ErrWouldBlock if any guard is alive.
func (l *rwCore[T, P]) TryWrite() (RwLockWriteGuard[T], error) {
	if !l.w.tryWrite() {
		return RwLockWriteGuard[T]{}, ErrWouldBlock
	}
	return l.writeGuard()
}

// WriteSpin returns ErrSpinTimeout after maxSpins failed attempts.
func (l *rwCore[T, P]) WriteSpin(maxSpins int) (RwLockWriteGuard[T], error) {
	if !l.w.writeSpin(max(maxSpins, 0)) {
		return RwLockWriteGuard[T]{}, ErrSpinTimeout
	}
	return l.writeGuard()
}

// Readers returns the number of read guards alive.
func (l *rwCore[T, P]) Readers() int { return int(l.w.readers) }

// IsWriteLocked reports whether a write guard is alive.
func (l *rwCore[T, P]) IsWriteLocked() bool { return l.w.writer }

// IsPoisoned reports whether a writer panicked.
func (l *rwCore[T, P]) IsPoisoned() bool { return l.w.poisoned }

// ClearPoison clears the poisoned state.
func (l *rwCore[T, P]) ClearPoison() { l.w.poisoned = false }

// RwLock is the single-threaded writer-preferring RwLock: while a writer
// yields for the lock, new readers yield too.
//
// It is zero-value usable.
type RwLock[T any] struct {
	rwCore[T, writerFirst]
}

// NewRwLock returns an RwLock holding v.
func NewRwLock[T any](v T) *RwLock[T] {
	l := &RwLock[T]{}
	l.value = v
	return l
}

// ReaderRwLock is the single-threaded reader-preferring RwLock: readers get
// in whenever no writer is active.
//
// It is zero-value usable.
type ReaderRwLock[T any] struct {
	rwCore[T, readerFirst]
}

// NewReaderRwLock returns a ReaderRwLock holding v.
func NewReaderRwLock[T any](v T) *ReaderRwLock[T] {
	l := &ReaderRwLock[T]{}
	l.value = v
	return l
}

// RawRwLock is the single-threaded writer-preferring RwLock without
// poisoning.
//
// It is zero-value usable.
type RawRwLock[T any] struct {
	_     noCopy
	w     rwFlags
	value T
}

// NewRawRwLock returns a RawRwLock holding v.
func NewRawRwLock[T any](v T) *RawRwLock[T] {
	return &RawRwLock[T]{value: v}
}

func (l *RawRwLock[T]) readGuard() RwLockReadGuard[T] {
	return RwLockReadGuard[T]{readRelease: readRelease{&l.w}, value: &l.value}
}

func (l *RawRwLock[T]) writeGuard() RawRwLockWriteGuard[T] {
	return RawRwLockWriteGuard[T]{rawWriteRelease: rawWriteRelease{&l.w}, value: &l.value}
}

// Read yields until a read lock is acquired.
func (l *RawRwLock[T]) Read() RwLockReadGuard[T] {
	l.w.read(state.WriterPreferring)
	return l.readGuard()
}

// TryRead returns ErrWouldBlock if a writer is active or waiting.
func (l *RawRwLock[T]) TryRead() (RwLockReadGuard[T], error) {
	if !l.w.tryRead(state.WriterPreferring) {
		return RwLockReadGuard[T]{}, ErrWouldBlock
	}
	return l.readGuard(), nil
}

// ReadSpin returns ErrSpinTimeout after maxSpins failed attempts.
func (l *RawRwLock[T]) ReadSpin(maxSpins int) (RwLockReadGuard[T], error) {
	if !l.w.readSpin(state.WriterPreferring, maxSpins) {
		return RwLockReadGuard[T]{}, ErrSpinTimeout
	}
	return l.readGuard(), nil
}

// Write yields until no guard is alive, then takes the write lock.
func (l *RawRwLock[T]) Write() RawRwLockWriteGuard[T] {
	l.w.writeSpin(-1)
	return l.writeGuard()
}

// TryWrite returns ErrWouldBlock if any guard is alive.
func (l *RawRwLock[T]) TryWrite() (RawRwLockWriteGuard[T], error) {
	if !l.w.tryWrite() {
		return RawRwLockWriteGuard[T]{}, ErrWouldBlock
	}
	return l.writeGuard(), nil
}

// WriteSpin returns ErrSpinTimeout after maxSpins failed attempts.
func (l *RawRwLock[T]) WriteSpin(maxSpins int) (RawRwLockWriteGuard[T], error) {
	if !l.w.writeSpin(max(maxSpins, 0)) {
		return RawRwLockWriteGuard[T]{}, ErrSpinTimeout
	}
	return l.writeGuard(), nil
}

// Readers returns the number of read guards alive.
func (l *RawRwLock[T]) Readers() int { return int(l.w.readers) }

// IsWriteLocked reports whether a write guard is alive.
func (l *RawRwLock[T]) IsWriteLocked() bool { return l.w.writer }
