// Package state holds the bit layout of every atomic word used by the spinx
// primitives. The lock types only load, CAS, and store raw words; all masks,
// shifts, and transitions live here so they can be tested in isolation.
package state

import "fmt"

// ============================================================================
// Mutex word
// ============================================================================

// Mutex word (32-bit):
//
//	bit 0: held
//	bit 1: poisoned
const (
	LockHeld     uint32 = 1 << 0
	LockPoisoned uint32 = 1 << 1
)

// Lock is the decoded form of a mutex word.
type Lock struct {
	Held     bool
	Poisoned bool
}

// DecodeLock splits a mutex word into its flags.
func DecodeLock(s uint32) Lock {
	return Lock{
		Held:     s&LockHeld != 0,
		Poisoned: s&LockPoisoned != 0,
	}
}

// Encode packs the flags back into a mutex word.
func (l Lock) Encode() uint32 {
	var s uint32
	if l.Held {
		s |= LockHeld
	}
	if l.Poisoned {
		s |= LockPoisoned
	}
	return s
}

func (l Lock) String() string {
	return fmt.Sprintf("held=%t poisoned=%t", l.Held, l.Poisoned)
}

// Acquire returns the word after taking the held bit. The poison bit is
// carried over so the new holder can observe it.
//
//go:nosplit
func Acquire(s uint32) uint32 {
	return s | LockHeld
}

// Release returns the word after dropping the held bit, optionally setting
// the poison bit first.
//
//go:nosplit
func Release(s uint32, poison bool) uint32 {
	if poison {
		s |= LockPoisoned
	}
	return s &^ LockHeld
}

// ============================================================================
// RwLock word
// ============================================================================

// RwLock word (32-bit):
//
//	bits 0-29: reader count
//	bit 30:    writer waiting (writer-preferring policy only)
//	bit 31:    writer active
//
// Writer active and a nonzero reader count are mutually exclusive.
const (
	ReaderMask    uint32 = 1<<30 - 1
	WriterWaiting uint32 = 1 << 30
	WriterActive  uint32 = 1 << 31

	// MaxReaders is the capacity of the reader field.
	MaxReaders = ReaderMask
)

// Policy selects how an RwLock word arbitrates between readers and writers.
type Policy uint8

const (
	// WriterPreferring blocks new readers as soon as a writer is waiting.
	WriterPreferring Policy = iota
	// ReaderPreferring admits readers whenever no writer is active. A writer
	// may starve under sustained read pressure.
	ReaderPreferring
)

func (p Policy) String() string {
	switch p {
	case WriterPreferring:
		return "writer-preferring"
	case ReaderPreferring:
		return "reader-preferring"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// RW is the decoded form of an RwLock word.
type RW struct {
	Readers uint32
	Waiting bool
	Active  bool
}

// DecodeRW splits an RwLock word into its fields.
func DecodeRW(s uint32) RW {
	return RW{
		Readers: s & ReaderMask,
		Waiting: s&WriterWaiting != 0,
		Active:  s&WriterActive != 0,
	}
}

// Encode packs the fields back into an RwLock word. Readers is truncated to
// the field width.
func (r RW) Encode() uint32 {
	s := r.Readers & ReaderMask
	if r.Waiting {
		s |= WriterWaiting
	}
	if r.Active {
		s |= WriterActive
	}
	return s
}

func (r RW) String() string {
	return fmt.Sprintf("readers=%d waiting=%t active=%t", r.Readers, r.Waiting, r.Active)
}

// Readers returns the reader count of an RwLock word.
//
//go:nosplit
func Readers(s uint32) uint32 {
	return s & ReaderMask
}

// CanRead reports whether a reader may join under the given policy.
//
//go:nosplit
func CanRead(s uint32, p Policy) bool {
	if s&WriterActive != 0 {
		return false
	}
	if p == WriterPreferring && s&WriterWaiting != 0 {
		return false
	}
	return true
}

// CanWrite reports whether a writer may take the lock: no writer is active
// and every reader has left.
//
//go:nosplit
func CanWrite(s uint32) bool {
	return s&(WriterActive|ReaderMask) == 0
}

// AddReader returns the word with one more reader. The caller must have
// checked Readers(s) < MaxReaders.
//
//go:nosplit
func AddReader(s uint32) uint32 {
	return s + 1
}

// TakeWrite returns the word after a writer becomes active. The waiting bit
// is consumed; any other waiting writer sets it again on its next poll.
//
//go:nosplit
func TakeWrite(s uint32) uint32 {
	return (s &^ WriterWaiting) | WriterActive
}

// MarkWaiting returns the word with the writer-waiting bit set.
//
//go:nosplit
func MarkWaiting(s uint32) uint32 {
	return s | WriterWaiting
}

// Downgrade returns the word after the active writer turns into a reader.
//
//go:nosplit
func Downgrade(s uint32) uint32 {
	return (s &^ WriterActive) + 1
}

// ============================================================================
// Once word
// ============================================================================

// Once is the state of a one-time initialization gate.
//
// Transitions only move Incomplete → Running → {Complete | Poisoned}.
type Once uint32

const (
	OnceIncomplete Once = iota
	OnceRunning
	OnceComplete
	OncePoisoned
)

func (o Once) String() string {
	switch o {
	case OnceIncomplete:
		return "incomplete"
	case OnceRunning:
		return "running"
	case OnceComplete:
		return "complete"
	case OncePoisoned:
		return "poisoned"
	default:
		return fmt.Sprintf("Once(%d)", uint32(o))
	}
}

// Terminal reports whether no further transition can leave o.
func (o Once) Terminal() bool {
	return o == OnceComplete || o == OncePoisoned
}

// CanTransition reports whether from → to is a legal edge of the Once state
// machine.
func CanTransition(from, to Once) bool {
	switch from {
	case OnceIncomplete:
		return to == OnceRunning
	case OnceRunning:
		return to == OnceComplete || to == OncePoisoned
	default:
		return false
	}
}

// ============================================================================
// Barrier word
// ============================================================================

// Barrier word (64-bit):
//
//	high 32: generation
//	low 32:  arrivals in the current generation
const barrierGenShift = 32

// SplitBarrier returns the generation and arrival count of a barrier word.
//
//go:nosplit
func SplitBarrier(s uint64) (gen, arrived uint32) {
	return uint32(s >> barrierGenShift), uint32(s)
}

// Arrive returns the word with one more arrival in the same generation.
//
//go:nosplit
func Arrive(s uint64) uint64 {
	return s + 1
}

// NextGeneration returns the word that releases generation gen: the
// generation advances (wrapping) and the arrival count resets to zero.
//
//go:nosplit
func NextGeneration(gen uint32) uint64 {
	return uint64(gen+1) << barrierGenShift
}
