package spin

import (
	"sync/atomic"
	"unsafe"

	"github.com/llxisdsh/spinx/internal/opt"
	"github.com/llxisdsh/spinx/internal/state"
)

// SpinBarrier lets a fixed party of n goroutines wait for each other.
//
// Every participant calls Wait; the calls return once all n have arrived.
// The barrier is reusable: the last arrival advances a generation counter
// and resets the arrival count, and waiters spin on the generation rather
// than the count. A fast participant that re-enters Wait is counted in the
// next generation and cannot release the current one early.
//
// Size: one cache line.
type SpinBarrier struct {
	_ noCopy
	// state 64-bit:
	//   High 32: Generation
	//   Low 32: Arrivals in the current generation
	state   atomic.Uint64
	parties uint32
	_       [(opt.CacheLineSize_ - unsafe.Sizeof(struct {
		s uint64
		n uint32
	}{})%opt.CacheLineSize_) % opt.CacheLineSize_]byte
}

// NewSpinBarrier returns a barrier for n participants.
//
// panic if n <= 0.
func NewSpinBarrier(n int) *SpinBarrier {
	if n <= 0 || uint64(n) > uint64(^uint32(0)) {
		panic("spinx: parties must be positive and fit in 32 bits")
	}
	return &SpinBarrier{parties: uint32(n)}
}

// Wait spins until all participants of the current generation have called
// Wait. Exactly one caller per generation, the last to arrive, gets true.
func (b *SpinBarrier) Wait() bool {
	n := b.parties
	if n == 0 {
		panic("spinx: SpinBarrier used without NewSpinBarrier")
	}
	if n == 1 {
		return true
	}

	var sw SpinWait
	for {
		s := b.state.Load()
		gen, arrived := state.SplitBarrier(s)

		if arrived+1 == n {
			// Last to arrive. Release everyone waiting on gen.
			if b.state.CompareAndSwap(s, state.NextGeneration(gen)) {
				return true
			}
		} else if b.state.CompareAndSwap(s, state.Arrive(s)) {
			sw.Reset()
			for {
				if g, _ := state.SplitBarrier(b.state.Load()); g != gen {
					return false
				}
				sw.SpinOrYield()
			}
		}
		sw.SpinOrYield()
	}
}

// Parties returns the number of participants.
func (b *SpinBarrier) Parties() int {
	return int(b.parties)
}
