package nop

import "runtime"

// SpinBarrier lets a fixed party of n goroutines wait for each other on a
// single thread. Waiters yield until the last arrival advances the
// generation.
type SpinBarrier struct {
	_       noCopy
	gen     uint32
	arrived uint32
	parties uint32
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

// Wait yields until all participants of the current generation have called
// Wait. Exactly one caller per generation, the last to arrive, gets true.
func (b *SpinBarrier) Wait() bool {
	if b.parties == 0 {
		panic("spinx: SpinBarrier used without NewSpinBarrier")
	}
	gen := b.gen
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.gen++
		return true
	}
	for b.gen == gen {
		runtime.Gosched()
	}
	return false
}

// Parties returns the number of participants.
func (b *SpinBarrier) Parties() int {
	return int(b.parties)
}
