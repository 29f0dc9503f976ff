package spin

import "runtime"

// maxSpinSteps caps the exponential backoff. Past this point a waiter has
// burned 2+4+...+1024 relax iterations and should give the processor away.
const maxSpinSteps = 10

// SpinWait is an exponential backoff counter for retry loops around a failed
// compare-and-swap.
//
// Each call to Spin busy-waits twice as long as the previous one, up to
// maxSpinSteps doublings. After that Spin stops spinning and returns false,
// signalling that the caller should yield instead.
//
// It is zero-value usable and must not be shared between goroutines.
type SpinWait struct {
	counter uint32
}

// Spin backs off for 2^n relax iterations, where n is the number of
// previous successful calls. It reports false, without spinning, once the
// cap is reached.
func (w *SpinWait) Spin() bool {
	if w.counter >= maxSpinSteps {
		return false
	}
	w.counter++
	relax(1 << w.counter)
	return true
}

// SpinOrYield spins while under the cap and yields the processor after.
func (w *SpinWait) SpinOrYield() {
	if !w.Spin() {
		runtime.Gosched()
	}
}

// Reset restarts the backoff from the shortest delay.
func (w *SpinWait) Reset() {
	w.counter = 0
}

// Count returns how many escalation steps have been taken.
func (w *SpinWait) Count() uint32 {
	return w.counter
}

// relax burns n iterations without touching shared memory.
//
//go:noinline
func relax(n uint32) {
	for i := n; i > 0; i-- {
	}
}
