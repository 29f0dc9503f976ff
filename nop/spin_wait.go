package nop

import "runtime"

// SpinWait is the backoff counter. Spinning cannot make progress on a single
// thread, so Spin always asks the caller to yield, and SpinOrYield hands the
// thread to the next runnable goroutine.
type SpinWait struct{}

// Spin reports false.
func (*SpinWait) Spin() bool { return false }

// SpinOrYield yields the thread.
func (*SpinWait) SpinOrYield() { runtime.Gosched() }

// Reset does nothing.
func (*SpinWait) Reset() {}

// Count returns 0.
func (*SpinWait) Count() uint32 { return 0 }

// wait yields until try succeeds. The holder is another goroutine on the
// same thread, so it can only release while this one is yielded.
func wait(try func() bool) {
	for !try() {
		runtime.Gosched()
	}
}

// poll makes up to maxSpins+1 attempts, yielding between them.
func poll(try func() bool, maxSpins int) bool {
	for i := 0; ; i++ {
		if try() {
			return true
		}
		if i >= maxSpins {
			return false
		}
		runtime.Gosched()
	}
}
