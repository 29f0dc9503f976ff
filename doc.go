// Package spinx provides spin-based synchronization primitives that need
// nothing from the operating system: mutexes and reader-writer locks that
// store the value they protect, one-time initialization, small atomic
// containers, a reusable barrier, and a backoff helper.
//
// Waiting is always busy-polling. There is no parking and no wait queue, so
// critical sections should be short.
//
// # Guards
//
// Every acquisition returns a guard. Get gives access to the protected value
// while the guard is alive; Unlock releases it:
//
//	var counter spinx.Mutex[int]
//
//	g, err := counter.Lock()
//	if err != nil {
//		// A previous holder panicked. The lock is still held by g.
//	}
//	defer g.Unlock()
//	*g.Get()++
//
// # Poisoning
//
// When Unlock of a Mutex or RwLock write guard is deferred directly and runs
// because the goroutine is panicking, the lock is marked poisoned and the
// panic continues. Later acquisitions still succeed but return a
// *PoisonError alongside the guard until ClearPoison is called. Use
// IgnorePoison to proceed regardless. Read guards never poison, and Read
// never reports poison. The Raw variants do not track it at all.
//
// A Once whose function panics is poisoned for good: further calls to Do
// panic with ErrOncePoisoned.
//
// # Platforms
//
// The exported names are aliases selected at build time. Natively, and on
// WebAssembly built with the spinx_wasm_threads tag, they refer to package
// spin. On single-threaded WebAssembly they refer to package nop, whose
// types perform no atomic operations. See Platform and Threaded.
package spinx
