// Package nop provides the spinx primitives for targets with exactly one
// thread of execution, such as WebAssembly without shared memory.
//
// Every type has the same method set as its counterpart in package spin, but
// no operation issues an atomic instruction. State is kept in plain fields:
// goroutines still exist on such targets, but only one runs at a time, and
// none is switched out between a check of a field and the update that
// follows it. An acquisition that has to
// wait calls runtime.Gosched until the holder, another goroutine on the same
// thread, releases. Spinning would only burn the thread the holder needs.
//
// The package must not be used where goroutines run in parallel.
package nop
