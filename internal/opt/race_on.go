//go:build race

package opt

// Race_ reports whether the race detector is enabled. Stress loops in tests
// scale down when it is set since every atomic access is instrumented.
const Race_ = true
