//go:build !wasm

package opt

// Platform_ names the build configuration the primitives were selected for.
const Platform_ = "native"

// Threaded_ reports whether more than one thread of execution may touch
// shared memory. When false the no-op primitives are selected.
const Threaded_ = true
