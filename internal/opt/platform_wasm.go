//go:build wasm && !spinx_wasm_threads

package opt

// Platform_ names the build configuration the primitives were selected for.
//
// Plain wasm has no shared memory: a single thread runs every goroutine, and
// a goroutine is only switched out at a yield point.
const Platform_ = "wasm"

// Threaded_ reports whether more than one thread of execution may touch
// shared memory. When false the no-op primitives are selected.
const Threaded_ = false
