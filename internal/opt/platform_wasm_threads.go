//go:build wasm && spinx_wasm_threads

package opt

// Platform_ names the build configuration the primitives were selected for.
//
// Enable with -tags=spinx_wasm_threads when the module is instantiated with
// shared memory and the atomics proposal.
const Platform_ = "wasm-threads"

// Threaded_ reports whether more than one thread of execution may touch
// shared memory. When false the no-op primitives are selected.
const Threaded_ = true
