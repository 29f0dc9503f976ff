package spinx

import "github.com/llxisdsh/spinx/internal/opt"

// Platform names the build configuration: "native", "wasm", or
// "wasm-threads". Build with -tags spinx_wasm_threads to select the spinning
// primitives on WebAssembly with shared memory.
const Platform = opt.Platform_

// Threaded reports whether the spinning primitives are in use. When false,
// every type is the single-threaded no-op variant from package nop.
const Threaded = opt.Threaded_
