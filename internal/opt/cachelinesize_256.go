//go:build spinx_cachelinesize_256

package opt

// CacheLineSize_ is forced via the spinx_cachelinesize_256 build tag.
// Use: go build -tags=spinx_cachelinesize_256
const CacheLineSize_ = 256
