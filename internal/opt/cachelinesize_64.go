//go:build spinx_cachelinesize_64

package opt

// CacheLineSize_ is forced via the spinx_cachelinesize_64 build tag.
const CacheLineSize_ = 64
