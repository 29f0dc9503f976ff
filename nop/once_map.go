package nop

// OnceMap initializes one value per key and keeps it. It is backed by a
// plain map and must be created with NewOnceMap.
type OnceMap[K comparable, V any] struct {
	m map[K]*OnceLock[V]
}

// NewOnceMap returns an empty OnceMap.
func NewOnceMap[K comparable, V any]() *OnceMap[K, V] {
	return &OnceMap[K, V]{m: make(map[K]*OnceLock[V])}
}

// GetOrInit returns the value for key, computing it with f on first use.
func (om *OnceMap[K, V]) GetOrInit(key K, f func(K) V) *V {
	if om.m == nil {
		panic("spinx: OnceMap used without NewOnceMap")
	}
	c, ok := om.m[key]
	if !ok {
		c = &OnceLock[V]{}
		om.m[key] = c
	}
	return c.GetOrInit(func() V {
		return f(key)
	})
}

// Get returns the value for key if it has been initialized.
func (om *OnceMap[K, V]) Get(key K) (*V, bool) {
	c, ok := om.m[key]
	if !ok {
		return nil, false
	}
	return c.Get()
}

// Forget drops key. A later GetOrInit runs its initializer again.
func (om *OnceMap[K, V]) Forget(key K) {
	delete(om.m, key)
}
