package spin

import (
	"github.com/llxisdsh/pb"
)

// OnceMap initializes one value per key, exactly once per key, and keeps it.
//
// The first GetOrInit for a key installs an empty OnceLock for it; racers on
// the same key all land on that cell and only the winner runs the
// initializer. Initializers for different keys run independently.
//
// If an initializer panics, that key's cell is poisoned and later GetOrInit
// calls for it panic with ErrOncePoisoned until Forget removes it.
//
// Unlike the other primitives it allocates: one cell per key. It must be
// created with NewOnceMap, which builds the backing map before any goroutine
// can see it.
type OnceMap[K comparable, V any] struct {
	m *pb.MapOf[K, *OnceLock[V]]
}

// NewOnceMap returns an empty OnceMap.
func NewOnceMap[K comparable, V any]() *OnceMap[K, V] {
	return &OnceMap[K, V]{m: pb.NewMapOf[K, *OnceLock[V]]()}
}

func (om *OnceMap[K, V]) table() *pb.MapOf[K, *OnceLock[V]] {
	if om.m == nil {
		panic("spinx: OnceMap used without NewOnceMap")
	}
	return om.m
}

func (om *OnceMap[K, V]) cell(key K) *OnceLock[V] {
	c, _ := om.table().ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *OnceLock[V]]) (*pb.EntryOf[K, *OnceLock[V]], *OnceLock[V], bool) {
			if l != nil {
				return l, l.Value, true
			}
			c := &OnceLock[V]{}
			return &pb.EntryOf[K, *OnceLock[V]]{Value: c}, c, false
		},
	)
	return c
}

// GetOrInit returns the value for key, computing it with f on first use.
func (om *OnceMap[K, V]) GetOrInit(key K, f func(K) V) *V {
	c := om.cell(key)
	return c.GetOrInit(func() V {
		return f(key)
	})
}

// Get returns the value for key if it has been initialized.
func (om *OnceMap[K, V]) Get(key K) (*V, bool) {
	c, ok := om.table().Load(key)
	if !ok {
		return nil, false
	}
	return c.Get()
}

// Forget drops key. A later GetOrInit runs its initializer again. Pointers
// handed out for the old value stay valid.
func (om *OnceMap[K, V]) Forget(key K) {
	om.table().Delete(key)
}
