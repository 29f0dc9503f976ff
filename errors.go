package spinx

import "github.com/llxisdsh/spinx/spin"

// Errors returned by every primitive, whichever implementation is selected.
var (
	ErrWouldBlock   = spin.ErrWouldBlock
	ErrSpinTimeout  = spin.ErrSpinTimeout
	ErrPoisoned     = spin.ErrPoisoned
	ErrOncePoisoned = spin.ErrOncePoisoned
)

// PoisonError carries the guard acquired from a lock whose previous holder
// panicked. errors.Is(err, ErrPoisoned) matches it.
type PoisonError[G any] = spin.PoisonError[G]

// IgnorePoison drops a poison error, keeping the guard.
//
//	g, err := spinx.IgnorePoison(m.Lock())
func IgnorePoison[G any](g G, err error) (G, error) {
	return spin.IgnorePoison(g, err)
}
