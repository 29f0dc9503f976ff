package nop

import "github.com/llxisdsh/spinx/spin"

// The error values are shared with package spin, so errors.Is checks written
// against either package hold on every platform.
var (
	ErrWouldBlock   = spin.ErrWouldBlock
	ErrSpinTimeout  = spin.ErrSpinTimeout
	ErrPoisoned     = spin.ErrPoisoned
	ErrOncePoisoned = spin.ErrOncePoisoned
)

// PoisonError carries the guard acquired from a poisoned lock.
type PoisonError[G any] = spin.PoisonError[G]

// NewPoisonError wraps g.
func NewPoisonError[G any](g G) *PoisonError[G] {
	return spin.NewPoisonError(g)
}

// IgnorePoison drops a poison error, keeping the guard.
func IgnorePoison[G any](g G, err error) (G, error) {
	return spin.IgnorePoison(g, err)
}
