package spin

import "errors"

var (
	// ErrWouldBlock is returned by Try* acquisitions when the primitive is
	// held by someone else.
	ErrWouldBlock = errors.New("spinx: operation would block")

	// ErrSpinTimeout is returned by bounded *Spin acquisitions after the
	// spin budget is exhausted.
	ErrSpinTimeout = errors.New("spinx: spin budget exhausted")

	// ErrPoisoned is matched by every PoisonError.
	ErrPoisoned = errors.New("spinx: lock poisoned by a panicking holder")

	// ErrOncePoisoned is the panic value of Once.Do after the initializer
	// panicked. It is not recoverable: the initializer cannot be retried.
	ErrOncePoisoned = errors.New("spinx: Once instance has previously been poisoned")
)

// PoisonError reports that a previous holder panicked while it had exclusive
// access. It carries the guard that was acquired regardless: the lock IS
// held and must still be released.
type PoisonError[G any] struct {
	guard G
}

// NewPoisonError wraps g.
func NewPoisonError[G any](g G) *PoisonError[G] {
	return &PoisonError[G]{guard: g}
}

// Error implements error interface.
func (e *PoisonError[G]) Error() string {
	return ErrPoisoned.Error()
}

// Unwrap returns ErrPoisoned.
func (e *PoisonError[G]) Unwrap() error {
	return ErrPoisoned
}

// Into returns the wrapped guard.
func (e *PoisonError[G]) Into() G {
	return e.guard
}

// IgnorePoison drops a poison error, keeping the guard. Any other error is
// passed through.
//
//	g, err := spin.IgnorePoison(m.Lock())
func IgnorePoison[G any](g G, err error) (G, error) {
	if errors.Is(err, ErrPoisoned) {
		return g, nil
	}
	return g, err
}
