package spinx_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/llxisdsh/spinx"
)

func TestPlatform(t *testing.T) {
	switch spinx.Platform {
	case "native", "wasm-threads":
		if !spinx.Threaded {
			t.Errorf("%s must select the spinning primitives", spinx.Platform)
		}
	case "wasm":
		if spinx.Threaded {
			t.Error("single-threaded wasm must select the no-op primitives")
		}
	default:
		t.Errorf("unknown platform %q", spinx.Platform)
	}
}

func TestScenario_MutexCounter(t *testing.T) {
	if !spinx.Threaded {
		t.Skip("needs threads")
	}
	m := spinx.NewMutex(0)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10_000 {
				g, _ := m.Lock()
				*g.Get()++
				g.Unlock()
			}
		}()
	}
	wg.Wait()

	g, _ := m.Lock()
	defer g.Unlock()
	if *g.Get() != 80_000 {
		t.Fatalf("counter = %d, want 80000", *g.Get())
	}
}

func TestScenario_OnceLock(t *testing.T) {
	if !spinx.Threaded {
		t.Skip("needs threads")
	}
	var cell spinx.OnceLock[uint32]
	var calls atomic.Int32

	got := make(chan uint32, 16)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got <- *cell.GetOrInit(func() uint32 {
				calls.Add(1)
				return 42
			})
		}()
	}
	wg.Wait()
	close(got)

	n := 0
	for v := range got {
		n++
		if v != 42 {
			t.Errorf("got %d, want 42", v)
		}
	}
	if n != 16 || calls.Load() != 1 {
		t.Fatalf("%d results, initializer ran %d times", n, calls.Load())
	}
}

func TestScenario_RwLockPoison(t *testing.T) {
	l := spinx.NewRwLock(0)
	func() {
		defer func() { _ = recover() }()
		g, _ := l.Write()
		defer g.Unlock()
		panic("writer failed")
	}()

	g, err := l.Write()
	if !errors.Is(err, spinx.ErrPoisoned) {
		t.Fatalf("Write err = %v, want ErrPoisoned", err)
	}
	var pe *spinx.PoisonError[spinx.RwLockWriteGuard[int]]
	if !errors.As(err, &pe) {
		t.Fatalf("Write err %T is not a PoisonError", err)
	}
	g.Unlock()

	r := l.Read()
	r.Unlock()
}

func TestIgnorePoison(t *testing.T) {
	m := spinx.NewMutex(1)
	func() {
		defer func() { _ = recover() }()
		g, _ := m.Lock()
		defer g.Unlock()
		panic("boom")
	}()
	g, err := spinx.IgnorePoison(m.Lock())
	if err != nil || *g.Get() != 1 {
		t.Fatalf("IgnorePoison = %v, %v", *g.Get(), err)
	}
	g.Unlock()
}
