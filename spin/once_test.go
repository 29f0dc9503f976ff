package spin

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestOnce_Do(t *testing.T) {
	var o Once
	var calls atomic.Int32

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			o.Do(func() { calls.Add(1) })
			if !o.IsCompleted() {
				t.Errorf("Do returned before completion")
			}
		}()
	}
	wg.Wait()

	if c := calls.Load(); c != 1 {
		t.Fatalf("initializer ran %d times, want 1", c)
	}
	o.Do(func() { t.Fatal("ran again") })
}

// recoverOf runs f and returns what it panicked with.
func recoverOf(f func()) (r any) {
	defer func() { r = recover() }()
	f()
	return nil
}

func TestOnce_Poison(t *testing.T) {
	var o Once
	if r := recoverOf(func() { o.Do(func() { panic("init failed") }) }); r != "init failed" {
		t.Fatalf("recovered %v, want the initializer panic", r)
	}
	if !o.IsPoisoned() || o.IsCompleted() {
		t.Fatal("Once not poisoned after initializer panic")
	}

	r := recoverOf(func() { o.Do(func() {}) })
	if err, ok := r.(error); !ok || !errors.Is(err, ErrOncePoisoned) {
		t.Fatalf("second Do panicked with %v, want ErrOncePoisoned", r)
	}
	r = recoverOf(o.Wait)
	if err, ok := r.(error); !ok || !errors.Is(err, ErrOncePoisoned) {
		t.Fatalf("Wait panicked with %v, want ErrOncePoisoned", r)
	}
}

func TestOnce_GoexitPoisons(t *testing.T) {
	var o Once
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Do(runtime.Goexit)
	}()
	<-done

	if !o.IsPoisoned() {
		t.Fatal("Goexit in initializer did not poison")
	}
}

func TestOnce_Wait(t *testing.T) {
	var o Once
	release := make(chan struct{})
	go o.Do(func() { <-release })

	waitFor(t, "initializer start", func() bool {
		return !o.IsCompleted() && o.state.Load() != 0
	})

	var waited atomic.Bool
	done := make(chan struct{})
	go func() {
		o.Wait()
		waited.Store(true)
		close(done)
	}()
	if waited.Load() {
		t.Fatal("Wait returned while initializer was running")
	}
	close(release)
	<-done
}

func TestOnceLock_GetOrInit(t *testing.T) {
	var cell OnceLock[uint32]
	var calls atomic.Int32

	const racers = 16
	results := make([]*uint32, racers)
	start := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(racers)
	for i := range racers {
		go func() {
			defer wg.Done()
			<-start
			results[i] = cell.GetOrInit(func() uint32 {
				calls.Add(1)
				return 42
			})
		}()
	}
	close(start)
	wg.Wait()

	if c := calls.Load(); c != 1 {
		t.Fatalf("initializer ran %d times, want 1", c)
	}
	for i, p := range results {
		if *p != 42 {
			t.Errorf("racer %d got %d, want 42", i, *p)
		}
		if p != results[0] {
			t.Errorf("racer %d got a different slot", i)
		}
	}
}

func TestOnceLock_GetSet(t *testing.T) {
	var cell OnceLock[string]
	if _, ok := cell.Get(); ok {
		t.Fatal("Get on empty cell reported a value")
	}
	if !cell.Set("first") {
		t.Fatal("Set on empty cell failed")
	}
	if cell.Set("second") {
		t.Fatal("Set on full cell succeeded")
	}
	v, ok := cell.Get()
	if !ok || *v != "first" {
		t.Fatalf("Get = %v, %v; want first", v, ok)
	}
	if *cell.GetOrInit(func() string { return "third" }) != "first" {
		t.Fatal("GetOrInit replaced the stored value")
	}
	if !cell.IsInitialized() || *cell.Wait() != "first" {
		t.Fatal("Wait did not return the stored value")
	}
}

func TestLazy(t *testing.T) {
	var calls atomic.Int32
	l := NewLazy(func() []int {
		calls.Add(1)
		return []int{1, 2, 3}
	})
	if l.IsInitialized() {
		t.Fatal("initialized before first Get")
	}

	var wg sync.WaitGroup
	wg.Add(8)
	for range 8 {
		go func() {
			defer wg.Done()
			if got := (*l.Get())[2]; got != 3 {
				t.Errorf("Get()[2] = %d, want 3", got)
			}
		}()
	}
	wg.Wait()

	if c := calls.Load(); c != 1 {
		t.Fatalf("initializer ran %d times, want 1", c)
	}
	if !l.IsInitialized() {
		t.Fatal("not initialized after Get")
	}
}

func TestLazy_Misuse(t *testing.T) {
	if recoverOf(func() { NewLazy[int](nil) }) == nil {
		t.Error("NewLazy(nil) did not panic")
	}
	var l Lazy[int]
	if recoverOf(func() { l.Get() }) == nil {
		t.Error("zero Lazy Get did not panic")
	}
}
