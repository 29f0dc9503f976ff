package spin

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/llxisdsh/spinx/internal/state"
)

// rwLocker is the subset shared by the poisoning RwLock variants, so the
// exclusion tests can run against both policies.
type rwLocker[T any] interface {
	Read() RwLockReadGuard[T]
	TryRead() (RwLockReadGuard[T], error)
	Write() (RwLockWriteGuard[T], error)
	TryWrite() (RwLockWriteGuard[T], error)
	Readers() int
	IsPoisoned() bool
}

var (
	_ rwLocker[int] = (*RwLock[int])(nil)
	_ rwLocker[int] = (*ReaderRwLock[int])(nil)
)

func TestRwLock_Basic(t *testing.T) {
	l := NewRwLock(1)
	g, err := l.Write()
	if err != nil {
		t.Fatal(err)
	}
	*g.Get() = 2
	g.Unlock()

	r := l.Read()
	if *r.Get() != 2 {
		t.Errorf("read %d, want 2", *r.Get())
	}
	r.Unlock()
}

func testReadersAndWriters(t *testing.T, rw rwLocker[int]) {
	var readers int32
	var writers int32

	const loops = 1000
	readerN := runtime.GOMAXPROCS(0)
	writerN := 2

	var wg sync.WaitGroup
	wg.Add(readerN + writerN)

	for range readerN {
		go func() {
			defer wg.Done()
			for range loops {
				g := rw.Read()
				n := atomic.AddInt32(&readers, 1)
				if atomic.LoadInt32(&writers) != 0 {
					t.Errorf("reader observed active writer")
				}
				if n <= 0 {
					t.Errorf("invalid reader count")
				}
				atomic.AddInt32(&readers, -1)
				g.Unlock()
			}
		}()
	}

	for range writerN {
		go func() {
			defer wg.Done()
			for range loops {
				g, _ := rw.Write()
				if atomic.AddInt32(&writers, 1) != 1 {
					t.Errorf("multiple writers active")
				}
				if atomic.LoadInt32(&readers) != 0 {
					t.Errorf("writer observed active readers")
				}
				*g.Get()++
				atomic.AddInt32(&writers, -1)
				g.Unlock()
			}
		}()
	}

	wg.Wait()

	g := rw.Read()
	defer g.Unlock()
	if got := *g.Get(); got != writerN*loops {
		t.Errorf("value = %d, want %d", got, writerN*loops)
	}
}

func TestRwLock_ReadersAndWriters(t *testing.T) {
	testReadersAndWriters(t, &RwLock[int]{})
}

func TestReaderRwLock_ReadersAndWriters(t *testing.T) {
	testReadersAndWriters(t, &ReaderRwLock[int]{})
}

func TestRwLock_ConcurrentReaders(t *testing.T) {
	for _, rw := range []rwLocker[int]{NewRwLock(7), NewReaderRwLock(7)} {
		a, b, c := rw.Read(), rw.Read(), rw.Read()
		if n := rw.Readers(); n != 3 {
			t.Errorf("Readers = %d, want 3", n)
		}
		if *a.Get() != 7 || *b.Get() != 7 || *c.Get() != 7 {
			t.Error("readers observed different values")
		}
		if _, err := rw.TryWrite(); !errors.Is(err, ErrWouldBlock) {
			t.Errorf("TryWrite err = %v, want ErrWouldBlock", err)
		}
		a.Unlock()
		b.Unlock()
		c.Unlock()

		w, err := rw.TryWrite()
		if err != nil {
			t.Fatalf("TryWrite on idle lock: %v", err)
		}
		if _, err := rw.TryRead(); !errors.Is(err, ErrWouldBlock) {
			t.Errorf("TryRead err = %v, want ErrWouldBlock", err)
		}
		w.Unlock()
	}
}

// waitFor polls cond for up to a second.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		runtime.Gosched()
	}
}

func TestRwLock_WaitingWriterBlocksReaders(t *testing.T) {
	var l RwLock[int]
	r := l.Read()

	acquired := make(chan struct{})
	go func() {
		g, _ := l.Write()
		close(acquired)
		g.Unlock()
	}()

	waitFor(t, "writer-waiting bit", func() bool {
		return state.DecodeRW(l.w.state.Load()).Waiting
	})
	if _, err := l.TryRead(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("TryRead with waiting writer: err = %v, want ErrWouldBlock", err)
	}
	select {
	case <-acquired:
		t.Fatal("writer acquired while a reader was inside")
	default:
	}

	r.Unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("writer did not acquire after the last reader left")
	}
	waitFor(t, "writer release", func() bool { return !l.IsWriteLocked() })
	if s := l.w.state.Load(); s != 0 {
		t.Errorf("state after release = %s, want idle", state.DecodeRW(s))
	}
}

func TestReaderRwLock_ReadersBypassWaitingWriter(t *testing.T) {
	var l ReaderRwLock[int]
	r := l.Read()

	var started atomic.Bool
	acquired := make(chan struct{})
	go func() {
		started.Store(true)
		g, _ := l.Write()
		close(acquired)
		g.Unlock()
	}()
	waitFor(t, "writer start", started.Load)
	time.Sleep(10 * time.Millisecond)

	r2, err := l.TryRead()
	if err != nil {
		t.Fatalf("TryRead with pending writer: %v", err)
	}
	if state.DecodeRW(l.w.state.Load()).Waiting {
		t.Error("reader-preferring writer raised the waiting bit")
	}
	r.Unlock()
	r2.Unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("writer did not acquire once readers left")
	}
}

func TestRwLock_WriterNotStarved(t *testing.T) {
	var l RwLock[int]
	stop := make(chan struct{})
	var reads atomic.Int64

	readerN := max(2, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	wg.Add(readerN)
	for range readerN {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				g := l.Read()
				reads.Add(1)
				g.Unlock()
			}
		}()
	}

	waitFor(t, "reader traffic", func() bool { return reads.Load() > 100 })

	const writes = 100
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range writes {
			g, _ := l.Write()
			*g.Get()++
			g.Unlock()
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Error("writer starved under continuous reads")
	}
	close(stop)
	wg.Wait()
	<-done
}

func TestRwLock_WriteSpinWithdrawsSignal(t *testing.T) {
	var l RwLock[int]
	r := l.Read()

	if _, err := l.WriteSpin(8); !errors.Is(err, ErrSpinTimeout) {
		t.Fatalf("WriteSpin err = %v, want ErrSpinTimeout", err)
	}
	r2, err := l.TryRead()
	if err != nil {
		t.Fatalf("reader blocked by a writer that gave up: %v", err)
	}
	r2.Unlock()

	r3, err := l.ReadSpin(0)
	if err != nil {
		t.Fatalf("ReadSpin: %v", err)
	}
	if n := l.Readers(); n != 2 {
		t.Errorf("Readers = %d, want 2", n)
	}
	r3.Unlock()
	r.Unlock()

	if l.Readers() != 0 || l.w.state.Load() != 0 {
		t.Fatalf("lock not idle after release: state %#x", l.w.state.Load())
	}
}

func TestRwLock_ReadSpinTimeout(t *testing.T) {
	var l RwLock[int]
	w, _ := l.Write()
	if _, err := l.ReadSpin(8); !errors.Is(err, ErrSpinTimeout) {
		t.Fatalf("ReadSpin err = %v, want ErrSpinTimeout", err)
	}
	w.Unlock()
}

func TestRwLock_Downgrade(t *testing.T) {
	l := NewRwLock(0)
	w, _ := l.Write()
	*w.Get() = 5
	r := w.Downgrade()

	if l.IsWriteLocked() {
		t.Error("still write locked after Downgrade")
	}
	if n := l.Readers(); n != 1 {
		t.Errorf("Readers = %d, want 1", n)
	}
	if _, err := l.TryWrite(); !errors.Is(err, ErrWouldBlock) {
		t.Errorf("TryWrite err = %v, want ErrWouldBlock", err)
	}
	r2, err := l.TryRead()
	if err != nil {
		t.Fatalf("TryRead after Downgrade: %v", err)
	}
	if *r.Get() != 5 {
		t.Errorf("read %d, want 5", *r.Get())
	}
	r.Unlock()
	r2.Unlock()
}

func panicWhileWriting(rw rwLocker[int]) {
	defer func() { _ = recover() }()
	g, _ := rw.Write()
	defer g.Unlock()
	panic("boom")
}

func panicWhileReading(rw rwLocker[int]) {
	defer func() { _ = recover() }()
	g := rw.Read()
	defer g.Unlock()
	panic("boom")
}

func TestRwLock_Poison(t *testing.T) {
	for _, rw := range []rwLocker[int]{NewRwLock(0), NewReaderRwLock(0)} {
		panicWhileReading(rw)
		if rw.IsPoisoned() {
			t.Fatal("read-guard panic poisoned the lock")
		}
		if n := rw.Readers(); n != 0 {
			t.Fatalf("Readers = %d after panicking reader", n)
		}

		panicWhileWriting(rw)
		if !rw.IsPoisoned() {
			t.Fatal("write-guard panic did not poison the lock")
		}

		g, err := rw.Write()
		if !errors.Is(err, ErrPoisoned) {
			t.Fatalf("Write err = %v, want ErrPoisoned", err)
		}
		g.Unlock()

		// Readers are never turned away by poison.
		r := rw.Read()
		r.Unlock()
		r, err = rw.TryRead()
		if err != nil {
			t.Fatalf("TryRead on poisoned lock: %v", err)
		}
		r.Unlock()
	}
}

func TestRwLock_ClearPoison(t *testing.T) {
	var l RwLock[int]
	panicWhileWriting(&l)
	l.ClearPoison()
	g, err := l.Write()
	if err != nil {
		t.Fatalf("Write after ClearPoison: %v", err)
	}
	g.Unlock()
}

func TestRawRwLock(t *testing.T) {
	l := NewRawRwLock(0)
	func() {
		defer func() { _ = recover() }()
		g := l.Write()
		defer g.Unlock()
		panic("boom")
	}()
	if l.IsWriteLocked() {
		t.Fatal("raw write lock leaked by panic")
	}

	w := l.Write()
	*w.Get() = 3
	if _, err := l.TryRead(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("TryRead err = %v, want ErrWouldBlock", err)
	}
	if _, err := l.TryWrite(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("TryWrite err = %v, want ErrWouldBlock", err)
	}
	if _, err := l.WriteSpin(4); !errors.Is(err, ErrSpinTimeout) {
		t.Fatalf("WriteSpin err = %v, want ErrSpinTimeout", err)
	}
	r := w.Downgrade()
	if *r.Get() != 3 || l.Readers() != 1 {
		t.Fatal("downgrade lost the value or the reader count")
	}
	r2, err := l.ReadSpin(0)
	if err != nil {
		t.Fatalf("ReadSpin: %v", err)
	}
	r.Unlock()
	r2.Unlock()

	w2, err := l.TryWrite()
	if err != nil {
		t.Fatalf("TryWrite on idle lock: %v", err)
	}
	w2.Unlock()
}

func TestRwLock_UnlockUnlocked(t *testing.T) {
	var l RwLock[int]
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on read unlock of idle lock")
		}
	}()
	RwLockReadGuard[int]{readRelease: readRelease{&l.w}}.Unlock()
}
