package refresh

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	t.Run("burst collapses into one trailing run", func(t *testing.T) {
		const delay = 50 * time.Millisecond
		var runs atomic.Int32
		var mu sync.Mutex
		var ranAt time.Time

		d := NewDebouncer(delay, func() {
			mu.Lock()
			ranAt = time.Now()
			mu.Unlock()
			runs.Add(1)
		})

		var last time.Time
		for range 10 {
			last = time.Now()
			d.Trigger()
			time.Sleep(5 * time.Millisecond)
		}

		time.Sleep(4 * delay)
		if n := runs.Load(); n != 1 {
			t.Fatalf("expected exactly 1 run, got %d", n)
		}
		mu.Lock()
		defer mu.Unlock()
		if elapsed := ranAt.Sub(last); elapsed < delay {
			t.Errorf("action ran %v after the last trigger, expected at least %v", elapsed, delay)
		}
	})

	t.Run("separate bursts run separately", func(t *testing.T) {
		var runs atomic.Int32
		d := NewDebouncer(20*time.Millisecond, func() { runs.Add(1) })

		d.Trigger()
		time.Sleep(100 * time.Millisecond)
		d.Trigger()
		time.Sleep(100 * time.Millisecond)

		if n := runs.Load(); n != 2 {
			t.Errorf("expected 2 runs, got %d", n)
		}
	})

	t.Run("trigger does not block", func(t *testing.T) {
		release := make(chan struct{})
		d := NewDebouncer(time.Millisecond, func() { <-release })
		defer close(release)

		start := time.Now()
		for range 100 {
			d.Trigger()
		}
		if time.Since(start) > time.Second {
			t.Error("trigger blocked")
		}
	})

	t.Run("flush runs a pending action immediately", func(t *testing.T) {
		var runs atomic.Int32
		d := NewDebouncer(time.Hour, func() { runs.Add(1) })

		if d.Flush() {
			t.Error("nothing should be pending")
		}
		d.Trigger()
		if !d.Pending() {
			t.Error("expected a pending action")
		}
		if !d.Flush() || runs.Load() != 1 {
			t.Errorf("expected flush to run the action, got %d runs", runs.Load())
		}
		if d.Pending() || d.Flush() {
			t.Error("flush should consume the pending action")
		}
	})

	t.Run("stop cancels and ignores later triggers", func(t *testing.T) {
		var runs atomic.Int32
		d := NewDebouncer(10*time.Millisecond, func() { runs.Add(1) })
		d.Trigger()
		d.Stop()
		d.Trigger()
		time.Sleep(50 * time.Millisecond)
		if n := runs.Load(); n != 0 {
			t.Errorf("expected no runs, got %d", n)
		}
	})

	t.Run("default delay", func(t *testing.T) {
		d := NewDebouncer(0, func() {})
		if d.Delay() != DefaultDelay {
			t.Errorf("expected %v, got %v", DefaultDelay, d.Delay())
		}
		d.SetDelay(time.Second)
		if d.Delay() != time.Second {
			t.Errorf("expected 1s, got %v", d.Delay())
		}
	})
}
