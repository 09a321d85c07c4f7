package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCollapsesBurst(t *testing.T) {
	d := New(50 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Value

	for _, v := range []string{"w", "wa", "war"} {
		v := v
		d.Trigger(func() {
			calls.Add(1)
			last.Store(v)
		})
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
	if last.Load() != "war" {
		t.Fatalf("expected last value to win, got %v", last.Load())
	}
}

func TestStopCancelsPending(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	if !d.Pending() {
		t.Fatalf("expected pending call")
	}
	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("stopped call ran")
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	d := New(time.Hour)
	ran := false
	d.Trigger(func() { ran = true })
	d.Flush()
	if !ran {
		t.Fatalf("flush did not run pending call")
	}
	if d.Pending() {
		t.Fatalf("nothing should be pending after flush")
	}
}

func TestZeroQuietRunsSynchronously(t *testing.T) {
	d := New(0)
	ran := false
	d.Trigger(func() { ran = true })
	if !ran {
		t.Fatalf("expected synchronous call")
	}
}
