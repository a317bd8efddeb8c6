package sessions

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func mustRegister(t *testing.T, tr *Tracker, id string, h Handle) func() {
	t.Helper()
	u, err := tr.Register(id, h)
	if err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	return u
}

func TestTracker_RegisterUnregister_CountAndWait(t *testing.T) {
	tr := NewTracker(0, nil)
	if tr.Count() != 0 {
		t.Fatalf("initial count=%d, want 0", tr.Count())
	}

	u1 := mustRegister(t, tr, "s1", Handle{})
	u2 := mustRegister(t, tr, "s2", Handle{})
	if tr.Count() != 2 {
		t.Fatalf("count=%d, want 2", tr.Count())
	}

	u1()
	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1", tr.Count())
	}

	u2()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if ok := tr.Wait(ctx); !ok {
		t.Fatalf("expected Wait to return true")
	}
	if tr.Count() != 0 {
		t.Fatalf("count=%d, want 0", tr.Count())
	}
}

func TestTracker_CapacityLimit(t *testing.T) {
	tr := NewTracker(2, nil)
	mustRegister(t, tr, "s1", Handle{})
	mustRegister(t, tr, "s2", Handle{})

	if _, err := tr.Register("s3", Handle{}); !errors.Is(err, ErrCapacity) {
		t.Fatalf("err=%v, want ErrCapacity", err)
	}

	// Replacing an existing id is not a new slot and must succeed.
	var canceled atomic.Int64
	mustRegister(t, tr, "s1", Handle{Cancel: func() { canceled.Add(1) }})
	if _, err := tr.Register("s1", Handle{}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if canceled.Load() != 1 {
		t.Fatalf("replaced entry cancel calls=%d, want 1", canceled.Load())
	}
	if tr.Count() != 2 {
		t.Fatalf("count=%d, want 2", tr.Count())
	}
}

func TestTracker_CancelAll_CallsCancel(t *testing.T) {
	tr := NewTracker(0, nil)
	var c1, c2 atomic.Int64
	mustRegister(t, tr, "s1", Handle{Cancel: func() { c1.Add(1) }})
	mustRegister(t, tr, "s2", Handle{Cancel: func() { c2.Add(1) }})

	if n := tr.CancelAll(); n != 2 {
		t.Fatalf("canceled=%d, want 2", n)
	}
	if c1.Load() != 1 || c2.Load() != 1 {
		t.Fatalf("cancel calls=%d/%d, want 1/1", c1.Load(), c2.Load())
	}
}

func TestTracker_WarnAll_BestEffort(t *testing.T) {
	tr := NewTracker(0, nil)
	var w1, w2 atomic.Int64
	mustRegister(t, tr, "s1", Handle{Warn: func(code, message string) error {
		_ = code
		_ = message
		w1.Add(1)
		return nil
	}})
	mustRegister(t, tr, "s2", Handle{Warn: func(code, message string) error {
		_ = code
		_ = message
		w2.Add(1)
		return errors.New("nope")
	}})

	if sent := tr.WarnAll("draining", "test"); sent != 2 {
		t.Fatalf("sent=%d, want 2", sent)
	}
	if w1.Load() != 1 || w2.Load() != 1 {
		t.Fatalf("warn calls=%d/%d, want 1/1", w1.Load(), w2.Load())
	}
}
