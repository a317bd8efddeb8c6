package live

import (
	"sync"
	"testing"
	"time"
)

type bargeRecorder struct {
	mu      sync.Mutex
	sources []string
	rms     []float64
}

func (r *bargeRecorder) record(source string, rms float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
	r.rms = append(r.rms, rms)
}

func (r *bargeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}

func TestBargeIn_LoudFrameTriggers(t *testing.T) {
	b := NewBargeInCoordinator(DefaultBargeInConfig())
	rec := &bargeRecorder{}
	b.SetCallbacks(rec.record, nil)

	loud := makeFrame(DefaultAudioConfig(), 8000)
	if !b.CheckFrame(loud) {
		t.Fatal("expected loud frame to trigger")
	}
	if rec.count() != 1 || rec.sources[0] != "energy" {
		t.Fatalf("expected one energy trigger, got %v", rec.sources)
	}
	if rec.rms[0] < 450 {
		t.Errorf("expected reported rms above threshold, got %.0f", rec.rms[0])
	}
}

func TestBargeIn_QuietFrameIgnored(t *testing.T) {
	b := NewBargeInCoordinator(DefaultBargeInConfig())
	rec := &bargeRecorder{}
	b.SetCallbacks(rec.record, nil)

	quiet := makeFrame(DefaultAudioConfig(), 100)
	if b.CheckFrame(quiet) {
		t.Fatal("quiet frame should not trigger")
	}
	if rec.count() != 0 {
		t.Errorf("expected no triggers, got %d", rec.count())
	}
}

func TestBargeIn_Debounce(t *testing.T) {
	cfg := DefaultBargeInConfig()
	cfg.DebounceMs = 50
	b := NewBargeInCoordinator(cfg)
	rec := &bargeRecorder{}
	b.SetCallbacks(rec.record, nil)

	loud := makeFrame(DefaultAudioConfig(), 8000)
	if !b.CheckFrame(loud) {
		t.Fatal("first trigger expected")
	}
	if b.CheckFrame(loud) {
		t.Fatal("second trigger inside debounce window")
	}

	time.Sleep(60 * time.Millisecond)
	if !b.CheckFrame(loud) {
		t.Fatal("trigger expected after debounce window")
	}
	if rec.count() != 2 {
		t.Errorf("expected 2 triggers, got %d", rec.count())
	}
}

func TestBargeIn_ClientWorksWhenEnergyDisabled(t *testing.T) {
	cfg := DefaultBargeInConfig()
	cfg.Enabled = false
	b := NewBargeInCoordinator(cfg)
	rec := &bargeRecorder{}
	b.SetCallbacks(rec.record, nil)

	loud := makeFrame(DefaultAudioConfig(), 8000)
	if b.CheckFrame(loud) {
		t.Fatal("energy detection disabled, frame should not trigger")
	}
	if !b.TriggerClient() {
		t.Fatal("client trigger must work regardless")
	}
	if rec.count() != 1 || rec.sources[0] != "client" {
		t.Fatalf("expected one client trigger, got %v", rec.sources)
	}
}
