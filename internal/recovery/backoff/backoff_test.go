package backoff

import (
	"testing"
	"time"
)

func TestDelay_Exponential(t *testing.T) {
	p := Policy{Base: 1 * time.Second, Multiplier: 2.0, MaxDelay: 60 * time.Second}

	// Attempt 1: 1s, attempt 2: 2s, attempt 3: 4s
	if d := Delay(1, p); d != 1*time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	if d := Delay(2, p); d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}
	if d := Delay(3, p); d != 4*time.Second {
		t.Errorf("expected 4s, got %v", d)
	}
}

func TestDelay_Cap(t *testing.T) {
	p := Policy{Base: 1 * time.Second, Multiplier: 2.0, MaxDelay: 10 * time.Second}

	if d := Delay(10, p); d != 10*time.Second {
		t.Errorf("expected cap at 10s, got %v", d)
	}
	if d := Delay(100, p); d != 10*time.Second {
		t.Errorf("expected cap at 10s, got %v", d)
	}
}

// Delays are non-decreasing up to the cap, then constant.
func TestDelay_Monotonic(t *testing.T) {
	p := Policy{Base: 100 * time.Millisecond, Multiplier: 1.5, MaxDelay: 5 * time.Second}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		d := Delay(attempt, p)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > p.MaxDelay {
			t.Fatalf("delay exceeded cap at attempt %d: %v", attempt, d)
		}
		prev = d
	}
	if prev != p.MaxDelay {
		t.Errorf("expected terminal delay %v, got %v", p.MaxDelay, prev)
	}
}

func TestDelay_JitterBounds(t *testing.T) {
	p := Policy{Base: 1 * time.Second, Multiplier: 2.0, MaxDelay: 60 * time.Second, Jitter: true}

	base := 4 * time.Second // attempt 3 without jitter
	lo := time.Duration(float64(base) * 0.75)
	hi := time.Duration(float64(base) * 1.25)

	for i := 0; i < 200; i++ {
		d := Delay(3, p)
		if d < lo || d > hi {
			t.Fatalf("jittered delay out of bounds: %v not in [%v, %v]", d, lo, hi)
		}
	}
}

func TestDelay_BadAttempt(t *testing.T) {
	p := DefaultPolicy()

	// Attempts below 1 are clamped, never negative delays.
	if d := Delay(0, p); d != p.Base {
		t.Errorf("expected base delay for attempt 0, got %v", d)
	}
	if d := Delay(-5, p); d < 0 {
		t.Errorf("expected non-negative delay, got %v", d)
	}
}
