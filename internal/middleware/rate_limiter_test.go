package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow(1) {
		t.Error("request over the limit should be denied")
	}

	// Other users are unaffected.
	if !rl.Allow(2) {
		t.Error("a different user should still be allowed")
	}
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	if got := rl.Remaining(1); got != 5 {
		t.Errorf("Remaining() = %d, want 5", got)
	}
	rl.Allow(1)
	rl.Allow(1)
	if got := rl.Remaining(1); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow(1)
	if rl.Allow(1) {
		t.Fatal("second request should be denied")
	}
	rl.Reset()
	if !rl.Allow(1) {
		t.Error("request after reset should be allowed")
	}
}
