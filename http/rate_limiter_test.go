package http

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(3, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if got := rl.RetryAfter("1.2.3.4"); got != 30*time.Second {
		t.Errorf("expected 30s retry, got %v", got)
	}

	now = now.Add(30 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the window")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, time.Minute, func() time.Time { return now })

	rl.Allow("1.2.3.4")
	now = now.Add(2 * time.Hour)
	rl.cleanup()

	if n := len(rl.clients); n != 0 {
		t.Errorf("expected stale buckets removed, %d left", n)
	}
	if got := rl.RetryAfter("1.2.3.4"); got != 0 {
		t.Errorf("unknown client should not wait, got %v", got)
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}
