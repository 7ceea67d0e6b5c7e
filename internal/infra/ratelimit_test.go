package infra

import (
	"testing"
	"time"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(3, 10)

	for i := 0; i < 3; i++ {
		if !rl.TryAcquire() {
			t.Fatalf("acquire %d should succeed within burst", i)
		}
	}
	if rl.TryAcquire() {
		t.Fatal("acquire beyond burst should fail immediately")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 100) // refills every 10ms

	if !rl.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if rl.TryAcquire() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(25 * time.Millisecond)
	if !rl.TryAcquire() {
		t.Fatal("token should have refilled")
	}
}

func TestRateLimiterWaitBlocks(t *testing.T) {
	rl := NewRateLimiter(1, 50) // 20ms per token
	rl.Wait()

	start := time.Now()
	rl.Wait()
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Wait returned after %s, expected to block for a token", elapsed)
	}
}
