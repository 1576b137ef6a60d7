// ABOUTME: Tests for the fixed-window rate limiter.
// ABOUTME: Covers exhaustion, counter bounding, key isolation, and window rollover.

package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/maven-gavin/toolgate/internal/store"
)

func TestAllow_ExhaustsWindow(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	l := NewLimiter(kv, 3, time.Minute, slog.Default())

	// Exactly three calls pass
	for i := 1; i <= 3; i++ {
		if err := l.Allow(ctx, "sess-1", "get_user_profile"); err != nil {
			t.Fatalf("Allow #%d failed: %v", i, err)
		}
	}

	// The fourth is denied
	err := l.Allow(ctx, "sess-1", "get_user_profile")
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Allow #4 error = %v, want ErrRateLimitExceeded", err)
	}

	// The denial did not inflate the counter: the count still reads 3
	key := l.windowKey("sess-1", "get_user_profile")
	count, ok, err := kv.IncrBelow(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("IncrBelow failed: %v", err)
	}
	if ok {
		t.Error("counter admitted another increment past the limit")
	}
	if count != 3 {
		t.Errorf("counter after denial = %d, want 3", count)
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(store.NewMemoryStore(), 1, time.Minute, slog.Default())

	if err := l.Allow(ctx, "sess-1", "tool_a"); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if err := l.Allow(ctx, "sess-1", "tool_a"); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("same key error = %v, want ErrRateLimitExceeded", err)
	}

	// Different tool and different scope are separate windows
	if err := l.Allow(ctx, "sess-1", "tool_b"); err != nil {
		t.Errorf("different tool denied: %v", err)
	}
	if err := l.Allow(ctx, "sess-2", "tool_a"); err != nil {
		t.Errorf("different scope denied: %v", err)
	}
}

func TestAllow_WindowRollover(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(store.NewMemoryStore(), 1, time.Minute, slog.Default())

	current := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return current }

	if err := l.Allow(ctx, "s", "t"); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if err := l.Allow(ctx, "s", "t"); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Allow within window error = %v, want ErrRateLimitExceeded", err)
	}

	// The next window starts a fresh counter
	current = current.Add(time.Minute)
	if err := l.Allow(ctx, "s", "t"); err != nil {
		t.Errorf("Allow in next window failed: %v", err)
	}
}

func TestWindowKey_Deterministic(t *testing.T) {
	a := NewLimiter(store.NewMemoryStore(), 5, time.Minute, slog.Default())
	b := NewLimiter(store.NewMemoryStore(), 5, time.Minute, slog.Default())

	at := time.Unix(1_700_000_042, 0)
	a.now = func() time.Time { return at }
	b.now = func() time.Time { return at }

	// Two independent instances derive the same bucket key for the same
	// wall time, which is what lets them share one counter store.
	if ka, kb := a.windowKey("s", "t"), b.windowKey("s", "t"); ka != kb {
		t.Errorf("window keys differ across instances: %q vs %q", ka, kb)
	}
}
