// ABOUTME: Fixed-window rate limiter over the shared counter store.
// ABOUTME: Buckets are derived from wall time so independent instances agree without coordination.

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maven-gavin/toolgate/internal/store"
)

// ErrRateLimitExceeded indicates the (scope, tool) pair has used up its window.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Default limits applied when the limiter is configured with zeros.
const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute
)

// Limiter bounds call frequency per (scope, tool) pair using fixed time
// windows backed by the shared counter store.
type Limiter struct {
	counter store.Counter
	limit   int64
	window  time.Duration
	logger  *slog.Logger

	// now is swappable so window-boundary tests don't have to sleep.
	now func() time.Time
}

// NewLimiter creates a Limiter allowing limit calls per window for each key.
func NewLimiter(counter store.Counter, limit int64, window time.Duration, logger *slog.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
		logger:  logger.With("component", "ratelimit"),
		now:     time.Now,
	}
}

// Allow atomically counts one call for the (scope, tool) pair in the current
// window. It returns ErrRateLimitExceeded when the window is exhausted; a
// denied call does not inflate the counter past the limit.
func (l *Limiter) Allow(ctx context.Context, scope, tool string) error {
	key := l.windowKey(scope, tool)

	// Counters outlive their window by one extra window so a bucket still
	// being read at the boundary hasn't been reclaimed underneath it.
	count, ok, err := l.counter.IncrBelow(ctx, key, l.limit, 2*l.window)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !ok {
		l.logger.Warn("rate limit exceeded",
			"scope", scope,
			"tool_name", tool,
			"limit", l.limit,
			"window", l.window,
		)
		return fmt.Errorf("%w: %d calls per %s", ErrRateLimitExceeded, l.limit, l.window)
	}

	l.logger.Debug("rate limit counted",
		"scope", scope,
		"tool_name", tool,
		"count", count,
		"limit", l.limit,
	)
	return nil
}

// windowKey derives the deterministic bucket key for the current window.
// Every instance computes floor(now/window) over the same wall clock, so
// window boundaries agree without coordination beyond the shared store.
func (l *Limiter) windowKey(scope, tool string) string {
	bucket := l.now().Unix() / int64(l.window/time.Second)
	return fmt.Sprintf("rl:%s:%s:%d", scope, tool, bucket)
}
