// ABOUTME: Shared-store interfaces backing sessions and rate-limit counters.
// ABOUTME: Narrow KV and Counter contracts so backends stay swappable and testable.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("not found")

// KV is the narrow key-value contract used by the session manager.
// Every entry carries a TTL; the backend owns expiry.
type KV interface {
	// Get returns the value for key, or ErrNotFound if the key is absent
	// or past its TTL.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value under key, replacing any prior entry and
	// resetting its expiry to now+ttl.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Counter is the atomic windowed-counter contract used by the rate limiter.
type Counter interface {
	// IncrBelow atomically increments the counter for key only while the
	// pre-increment count is below limit. It returns the observable count
	// after the operation and whether the increment happened. A counter
	// created by this call expires after ttl.
	//
	// Concurrent callers on the same key are serialized by the backend so
	// the count is never under-counted.
	IncrBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (count int64, incremented bool, err error)
}

// Store combines the contracts a full backend provides.
type Store interface {
	KV
	Counter
}
