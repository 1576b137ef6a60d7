// Package ratelimit bounds call frequency per (scope, tool) pair.
//
// The limiter uses fixed windows: each call maps to a bucket keyed by
// floor(now/window), and the shared store's conditional increment admits at
// most limit calls per bucket. Because the bucket index is derived from wall
// time, independent server instances agree on window boundaries with no
// coordination beyond the store itself.
//
// A denied call leaves the counter at the limit rather than inflating it, so
// a burst of rejected traffic cannot extend the exhaustion into later
// probes. Counters carry a TTL of twice the window and are reclaimed by the
// store; a fresh window always starts from zero.
package ratelimit
