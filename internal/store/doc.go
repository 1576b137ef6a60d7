// Package store provides the shared external store backing sessions and
// rate-limit counters.
//
// # Architecture
//
// Two narrow interfaces cover everything the rest of the server needs:
//
//   - KV: get / set-with-TTL / delete for session records
//   - Counter: atomic increment-below-limit for rate windows
//
// Only the session manager and the rate limiter touch these interfaces; no
// other component reads or writes the shared store directly.
//
// # Backends
//
// SQLiteStore implements both interfaces over a SQLite database file. The
// database is the deployment's shared state: every server instance pointed
// at the same file (or litestream/rqlite replica) observes the same sessions
// and counters. WAL mode is enabled for concurrent readers, and the
// increment-below-limit operation is a single conditional UPSERT, so
// concurrent increments serialize on the database's write lock and counters
// are never under-counted or over-admitted.
//
// MemoryStore implements the same contracts in process memory with an
// injectable clock, and is used by tests and single-process dev mode.
//
// # Expiry
//
// Every entry and counter carries an absolute expiry. Expired rows are
// treated as absent on read and purged by a background sweep; callers never
// perform their own cleanup.
package store
