// ABOUTME: SQLite implementation of the shared store using modernc.org/sqlite
// ABOUTME: Provides KV entries and atomic windowed counters with TTL expiry

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sweepInterval is how often expired rows are purged in the background.
const sweepInterval = time.Minute

// SQLiteStore implements Store using SQLite. Multiple server instances
// pointing at the same database file observe the same sessions and counters.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	done   chan struct{}
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Pragmas go in the DSN so they apply to every pooled connection, not
	// just whichever one a db.Exec happens to land on. WAL for concurrent
	// readers, busy_timeout so writers queue on the write lock instead of
	// failing with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	go s.sweep()

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the store tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv_entries(expires_at);

		CREATE TABLE IF NOT EXISTS counters (
			key        TEXT PRIMARY KEY,
			count      INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_counter_expires ON counters(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value for key, or ErrNotFound if absent or expired.
// Expired rows are removed lazily on read.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM kv_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting key: %w", err)
	}

	if expiresAt <= time.Now().UnixMilli() {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key)
		return nil, ErrNotFound
	}
	return value, nil
}

// SetWithTTL stores value under key with an expiry of now+ttl.
func (s *SQLiteStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("setting key: %w", err)
	}
	return nil
}

// Delete removes key. Absent keys are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	return nil
}

// IncrBelow atomically increments the counter for key while it is below limit.
// The whole decision runs as one UPSERT: a single statement is its own
// transaction, so concurrent callers on the same key serialize on SQLite's
// write lock instead of racing a read-modify-write across pool connections.
func (s *SQLiteStore) IncrBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	if limit <= 0 {
		// Nothing is admitted and no counter is created
		return 0, false, nil
	}

	now := time.Now().UnixMilli()

	// Fresh key inserts at 1; an expired row resets to 1 with a new expiry;
	// a live row below the limit increments. A live row at the limit fails
	// the WHERE clause, returns no row, and is reported as denied below.
	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (key, count, expires_at) VALUES (?1, 1, ?2)
		ON CONFLICT(key) DO UPDATE SET
			count      = CASE WHEN counters.expires_at <= ?3 THEN 1 ELSE counters.count + 1 END,
			expires_at = CASE WHEN counters.expires_at <= ?3 THEN excluded.expires_at ELSE counters.expires_at END
		WHERE counters.expires_at <= ?3 OR counters.count < ?4
		RETURNING count`,
		key, time.Now().Add(ttl).UnixMilli(), now, limit,
	).Scan(&count)
	if err == nil {
		return count, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("incrementing counter: %w", err)
	}

	// Denied: read back the bounded count for reporting.
	err = s.db.QueryRowContext(ctx,
		"SELECT count FROM counters WHERE key = ?", key,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading counter: %w", err)
	}
	return count, false, nil
}

// sweep periodically purges expired rows so the file doesn't grow unbounded.
func (s *SQLiteStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().UnixMilli()
			if _, err := s.db.Exec("DELETE FROM kv_entries WHERE expires_at <= ?", now); err != nil {
				s.logger.Warn("sweeping expired entries", "error", err)
			}
			if _, err := s.db.Exec("DELETE FROM counters WHERE expires_at <= ?", now); err != nil {
				s.logger.Warn("sweeping expired counters", "error", err)
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the background sweep and closes the database.
func (s *SQLiteStore) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.db.Close()
}
