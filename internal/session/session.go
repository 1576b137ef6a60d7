// ABOUTME: Session manager issuing, validating, and revoking tool-session tokens.
// ABOUTME: All state lives in the shared store so every server instance sees one session universe.

package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maven-gavin/toolgate/internal/store"
)

// DefaultTTL is the idle lifetime of a session when the manager is
// configured without one.
const DefaultTTL = 30 * time.Minute

// tokenBytes is the entropy of a session token. 32 bytes is double the
// 128-bit floor for an unguessable bearer secret.
const tokenBytes = 32

// keyPrefix namespaces session records in the shared store.
const keyPrefix = "session:"

// Identity names the caller a session is issued to.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the stored record behind one token. The token itself is never
// stored; records are keyed by its digest.
type Session struct {
	GroupID        string    `json:"group_id"`
	GroupName      string    `json:"group_name"`
	ClientName     string    `json:"client_name"`
	AllowedTools   []string  `json:"allowed_tools,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Allows reports whether the session may call the named tool. An empty
// AllowedTools set means the session is unrestricted.
func (s *Session) Allows(tool string) bool {
	if len(s.AllowedTools) == 0 {
		return true
	}
	for _, t := range s.AllowedTools {
		if t == tool {
			return true
		}
	}
	return false
}

// Manager issues, validates, and revokes session tokens. It holds no
// process-local session state; everything goes through the shared store.
type Manager struct {
	kv     store.KV
	ttl    time.Duration
	logger *slog.Logger
}

// NewManager creates a Manager over the given store. ttl is the idle
// timeout applied to every session; zero means DefaultTTL.
func NewManager(kv store.KV, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{kv: kv, ttl: ttl, logger: logger.With("component", "session")}
}

// TTL returns the configured idle timeout.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue generates a fresh unguessable token, stores the session record with
// the configured TTL, and returns the token. Tokens are never reused.
func (m *Manager) Issue(ctx context.Context, identity Identity, clientName string, allowedTools []string) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	record := Session{
		GroupID:        identity.ID,
		GroupName:      identity.Name,
		ClientName:     clientName,
		AllowedTools:   append([]string(nil), allowedTools...),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	if err := m.kv.SetWithTTL(ctx, sessionKey(token), data, m.ttl); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	m.logger.Info("session issued",
		"group_id", identity.ID,
		"client_name", clientName,
		"allowed_tools", len(record.AllowedTools),
	)
	return token, nil
}

// Validate looks up the session for token. It returns nil with no error if
// the token is unknown or past its idle TTL. On success the session's
// last-activity time is refreshed in the store, so the TTL behaves as an
// idle timeout rather than an absolute lifetime.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	data, err := m.kv.Get(ctx, sessionKey(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var record Session
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	record.LastActivityAt = time.Now().UTC()
	if refreshed, err := json.Marshal(record); err == nil {
		if err := m.kv.SetWithTTL(ctx, sessionKey(token), refreshed, m.ttl); err != nil {
			m.logger.Warn("refreshing session activity", "error", err)
		}
	}

	return &record, nil
}

// Revoke deletes the session for token. Revoking an unknown or already
// revoked token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.kv.Delete(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	m.logger.Info("session revoked")
	return nil
}

// sessionKey derives the store key for a token. Records are keyed by the
// token's SHA-256 digest so a leaked store dump does not yield usable
// bearer tokens.
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}
