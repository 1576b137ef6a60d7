// ABOUTME: HTTP handlers for the session-administration plane.
// ABOUTME: Guarded by admin JWTs, distinct from tool-session bearer tokens.

// Package admin exposes the trusted control surface: issuing and revoking
// tool sessions and inspecting the catalog. It shares the HTTP listener with
// the RPC endpoint but authenticates with admin JWTs instead of session
// tokens.
package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maven-gavin/toolgate/internal/auth"
	"github.com/maven-gavin/toolgate/internal/registry"
	"github.com/maven-gavin/toolgate/internal/session"
)

// Server handles admin-plane HTTP requests.
type Server struct {
	sessions *session.Manager
	registry *registry.Registry
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// Config holds configuration for the admin server.
type Config struct {
	Sessions *session.Manager
	Registry *registry.Registry
	Verifier auth.TokenVerifier
	Logger   *slog.Logger
}

// NewServer creates a new admin server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("token verifier is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		sessions: cfg.Sessions,
		registry: cfg.Registry,
		verifier: cfg.Verifier,
		logger:   logger.With("component", "admin"),
	}, nil
}

// RegisterRoutes registers admin endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/sessions", s.requireAuth(s.handleSessions))
	mux.HandleFunc("/admin/tools", s.requireAuth(s.handleTools))
}

// requireAuth wraps a handler with admin JWT verification.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		subject, err := s.verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			s.logger.Warn("admin auth failed", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r, subject)
	}
}

// CreateSessionRequest is the body for POST /admin/sessions.
type CreateSessionRequest struct {
	GroupID      string   `json:"group_id"`
	GroupName    string   `json:"group_name"`
	ClientName   string   `json:"client_name"`
	AllowedTools []string `json:"allowed_tools,omitempty"`
}

// CreateSessionResponse is the body returned on session creation. The token
// appears here once and is never retrievable again.
type CreateSessionResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int64  `json:"expires_in_seconds"`
}

// RevokeSessionRequest is the body for DELETE /admin/sessions.
type RevokeSessionRequest struct {
	SessionToken string `json:"session_token"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request, subject string) {
	switch r.Method {
	case http.MethodPost:
		s.createSession(w, r, subject)
	case http.MethodDelete:
		s.revokeSession(w, r, subject)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, subject string) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GroupID == "" {
		writeError(w, http.StatusBadRequest, "group_id is required")
		return
	}
	if req.ClientName == "" {
		writeError(w, http.StatusBadRequest, "client_name is required")
		return
	}

	// Reject allowed_tools entries that don't exist so typos surface at
	// issuance instead of as opaque call failures later.
	for _, name := range req.AllowedTools {
		if s.registry.Get(name) == nil {
			writeError(w, http.StatusBadRequest, "unknown tool: "+name)
			return
		}
	}

	token, err := s.sessions.Issue(r.Context(),
		session.Identity{ID: req.GroupID, Name: req.GroupName},
		req.ClientName, req.AllowedTools)
	if err != nil {
		s.logger.Error("session issuance failed", "error", err, "group_id", req.GroupID)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.logger.Info("session created",
		"admin_subject", subject,
		"group_id", req.GroupID,
		"client_name", req.ClientName,
	)

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionToken: token,
		ExpiresIn:    int64(s.sessions.TTL() / time.Second),
	})
}

func (s *Server) revokeSession(w http.ResponseWriter, r *http.Request, subject string) {
	var req RevokeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionToken == "" {
		writeError(w, http.StatusBadRequest, "session_token is required")
		return
	}

	if err := s.sessions.Revoke(r.Context(), req.SessionToken); err != nil {
		s.logger.Error("session revocation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to revoke session")
		return
	}

	s.logger.Info("session revoked", "admin_subject", subject)
	w.WriteHeader(http.StatusNoContent)
}

// ToolSummary is one row in the GET /admin/tools listing.
type ToolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	ParamCount  int    `json:"param_count"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request, subject string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	descriptors := s.registry.All()
	summaries := make([]ToolSummary, len(descriptors))
	for i, d := range descriptors {
		summaries[i] = ToolSummary{
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			ParamCount:  len(d.Params),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tools": summaries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
