// ABOUTME: JSON-RPC 2.0 HTTP server exposing the tool catalog to external callers.
// ABOUTME: Orchestrates session validation, rate limiting, and schema-checked invocation.

package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/maven-gavin/toolgate/internal/ratelimit"
	"github.com/maven-gavin/toolgate/internal/registry"
	"github.com/maven-gavin/toolgate/internal/session"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// JSON-RPC 2.0 types

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

// sessionErrorMessage is the single message for every session and
// authorization failure. Collapsing malformed, expired, revoked, and
// unauthorized into one string avoids an oracle for token guessing.
const sessionErrorMessage = "invalid or unauthorized session"

// ToolInfo describes one catalog entry in a tools/list result.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ListToolsResult is the result for tools/list.
type ListToolsResult struct {
	Tools []ToolInfo `json:"tools"`
}

// CallToolParams are the params for tools/call.
type CallToolParams struct {
	Name         string         `json:"name"`
	Arguments    map[string]any `json:"arguments"`
	SessionToken string         `json:"sessionToken,omitempty"`
}

// CallToolResult is the result for tools/call.
type CallToolResult struct {
	Name   string `json:"name"`
	Result any    `json:"result"`
}

// Config holds configuration for the RPC server.
type Config struct {
	Registry *registry.Registry
	Sessions *session.Manager
	Limiter  *ratelimit.Limiter
	Logger   *slog.Logger

	// RequireSessionForList gates tools/list behind the same session check
	// as tools/call. When false the catalog is public.
	RequireSessionForList bool
}

// Server terminates the JSON-RPC transport and orchestrates the registry,
// session manager, and rate limiter. Handlers share no mutable state beyond
// those components, so concurrent calls need no additional locking.
type Server struct {
	registry        *registry.Registry
	sessions        *session.Manager
	limiter         *ratelimit.Limiter
	logger          *slog.Logger
	sessionizedList bool
}

// NewServer creates a new RPC server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		registry:        cfg.Registry,
		sessions:        cfg.Sessions,
		limiter:         cfg.Limiter,
		logger:          logger.With("component", "rpc"),
		sessionizedList: cfg.RequireSessionForList,
	}, nil
}

// RegisterRoutes registers the RPC and health endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/healthz", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleRPC is the single JSON-RPC endpoint. Only POST carries calls.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendError(w, nil, CodeParseError, "failed to read request body", nil)
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendError(w, nil, CodeInvalidRequest, "request body too large", nil)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, nil, CodeParseError, "invalid JSON", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.sendError(w, req.ID, CodeInvalidRequest, "invalid JSON-RPC version", nil)
		return
	}

	// This protocol defines no fire-and-forget calls: every request must
	// carry an id and receives exactly one response.
	if len(req.ID) == 0 || string(req.ID) == "null" {
		s.sendError(w, nil, CodeInvalidRequest, "request id is required", nil)
		return
	}

	switch req.Method {
	case "tools/list":
		s.handleToolsList(w, r, req)
	case "tools/call":
		s.handleToolsCall(w, r, req)
	case "":
		s.sendError(w, req.ID, CodeInvalidRequest, "method is required", nil)
	default:
		s.sendError(w, req.ID, CodeMethodNotFound, "method not found", nil)
	}
}

// handleToolsList returns the full catalog with derived input schemas.
// The catalog is public unless the deployment gates discovery behind
// sessions (auth.require_session_for_list).
func (s *Server) handleToolsList(w http.ResponseWriter, r *http.Request, req Request) {
	if s.sessionizedList {
		token, err := s.resolveToken(r, "")
		if err != nil {
			s.sendError(w, req.ID, CodeInvalidRequest, err.Error(), nil)
			return
		}
		sess, err := s.sessions.Validate(r.Context(), token)
		if err != nil {
			s.logger.Error("session lookup failed", "error", err)
			s.sendError(w, req.ID, CodeServerError, "internal error", nil)
			return
		}
		if sess == nil {
			s.sendError(w, req.ID, CodeServerError, sessionErrorMessage, nil)
			return
		}
	}

	descriptors := s.registry.All()
	result := ListToolsResult{Tools: make([]ToolInfo, len(descriptors))}
	for i, d := range descriptors {
		result.Tools[i] = ToolInfo{
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			InputSchema: d.InputSchema(),
		}
	}

	s.logger.Debug("tools/list", "count", len(result.Tools))
	s.sendResult(w, req.ID, result)
}

// handleToolsCall runs the call pipeline: params -> session -> authorization
// -> rate limit -> schema-checked invocation. The rate counter is touched
// only after the session has been validated and the tool authorized.
func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, req Request) {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendError(w, req.ID, CodeInvalidParams, "invalid params", nil)
			return
		}
	}
	if params.Name == "" {
		s.sendError(w, req.ID, CodeInvalidParams, "tool name is required", nil)
		return
	}

	token, err := s.resolveToken(r, params.SessionToken)
	if err != nil {
		s.sendError(w, req.ID, CodeInvalidRequest, err.Error(), nil)
		return
	}

	// Anonymous calls are not served: a missing token fails exactly like an
	// invalid one.
	sess, err := s.sessions.Validate(r.Context(), token)
	if err != nil {
		s.logger.Error("session lookup failed", "error", err)
		s.sendError(w, req.ID, CodeServerError, "internal error", nil)
		return
	}
	if sess == nil || !sess.Allows(params.Name) {
		s.sendError(w, req.ID, CodeServerError, sessionErrorMessage, nil)
		return
	}

	// Unknown tools are rejected before the rate counter is touched
	if s.registry.Get(params.Name) == nil {
		s.sendError(w, req.ID, CodeInvalidParams, "tool not found", nil)
		return
	}

	if err := s.limiter.Allow(r.Context(), sess.GroupID, params.Name); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimitExceeded) {
			s.sendError(w, req.ID, CodeServerError, "rate limit exceeded",
				map[string]any{"kind": "rate_limit"})
			return
		}
		s.logger.Error("rate limit check failed", "error", err)
		s.sendError(w, req.ID, CodeServerError, "internal error", nil)
		return
	}

	requestID := uuid.New().String()
	s.logger.Debug("tools/call",
		"tool_name", params.Name,
		"group_id", sess.GroupID,
		"request_id", requestID,
	)

	result, err := s.registry.Invoke(r.Context(), params.Name, params.Arguments)
	if err != nil {
		s.handleToolError(w, req.ID, params.Name, requestID, err)
		return
	}

	s.logger.Debug("tools/call complete",
		"tool_name", params.Name,
		"request_id", requestID,
	)
	s.sendResult(w, req.ID, CallToolResult{Name: params.Name, Result: result})
}

// resolveToken extracts the session token from the Authorization header and
// the request params. If both are present they must agree; a mismatch is
// rejected as ambiguous rather than silently preferring one source.
func (s *Server) resolveToken(r *http.Request, paramToken string) (string, error) {
	var headerToken string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", errors.New("invalid authorization header format")
		}
		headerToken = strings.TrimPrefix(authHeader, "Bearer ")
	}

	switch {
	case headerToken != "" && paramToken != "" && headerToken != paramToken:
		return "", errors.New("ambiguous session token: header and params disagree")
	case headerToken != "":
		return headerToken, nil
	default:
		return paramToken, nil
	}
}

// handleToolError maps registry failures onto the wire taxonomy. Caller
// errors carry the offending detail; tool-side failures are logged in full
// and surfaced sanitized.
func (s *Server) handleToolError(w http.ResponseWriter, id json.RawMessage, toolName, requestID string, err error) {
	switch {
	case errors.Is(err, registry.ErrToolNotFound):
		s.sendError(w, id, CodeInvalidParams, "tool not found", nil)
	case errors.Is(err, registry.ErrInvalidArguments):
		s.sendError(w, id, CodeInvalidParams, err.Error(), nil)
	case errors.Is(err, registry.ErrToolTimeout):
		s.logger.Warn("tool execution timed out",
			"tool_name", toolName,
			"request_id", requestID,
		)
		s.sendError(w, id, CodeServerError, "tool execution timed out",
			map[string]any{"kind": "timeout"})
	default:
		s.logger.Warn("tool execution failed",
			"tool_name", toolName,
			"request_id", requestID,
			"error", err,
		)
		s.sendError(w, id, CodeServerError, "tool execution failed", nil)
	}
}

// sendResult sends a successful JSON-RPC response.
func (s *Server) sendResult(w http.ResponseWriter, id json.RawMessage, result any) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}

// sendError sends a JSON-RPC error response. A nil id encodes as null.
func (s *Server) sendError(w http.ResponseWriter, id json.RawMessage, code int, message string, data any) {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC error response", "error", err)
	}
}
