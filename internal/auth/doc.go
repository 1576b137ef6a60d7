// Package auth authenticates the internal administration plane.
//
// # Two credential planes
//
// toolgate has two unrelated credentials, and this package covers only the
// first:
//
//   - Admin JWTs (here): HS256 tokens signed with auth.jwt_secret. They
//     authenticate trusted internal callers against the /admin endpoints
//     that issue and revoke tool sessions. Carried as
//     "Authorization: Bearer <jwt>".
//
//   - Tool-session tokens (internal/session): opaque random bearer secrets
//     bound to a group and an allowed-tool set, presented by external
//     callers on tools/call. They are not JWTs and are never verified here.
//
// # Token management
//
//	verifier := auth.NewJWTVerifier(secret)
//	token, err := verifier.Generate("ops@clinic", 30*24*time.Hour)
//	subject, err := verifier.Verify(token)
//
// Verification failures distinguish expiry (ErrExpiredToken) from everything
// else (ErrInvalidToken) for logging; HTTP responses collapse both to 401.
package auth
