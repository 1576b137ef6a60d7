// Package rpc exposes the tool catalog over JSON-RPC 2.0.
//
// # Overview
//
// The server terminates HTTP POST requests on /rpc and dispatches two
// methods:
//
//   - tools/list: returns every registered tool with its derived input schema
//   - tools/call: invokes one tool after session, authorization, and rate
//     limit checks
//
// Batch requests and notifications are not part of the protocol: every
// request carries an id and receives exactly one response.
//
// # Call pipeline
//
// tools/call runs a fixed pipeline, each stage failing closed:
//
//  1. Envelope and params validation (-32700, -32600, -32602)
//  2. Session token resolution from the Authorization header or params;
//     conflicting tokens are rejected rather than silently preferring one
//  3. Session validation against the shared store, which also refreshes the
//     session's idle TTL
//  4. Tool authorization against the session's allowed-tools set
//  5. Rate limiting per (group, tool) pair; denials are HTTP 200 with a
//     -32000 error carrying data.kind = "rate_limit"
//  6. Schema-checked invocation through the registry
//
// Session and authorization failures share one error message so callers
// cannot distinguish unknown, expired, revoked, and unauthorized tokens.
//
// # Error mapping
//
// Registry errors map onto the wire taxonomy: unknown tools and argument
// problems are -32602 with detail, timeouts and handler failures are -32000
// with the detail logged server-side and withheld from the caller.
package rpc
