// Package registry owns the catalog of invocable tools.
//
// # Descriptors
//
// Each tool is described by a static Descriptor: name, description,
// category, and the declared parameter list. The JSON Schema input contract
// is derived from the descriptor at registration time, never inferred at
// call time, so the schema is a first-class, testable artifact.
//
// Parameter rules:
//
//   - a parameter with no default is required
//   - a parameter with a default is optional, and the default appears in
//     the schema and is applied before invocation
//   - booleans are boolean-typed in the schema and strictly bool-typed in
//     argument validation
//
// # Lifecycle
//
// The registry is populated once at startup and treated as immutable
// afterwards; registering a name twice is rejected without touching the
// catalog. Construct isolated registries in tests rather than relying on
// any ambient global.
//
// # Invocation
//
// Invoke validates the argument bag before the handler runs: either every
// required argument is present and correctly typed, or the call is rejected
// with ErrInvalidArguments and no side effects. Handlers run under a bounded
// deadline; overruns surface as ErrToolTimeout.
package registry
