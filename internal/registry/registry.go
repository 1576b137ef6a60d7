// ABOUTME: Thread-safe registry owning the catalog of invocable tools.
// ABOUTME: Registers descriptors, rejects collisions, and performs schema-checked invocation.

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateTool indicates a tool name is already registered.
var ErrDuplicateTool = errors.New("tool already registered")

// ErrToolNotFound indicates the requested tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrInvalidArguments indicates the argument bag failed schema validation.
var ErrInvalidArguments = errors.New("invalid arguments")

// ErrToolTimeout indicates the tool did not return within its deadline.
var ErrToolTimeout = errors.New("tool execution timed out")

// ErrToolExecution wraps failures raised by a tool's own handler.
var ErrToolExecution = errors.New("tool execution failed")

// DefaultTimeout bounds tool execution when a descriptor sets no override.
const DefaultTimeout = 30 * time.Second

// Kind is the schema type of a tool parameter.
type Kind string

// Parameter kinds. These map one-to-one onto JSON Schema primitive types.
const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

var validKinds = map[Kind]bool{
	KindString:  true,
	KindNumber:  true,
	KindInteger: true,
	KindBoolean: true,
	KindObject:  true,
	KindArray:   true,
}

// Param describes one declared tool parameter. A parameter with a nil
// Default is required; a non-nil Default makes it optional and the default
// is embedded in the derived schema.
type Param struct {
	Name        string
	Type        Kind
	Description string
	Default     any
}

// Required reports whether the parameter must be supplied by the caller.
func (p Param) Required() bool {
	return p.Default == nil
}

// Handler is the invocation contract a tool implementation satisfies.
// Arguments arrive validated against the descriptor and with defaults
// applied; the result may be any JSON-serializable shape.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor is the static, immutable description of one tool. It is the
// source the input schema is derived from; no runtime introspection happens.
type Descriptor struct {
	Name        string
	Description string
	Category    string
	Params      []Param
	Timeout     time.Duration // 0 means the registry default
}

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor Descriptor
	Handler    Handler
}

// Registry owns the tool catalog. It is populated at startup and treated as
// read-only afterwards; lookups on the call path take only a read lock.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	logger  *slog.Logger
	timeout time.Duration
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:   make(map[string]*Tool),
		logger:  logger,
		timeout: DefaultTimeout,
	}
}

// SetDefaultTimeout replaces the timeout applied to tools that declare none.
// Call before serving traffic; it is not synchronized with in-flight invokes.
func (r *Registry) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Register validates and stores a tool. Registration is atomic: on any
// error the catalog is unchanged. Re-registering an existing name is a
// programmer error and is rejected.
func (r *Registry) Register(tool *Tool) error {
	if tool == nil || tool.Descriptor.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %q has no handler", tool.Descriptor.Name)
	}

	seen := make(map[string]bool, len(tool.Descriptor.Params))
	for _, p := range tool.Descriptor.Params {
		if p.Name == "" {
			return fmt.Errorf("tool %q: parameter name is required", tool.Descriptor.Name)
		}
		if !validKinds[p.Type] {
			return fmt.Errorf("tool %q: parameter %q has unknown kind %q", tool.Descriptor.Name, p.Name, p.Type)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool %q: duplicate parameter %q", tool.Descriptor.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Default != nil {
			if err := checkKind(p.Type, p.Default); err != nil {
				return fmt.Errorf("tool %q: default for %q: %w", tool.Descriptor.Name, p.Name, err)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Descriptor.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Descriptor.Name)
	}
	r.tools[tool.Descriptor.Name] = tool

	r.logger.Info("tool registered",
		"tool_name", tool.Descriptor.Name,
		"category", tool.Descriptor.Category,
		"param_count", len(tool.Descriptor.Params),
	)
	return nil
}

// Get returns the tool for name, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// All returns a name-sorted snapshot of every registered descriptor.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke validates args against the tool's declared parameters and calls the
// handler under a bounded deadline. Validation happens entirely before the
// handler runs; a rejected call has no side effects.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	resolved, err := tool.Descriptor.resolveArgs(args)
	if err != nil {
		return nil, err
	}

	timeout := tool.Descriptor.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		result, err := tool.Handler(ctx, resolved)
		ch <- outcome{result, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolExecution, out.err)
		}
		return out.result, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrToolTimeout, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrToolExecution, ctx.Err())
	}
}
