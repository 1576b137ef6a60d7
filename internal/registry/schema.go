// ABOUTME: Derives JSON Schema input contracts from tool descriptors.
// ABOUTME: Validates call arguments against the derived schema before invocation.

package registry

import (
	"fmt"
	"math"
)

// InputSchema returns the derived JSON Schema for one tool. The schema is a
// pure function of the declared parameters: each parameter becomes a
// property, parameters without defaults are required, and defaults are
// embedded for optional ones.
func (r *Registry) InputSchema(name string) (map[string]any, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool.Descriptor.InputSchema(), nil
}

// InputSchema derives the JSON Schema object for the descriptor.
func (d Descriptor) InputSchema() map[string]any {
	properties := make(map[string]any, len(d.Params))
	var required []string

	for _, p := range d.Params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Required() {
			required = append(required, p.Name)
		} else {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// resolveArgs validates the caller's argument bag against the declared
// parameters and returns a new map with defaults filled in. Either every
// required argument is present and correctly typed, or an ErrInvalidArguments
// error naming the offending field is returned and nothing is applied.
func (d Descriptor) resolveArgs(args map[string]any) (map[string]any, error) {
	declared := make(map[string]Param, len(d.Params))
	for _, p := range d.Params {
		declared[p.Name] = p
	}

	for name := range args {
		if _, ok := declared[name]; !ok {
			return nil, fmt.Errorf("%w: unknown argument %q", ErrInvalidArguments, name)
		}
	}

	resolved := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		value, present := args[p.Name]
		if !present || value == nil {
			if p.Required() {
				return nil, fmt.Errorf("%w: missing required argument %q", ErrInvalidArguments, p.Name)
			}
			resolved[p.Name] = p.Default
			continue
		}
		if err := checkKind(p.Type, value); err != nil {
			return nil, fmt.Errorf("%w: argument %q: %v", ErrInvalidArguments, p.Name, err)
		}
		resolved[p.Name] = value
	}
	return resolved, nil
}

// checkKind verifies a value matches the declared parameter kind. Values
// decoded from JSON arrive as bool, float64, string, []any, or map[string]any;
// native Go ints are also accepted for numeric kinds so in-process callers
// don't have to round-trip through JSON.
func checkKind(kind Kind, value any) error {
	switch kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case KindBoolean:
		// Strictly bool: integer-encoded booleans are rejected
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case KindNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case KindInteger:
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			if v != math.Trunc(v) {
				return fmt.Errorf("expected integer, got %v", v)
			}
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case KindObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case KindArray:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
	return nil
}
