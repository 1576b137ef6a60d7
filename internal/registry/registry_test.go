// ABOUTME: Tests for tool registration, schema derivation, and invocation.
// ABOUTME: Covers duplicate rejection, required/default rules, and type checking.

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func echoTool(name string, params ...Param) *Tool {
	return &Tool{
		Descriptor: Descriptor{
			Name:        name,
			Description: "echoes its arguments",
			Category:    "test",
			Params:      params,
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return args, nil
		},
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry(slog.Default())

	if err := r.Register(echoTool("dup")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := r.Register(echoTool("dup"))
	if !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("second Register error = %v, want ErrDuplicateTool", err)
	}

	// Catalog is unchanged by the failed registration
	if got := len(r.All()); got != 1 {
		t.Errorf("catalog size = %d, want 1", got)
	}
}

func TestRegister_Invalid(t *testing.T) {
	r := NewRegistry(slog.Default())

	tests := []struct {
		name string
		tool *Tool
	}{
		{"empty name", echoTool("")},
		{"nil handler", &Tool{Descriptor: Descriptor{Name: "x"}}},
		{"unknown kind", echoTool("x", Param{Name: "p", Type: Kind("float")})},
		{"unnamed param", echoTool("x", Param{Type: KindString})},
		{"duplicate param", echoTool("x",
			Param{Name: "p", Type: KindString},
			Param{Name: "p", Type: KindString},
		)},
		{"mistyped default", echoTool("x", Param{Name: "p", Type: KindBoolean, Default: "yes"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.tool); err == nil {
				t.Error("Register should have failed")
			}
		})
	}

	if got := len(r.All()); got != 0 {
		t.Errorf("catalog size = %d, want 0 after failed registrations", got)
	}
}

func TestInputSchema_RequiredAndDefaults(t *testing.T) {
	r := NewRegistry(slog.Default())

	tool := echoTool("profile",
		Param{Name: "user_id", Type: KindString, Description: "customer id"},
		Param{Name: "include_history", Type: KindBoolean, Default: false},
		Param{Name: "limit", Type: KindInteger, Default: 10},
	)
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	schema, err := r.InputSchema("profile")
	if err != nil {
		t.Fatalf("InputSchema failed: %v", err)
	}

	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema properties missing: %v", schema)
	}

	// Required iff no default
	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "user_id" {
		t.Errorf("required = %v, want [user_id]", required)
	}

	// Boolean parameters are boolean-typed, never integer-typed
	boolProp := props["include_history"].(map[string]any)
	if boolProp["type"] != "boolean" {
		t.Errorf("include_history type = %v, want boolean", boolProp["type"])
	}
	if boolProp["default"] != false {
		t.Errorf("include_history default = %v, want false", boolProp["default"])
	}

	intProp := props["limit"].(map[string]any)
	if intProp["type"] != "integer" {
		t.Errorf("limit type = %v, want integer", intProp["type"])
	}

	strProp := props["user_id"].(map[string]any)
	if strProp["type"] != "string" {
		t.Errorf("user_id type = %v, want string", strProp["type"])
	}
	if _, hasDefault := strProp["default"]; hasDefault {
		t.Error("required parameter should not carry a default")
	}
}

func TestInputSchema_UnknownTool(t *testing.T) {
	r := NewRegistry(slog.Default())
	if _, err := r.InputSchema("nope"); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("InputSchema error = %v, want ErrToolNotFound", err)
	}
}

func TestInvoke_Validation(t *testing.T) {
	r := NewRegistry(slog.Default())

	tool := echoTool("strict",
		Param{Name: "name", Type: KindString},
		Param{Name: "count", Type: KindInteger, Default: 1},
		Param{Name: "active", Type: KindBoolean, Default: true},
		Param{Name: "tags", Type: KindArray, Default: []any{}},
		Param{Name: "meta", Type: KindObject, Default: map[string]any{}},
	)
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := context.Background()

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"all defaults", map[string]any{"name": "a"}, false},
		{"explicit values", map[string]any{
			"name": "a", "count": float64(3), "active": false,
			"tags": []any{"x"}, "meta": map[string]any{"k": "v"},
		}, false},
		{"missing required", map[string]any{"count": float64(1)}, true},
		{"unknown argument", map[string]any{"name": "a", "extra": 1}, true},
		{"wrong type string", map[string]any{"name": 42}, true},
		{"integer-encoded boolean", map[string]any{"name": "a", "active": float64(1)}, true},
		{"fractional integer", map[string]any{"name": "a", "count": 1.5}, true},
		{"native int accepted", map[string]any{"name": "a", "count": 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Invoke(ctx, "strict", tt.args)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArguments) {
					t.Errorf("Invoke error = %v, want ErrInvalidArguments", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Invoke failed: %v", err)
			}
		})
	}
}

func TestInvoke_DefaultsApplied(t *testing.T) {
	r := NewRegistry(slog.Default())

	if err := r.Register(echoTool("d",
		Param{Name: "q", Type: KindString},
		Param{Name: "limit", Type: KindInteger, Default: 10},
	)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result, err := r.Invoke(context.Background(), "d", map[string]any{"q": "hi"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	args := result.(map[string]any)
	if args["limit"] != 10 {
		t.Errorf("limit = %v, want default 10", args["limit"])
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	r := NewRegistry(slog.Default())
	_, err := r.Invoke(context.Background(), "ghost", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Invoke error = %v, want ErrToolNotFound", err)
	}
}

func TestInvoke_HandlerError(t *testing.T) {
	r := NewRegistry(slog.Default())

	boom := &Tool{
		Descriptor: Descriptor{Name: "boom"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, fmt.Errorf("internal database exploded")
		},
	}
	if err := r.Register(boom); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := r.Invoke(context.Background(), "boom", nil)
	if !errors.Is(err, ErrToolExecution) {
		t.Errorf("Invoke error = %v, want ErrToolExecution", err)
	}
}

func TestInvoke_Timeout(t *testing.T) {
	r := NewRegistry(slog.Default())

	slow := &Tool{
		Descriptor: Descriptor{Name: "slow", Timeout: 20 * time.Millisecond},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			select {
			case <-time.After(time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	if err := r.Register(slow); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := r.Invoke(context.Background(), "slow", nil)
	if !errors.Is(err, ErrToolTimeout) {
		t.Errorf("Invoke error = %v, want ErrToolTimeout", err)
	}
}

func TestAll_Sorted(t *testing.T) {
	r := NewRegistry(slog.Default())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(echoTool(name)); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	all := r.All()
	want := []string{"alpha", "mid", "zeta"}
	for i, d := range all {
		if d.Name != want[i] {
			t.Errorf("All()[%d] = %s, want %s", i, d.Name, want[i])
		}
	}
}
