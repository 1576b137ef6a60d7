// ABOUTME: Tests for the builtin tool catalog.
// ABOUTME: Invokes every builtin through the registry so schema checks apply.

package tools

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/maven-gavin/toolgate/internal/registry"
)

func newCatalog(t *testing.T) *registry.Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewRegistry(logger)
	if err := RegisterBuiltins(reg, logger); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	return reg
}

func TestRegisterBuiltins_Catalog(t *testing.T) {
	reg := newCatalog(t)

	want := []string{
		"create_task",
		"get_user_profile",
		"search_customers",
		"send_channel_message",
		"summarize_treatment_history",
	}

	all := reg.All()
	if len(all) != len(want) {
		t.Fatalf("All() returned %d tools, want %d", len(all), len(want))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("All()[%d].Name = %q, want %q", i, all[i].Name, name)
		}
	}
}

func TestGetUserProfile_EchoesUserID(t *testing.T) {
	reg := newCatalog(t)

	result, err := reg.Invoke(context.Background(), "get_user_profile", map[string]any{
		"user_id": "dana.reyes",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	profile, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T, want map", result)
	}
	if profile["user_id"] != "dana.reyes" {
		t.Errorf("user_id = %v, want %q", profile["user_id"], "dana.reyes")
	}
	if _, present := profile["contact"]; present {
		t.Error("contact should be omitted unless include_contact is set")
	}
}

func TestGetUserProfile_IncludeContact(t *testing.T) {
	reg := newCatalog(t)

	result, err := reg.Invoke(context.Background(), "get_user_profile", map[string]any{
		"user_id":         "dana.reyes",
		"include_contact": true,
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	profile := result.(map[string]any)
	contact, ok := profile["contact"].(map[string]any)
	if !ok {
		t.Fatal("contact missing from profile")
	}
	if contact["email"] != "dana.reyes@example.org" {
		t.Errorf("email = %v, want %q", contact["email"], "dana.reyes@example.org")
	}
}

func TestSearchCustomers(t *testing.T) {
	reg := newCatalog(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantTotal int
		wantLen   int
	}{
		{
			name:      "match two",
			args:      map[string]any{"query": "harbor"},
			wantTotal: 2,
			wantLen:   2,
		},
		{
			name:      "case insensitive",
			args:      map[string]any{"query": "ACME"},
			wantTotal: 1,
			wantLen:   1,
		},
		{
			name:      "no match",
			args:      map[string]any{"query": "zzz"},
			wantTotal: 0,
			wantLen:   0,
		},
		{
			name:      "limit applies",
			args:      map[string]any{"query": "harbor", "limit": 1},
			wantTotal: 2,
			wantLen:   1,
		},
		{
			name:      "offset past end",
			args:      map[string]any{"query": "harbor", "offset": 10},
			wantTotal: 2,
			wantLen:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.Invoke(context.Background(), "search_customers", tt.args)
			if err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}

			page := result.(map[string]any)
			if page["total"] != tt.wantTotal {
				t.Errorf("total = %v, want %d", page["total"], tt.wantTotal)
			}
			results, _ := page["results"].([]map[string]any)
			if len(results) != tt.wantLen {
				t.Errorf("len(results) = %d, want %d", len(results), tt.wantLen)
			}
		})
	}
}

func TestCreateTask(t *testing.T) {
	reg := newCatalog(t)

	result, err := reg.Invoke(context.Background(), "create_task", map[string]any{
		"title":    "Follow up with cust-002",
		"priority": 2.5,
		"tags":     []any{"billing", "follow-up"},
		"metadata": map[string]any{"customer_id": "cust-002"},
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	task := result.(map[string]any)
	if task["task_id"] == "" {
		t.Error("task_id should be generated")
	}
	if task["title"] != "Follow up with cust-002" {
		t.Errorf("title = %v", task["title"])
	}
	if task["priority"] != 2.5 {
		t.Errorf("priority = %v, want 2.5", task["priority"])
	}
}

func TestCreateTask_BlankTitle(t *testing.T) {
	reg := newCatalog(t)

	_, err := reg.Invoke(context.Background(), "create_task", map[string]any{
		"title": "   ",
	})
	if err == nil {
		t.Error("Invoke() should reject a blank title")
	}
}

func TestSendChannelMessage(t *testing.T) {
	reg := newCatalog(t)

	result, err := reg.Invoke(context.Background(), "send_channel_message", map[string]any{
		"channel": "ops-alerts",
		"text":    "deploy finished",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	msg := result.(map[string]any)
	if msg["channel"] != "ops-alerts" {
		t.Errorf("channel = %v", msg["channel"])
	}
	if msg["delivered"] != true {
		t.Error("delivered should be true")
	}
	if msg["message_id"] == "" {
		t.Error("message_id should be generated")
	}
}

func TestSummarizeTreatmentHistory(t *testing.T) {
	reg := newCatalog(t)

	result, err := reg.Invoke(context.Background(), "summarize_treatment_history", map[string]any{
		"patient_id": "pt-8841",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	summary := result.(map[string]any)
	if summary["patient_id"] != "pt-8841" {
		t.Errorf("patient_id = %v", summary["patient_id"])
	}
	if summary["window_days"] != 90 {
		t.Errorf("window_days = %v, want default 90", summary["window_days"])
	}
}

func TestSummarizeTreatmentHistory_InvalidWindow(t *testing.T) {
	reg := newCatalog(t)

	_, err := reg.Invoke(context.Background(), "summarize_treatment_history", map[string]any{
		"patient_id":  "pt-8841",
		"window_days": -5,
	})
	if err == nil {
		t.Error("Invoke() should reject a non-positive window")
	}
}
