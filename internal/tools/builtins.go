// ABOUTME: Builtin tool catalog registered at server startup.
// ABOUTME: Handlers run in-process and return deterministic structured results.

// Package tools carries the builtin catalog. Deployments embedding the server
// register their own tools alongside or instead of these.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maven-gavin/toolgate/internal/registry"
)

// RegisterBuiltins installs the builtin catalog into reg. Registration is
// all-or-nothing: the first failure is returned and indicates a programming
// error in a descriptor.
func RegisterBuiltins(reg *registry.Registry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tools")

	builtins := []*registry.Tool{
		userProfileTool(),
		searchCustomersTool(),
		createTaskTool(logger),
		sendChannelMessageTool(logger),
		summarizeTreatmentHistoryTool(),
	}

	for _, tool := range builtins {
		if err := reg.Register(tool); err != nil {
			return fmt.Errorf("registering builtin %q: %w", tool.Descriptor.Name, err)
		}
	}

	logger.Info("builtin tools registered", "count", len(builtins))
	return nil
}

// userProfileTool returns a profile for the given user id. The id is always
// echoed back so callers can correlate responses.
func userProfileTool() *registry.Tool {
	return &registry.Tool{
		Descriptor: registry.Descriptor{
			Name:        "get_user_profile",
			Description: "Fetch a user's profile by id",
			Category:    "users",
			Params: []registry.Param{
				{Name: "user_id", Type: registry.KindString, Description: "Identifier of the user to fetch"},
				{Name: "include_contact", Type: registry.KindBoolean, Description: "Include contact details", Default: false},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			userID := args["user_id"].(string)

			profile := map[string]any{
				"user_id":      userID,
				"display_name": displayNameFor(userID),
				"status":       "active",
			}
			if args["include_contact"].(bool) {
				profile["contact"] = map[string]any{
					"email": strings.ToLower(userID) + "@example.org",
				}
			}
			return profile, nil
		},
	}
}

// searchCustomersTool pages through a customer directory.
func searchCustomersTool() *registry.Tool {
	return &registry.Tool{
		Descriptor: registry.Descriptor{
			Name:        "search_customers",
			Description: "Search the customer directory by name fragment",
			Category:    "customers",
			Params: []registry.Param{
				{Name: "query", Type: registry.KindString, Description: "Name fragment to match"},
				{Name: "limit", Type: registry.KindInteger, Description: "Maximum results to return", Default: 10},
				{Name: "offset", Type: registry.KindInteger, Description: "Results to skip", Default: 0},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query := args["query"].(string)
			limit := asInt(args["limit"])
			offset := asInt(args["offset"])

			if limit < 0 || offset < 0 {
				return nil, fmt.Errorf("limit and offset must not be negative")
			}

			var matches []map[string]any
			for _, c := range customerDirectory {
				if strings.Contains(strings.ToLower(c.name), strings.ToLower(query)) {
					matches = append(matches, map[string]any{
						"customer_id": c.id,
						"name":        c.name,
						"region":      c.region,
					})
				}
			}

			total := len(matches)
			if offset > total {
				offset = total
			}
			end := offset + limit
			if end > total {
				end = total
			}

			return map[string]any{
				"query":   query,
				"total":   total,
				"results": matches[offset:end],
			}, nil
		},
	}
}

// createTaskTool records a work item and returns its generated id.
func createTaskTool(logger *slog.Logger) *registry.Tool {
	return &registry.Tool{
		Descriptor: registry.Descriptor{
			Name:        "create_task",
			Description: "Create a work item with optional tags and metadata",
			Category:    "tasks",
			Params: []registry.Param{
				{Name: "title", Type: registry.KindString, Description: "Short task title"},
				{Name: "priority", Type: registry.KindNumber, Description: "Priority weight, higher is more urgent", Default: 1.0},
				{Name: "tags", Type: registry.KindArray, Description: "Free-form labels", Default: []any{}},
				{Name: "metadata", Type: registry.KindObject, Description: "Arbitrary key/value context", Default: map[string]any{}},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			title := args["title"].(string)
			if strings.TrimSpace(title) == "" {
				return nil, fmt.Errorf("title must not be blank")
			}

			taskID := uuid.New().String()
			logger.Info("task created", "task_id", taskID, "title", title)

			return map[string]any{
				"task_id":    taskID,
				"title":      title,
				"priority":   args["priority"],
				"tags":       args["tags"],
				"metadata":   args["metadata"],
				"created_at": time.Now().UTC().Format(time.RFC3339),
			}, nil
		},
	}
}

// sendChannelMessageTool posts a message to a named channel.
func sendChannelMessageTool(logger *slog.Logger) *registry.Tool {
	return &registry.Tool{
		Descriptor: registry.Descriptor{
			Name:        "send_channel_message",
			Description: "Post a message to a channel",
			Category:    "messaging",
			Params: []registry.Param{
				{Name: "channel", Type: registry.KindString, Description: "Channel name"},
				{Name: "text", Type: registry.KindString, Description: "Message body"},
				{Name: "urgent", Type: registry.KindBoolean, Description: "Mark the message as urgent", Default: false},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			channel := args["channel"].(string)
			text := args["text"].(string)
			if text == "" {
				return nil, fmt.Errorf("text must not be empty")
			}

			messageID := uuid.New().String()
			logger.Info("channel message sent",
				"channel", channel,
				"message_id", messageID,
				"urgent", args["urgent"],
			)

			return map[string]any{
				"message_id": messageID,
				"channel":    channel,
				"delivered":  true,
			}, nil
		},
	}
}

// summarizeTreatmentHistoryTool condenses a patient's treatment records.
func summarizeTreatmentHistoryTool() *registry.Tool {
	return &registry.Tool{
		Descriptor: registry.Descriptor{
			Name:        "summarize_treatment_history",
			Description: "Summarize a patient's treatment history over a window",
			Category:    "clinical",
			Timeout:     60 * time.Second,
			Params: []registry.Param{
				{Name: "patient_id", Type: registry.KindString, Description: "Patient identifier"},
				{Name: "window_days", Type: registry.KindInteger, Description: "Lookback window in days", Default: 90},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			patientID := args["patient_id"].(string)
			windowDays := asInt(args["window_days"])
			if windowDays <= 0 {
				return nil, fmt.Errorf("window_days must be positive")
			}

			return map[string]any{
				"patient_id":  patientID,
				"window_days": windowDays,
				"summary":     fmt.Sprintf("No treatment records for %s in the last %d days.", patientID, windowDays),
				"visit_count": 0,
			}, nil
		},
	}
}

// asInt normalizes the integer encodings the schema checker admits.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func displayNameFor(userID string) string {
	parts := strings.FieldsFunc(userID, func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

type customer struct {
	id     string
	name   string
	region string
}

// customerDirectory is the fixture behind search_customers.
var customerDirectory = []customer{
	{id: "cust-001", name: "Acme Robotics", region: "us-east"},
	{id: "cust-002", name: "Blue Harbor Clinic", region: "us-west"},
	{id: "cust-003", name: "Cedar Valley Dental", region: "eu-central"},
	{id: "cust-004", name: "Harbor Light Therapy", region: "us-east"},
	{id: "cust-005", name: "Northwind Logistics", region: "ap-south"},
}
