// ABOUTME: Admin CLI for toolgate session management.
// ABOUTME: Talks to the session-admin HTTP plane with JWT authentication.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

const banner = `
 _              _             _                      _           _
| |_ ___   ___ | | __ _  __ _| |_ ___        __ _  __| |_ __ ___ (_)_ __
| __/ _ \ / _ \| |/ _' |/ _' | __/ _ \_____ / _' |/ _' | '_ ' _ \| | '_ \
| || (_) | (_) | | (_| | (_| | ||  __/_____| (_| | (_| | | | | | | | | | |
 \__\___/ \___/|_|\__, |\__,_|\__\___|      \__,_|\__,_|_| |_| |_|_|_| |_|
                  |___/
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "session":
		err = cmdSession(cfg, args)
	case "tools":
		err = cmdTools(cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: toolgate-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  session create          Issue a session token for a client group")
	fmt.Println("  session revoke <token>  Revoke a session token")
	fmt.Println("  tools                   List the registered tool catalog")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  TOOLGATE_URL            Server base URL (default: http://localhost:8080)")
	fmt.Println("  TOOLGATE_TOKEN          Admin JWT (required)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  export TOOLGATE_TOKEN=\"eyJhbG...\"")
	fmt.Println("  toolgate-admin session create --group clinic-a --client scheduler-bot")
	fmt.Println("  toolgate-admin session create --group clinic-a --client bot --tools get_user_profile,create_task")
	fmt.Println("  toolgate-admin tools")
	fmt.Println()
}

func cmdSession(cfg *cliConfig, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("session requires a subcommand: create, revoke")
	}

	switch args[0] {
	case "create":
		return sessionCreate(cfg, args[1:])
	case "revoke":
		return sessionRevoke(cfg, args[1:])
	default:
		return fmt.Errorf("unknown session subcommand: %s", args[0])
	}
}

func sessionCreate(cfg *cliConfig, args []string) error {
	var groupID, groupName, clientName, toolList string

	// Supports both "--flag value" and "--flag=value" formats
	flags := map[string]*string{
		"group":  &groupID,
		"name":   &groupName,
		"client": &clientName,
		"tools":  &toolList,
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		matched := false
		for name, dest := range flags {
			switch {
			case arg == "--"+name:
				if i+1 >= len(args) {
					return fmt.Errorf("--%s requires a value", name)
				}
				i++
				*dest = args[i]
				matched = true
			case strings.HasPrefix(arg, "--"+name+"="):
				*dest = strings.TrimPrefix(arg, "--"+name+"=")
				matched = true
			}
			if matched {
				break
			}
		}
		if !matched {
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	if groupID == "" {
		return fmt.Errorf("--group flag is required")
	}
	if clientName == "" {
		return fmt.Errorf("--client flag is required")
	}
	if groupName == "" {
		groupName = groupID
	}

	var allowedTools []string
	if toolList != "" {
		for _, t := range strings.Split(toolList, ",") {
			if t = strings.TrimSpace(t); t != "" {
				allowedTools = append(allowedTools, t)
			}
		}
	}

	body := map[string]any{
		"group_id":    groupID,
		"group_name":  groupName,
		"client_name": clientName,
	}
	if len(allowedTools) > 0 {
		body["allowed_tools"] = allowedTools
	}

	var created struct {
		SessionToken string `json:"session_token"`
		ExpiresIn    int64  `json:"expires_in_seconds"`
	}
	if err := doRequest(cfg, http.MethodPost, "/admin/sessions", body, http.StatusCreated, &created); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Println("  ✓ Session created")
	fmt.Println()
	fmt.Printf("  Group:   %s (%s)\n", groupName, groupID)
	fmt.Printf("  Client:  %s\n", clientName)
	if len(allowedTools) > 0 {
		fmt.Printf("  Tools:   %s\n", strings.Join(allowedTools, ", "))
	} else {
		fmt.Printf("  Tools:   (unrestricted)\n")
	}
	fmt.Printf("  Idle TTL: %s\n", time.Duration(created.ExpiresIn)*time.Second)
	fmt.Println()
	color.Yellow("  Token (shown once, store it now):")
	fmt.Printf("  %s\n\n", created.SessionToken)

	return nil
}

func sessionRevoke(cfg *cliConfig, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("usage: toolgate-admin session revoke <token>")
	}

	body := map[string]any{"session_token": args[0]}
	if err := doRequest(cfg, http.MethodDelete, "/admin/sessions", body, http.StatusNoContent, nil); err != nil {
		return err
	}

	color.Green("  ✓ Session revoked\n")
	return nil
}

func cmdTools(cfg *cliConfig) error {
	var resp struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Category    string `json:"category"`
			ParamCount  int    `json:"param_count"`
		} `json:"tools"`
	}
	if err := doRequest(cfg, http.MethodGet, "/admin/tools", nil, http.StatusOK, &resp); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Registered Tools")
	cyan.Println("  ----------------")

	if len(resp.Tools) == 0 {
		fmt.Println("  (no tools)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tCATEGORY\tPARAMS\tDESCRIPTION")
	fmt.Fprintln(w, "  ----\t--------\t------\t-----------")
	for _, t := range resp.Tools {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", t.Name, t.Category, t.ParamCount, truncate(t.Description, 48))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// doRequest performs one authenticated admin-plane call and decodes the
// response into out when the status matches wantStatus.
func doRequest(cfg *cliConfig, method, path string, body any, wantStatus int, out any) error {
	if cfg.Auth.Token == "" {
		return fmt.Errorf("no admin token configured (set TOOLGATE_TOKEN)")
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, cfg.Gateway.URL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.Auth.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// truncate shortens s to at most max display runes. Cutting on runes keeps
// multibyte text valid where a byte slice would split a character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
