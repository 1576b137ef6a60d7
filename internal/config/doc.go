// Package config handles configuration loading for toolgate.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TOOLGATE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/toolgate/toolgate.yaml
//  3. ~/.config/toolgate/toolgate.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${TOOLGATE_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # JSON-RPC and admin endpoints
//
// Shared store (point every instance at the same database):
//
//	store:
//	  path: "/var/lib/toolgate/toolgate.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${TOOLGATE_JWT_SECRET}"  # signs admin-plane tokens
//	  require_session_for_list: false       # gate tools/list behind sessions
//
// Sessions and rate limiting:
//
//	sessions:
//	  ttl: "30m"        # idle timeout for tool-session tokens
//	ratelimit:
//	  limit: 60         # calls per (session, tool) pair per window
//	  window: "1m"
//	calls:
//	  timeout: "30s"    # end-to-end bound on one tool invocation
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Duration values use Go's time.ParseDuration syntax (ns, us, ms, s, m, h).
//
// # Usage
//
//	cfg, err := config.Load("/etc/toolgate/toolgate.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
