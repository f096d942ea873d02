package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var (
	validBinds         = []string{"auto", "lan", "loopback", "custom"}
	validBackends      = []string{"sql", "memory"}
	validPolicies      = []string{BroadcastIncludeSelf, BroadcastExcludeSelf}
	validLogLevels     = []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	validConsoleStyles = []string{"pretty", "json"}
)

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}
	oneOf := func(path, value string, allowed []string) {
		if value != "" && !slices.Contains(allowed, value) {
			add(path, "must be one of %v, got %q", allowed, value)
		}
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}
	oneOf("gateway.bind", cfg.Gateway.Bind, validBinds)
	if cfg.Gateway.MaxMessageKB < 0 {
		add("gateway.maxMessageKb", "must not be negative, got %d", cfg.Gateway.MaxMessageKB)
	}
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	oneOf("database.backend", cfg.Database.Backend, validBackends)
	if cfg.Database.Backend == "memory" && cfg.Database.URL != "" {
		add("database.url", "not used by the memory backend")
	}
	for i, name := range cfg.Database.SeedAgents {
		if strings.TrimSpace(name) == "" {
			add(fmt.Sprintf("database.seedAgents[%d]", i), "agent name must not be empty")
		}
	}

	oneOf("broadcast.policy", cfg.Broadcast.Policy, validPolicies)
	oneOf("logging.level", cfg.Logging.Level, validLogLevels)
	oneOf("logging.consoleStyle", cfg.Logging.ConsoleStyle, validConsoleStyles)

	hooks := map[string][]HookEntry{
		"hooks.dashboardStart":     cfg.Hooks.DashboardStart,
		"hooks.dashboardStop":      cfg.Hooks.DashboardStop,
		"hooks.clientConnected":    cfg.Hooks.ClientConnected,
		"hooks.clientDisconnected": cfg.Hooks.ClientDisconnected,
		"hooks.cellUpdated":        cfg.Hooks.CellUpdated,
		"hooks.agentRenamed":       cfg.Hooks.AgentRenamed,
	}
	for path, entries := range hooks {
		for i, h := range entries {
			if strings.TrimSpace(h.Command) == "" {
				add(fmt.Sprintf("%s[%d].command", path, i), "command is required")
			}
			if h.Timeout < 0 {
				add(fmt.Sprintf("%s[%d].timeout", path, i), "must not be negative, got %d", h.Timeout)
			}
		}
	}

	return issues
}
