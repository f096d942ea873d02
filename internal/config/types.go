package config

// Config is the root configuration for queueboard.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Database  DatabaseConfig  `yaml:"database,omitempty"`
	Broadcast BroadcastConfig `yaml:"broadcast,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Hooks     HooksConfig     `yaml:"hooks,omitempty"`
}

// GatewayConfig controls the HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int        `yaml:"port,omitempty"`
	Bind           string     `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string     `yaml:"customBindHost,omitempty"`
	TLS            GatewayTLS `yaml:"tls,omitempty"`
	AllowedOrigins []string   `yaml:"allowedOrigins,omitempty"`
	MaxMessageKB   int        `yaml:"maxMessageKb,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// DatabaseConfig selects where the board is persisted.
type DatabaseConfig struct {
	Backend    string   `yaml:"backend,omitempty"` // "sql" | "memory"
	URL        string   `yaml:"url,omitempty"`     // postgres://..., sqlite:///path, or a file path; empty means the data dir
	SeedAgents []string `yaml:"seedAgents,omitempty"`
}

// Broadcast policies: whether the originating connection also receives
// the broadcast of its own edit or rename.
const (
	BroadcastIncludeSelf = "include-self"
	BroadcastExcludeSelf = "exclude-self"
)

// BroadcastConfig controls fan-out of board changes.
type BroadcastConfig struct {
	Policy string `yaml:"policy,omitempty"` // "include-self" | "exclude-self"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// HooksConfig attaches shell commands to board events.
type HooksConfig struct {
	DashboardStart     []HookEntry `yaml:"dashboardStart,omitempty"`
	DashboardStop      []HookEntry `yaml:"dashboardStop,omitempty"`
	ClientConnected    []HookEntry `yaml:"clientConnected,omitempty"`
	ClientDisconnected []HookEntry `yaml:"clientDisconnected,omitempty"`
	CellUpdated        []HookEntry `yaml:"cellUpdated,omitempty"`
	AgentRenamed       []HookEntry `yaml:"agentRenamed,omitempty"`
}

// Count returns the number of configured hook commands.
func (h HooksConfig) Count() int {
	return len(h.DashboardStart) + len(h.DashboardStop) +
		len(h.ClientConnected) + len(h.ClientDisconnected) +
		len(h.CellUpdated) + len(h.AgentRenamed)
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
