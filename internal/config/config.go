package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultPort is the dashboard's listen port when none is configured.
const DefaultPort = 10000

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port:         DefaultPort,
			Bind:         "lan",
			MaxMessageKB: 64,
		},
		Database: DatabaseConfig{
			Backend: "sql",
		},
		Broadcast: BroadcastConfig{
			Policy: BroadcastIncludeSelf,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
