package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	cfg.Database.URL = expandEnvVars(cfg.Database.URL)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields left empty by the config file.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = d.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = d.Gateway.Bind
	}
	if cfg.Gateway.MaxMessageKB == 0 {
		cfg.Gateway.MaxMessageKB = d.Gateway.MaxMessageKB
	}
	if cfg.Database.Backend == "" {
		cfg.Database.Backend = d.Database.Backend
	}
	if cfg.Broadcast.Policy == "" {
		cfg.Broadcast.Policy = d.Broadcast.Policy
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

// applyEnvOverrides reads environment variables and overrides config
// values. PORT and DATABASE_URL follow the usual hosting conventions;
// QUEUEBOARD_* take precedence over them.
func applyEnvOverrides(cfg *Config) {
	for _, key := range []string{"PORT", "QUEUEBOARD_PORT"} {
		if v := os.Getenv(key); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				cfg.Gateway.Port = port
			}
		}
	}
	if v := os.Getenv("QUEUEBOARD_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	for _, key := range []string{"DATABASE_URL", "QUEUEBOARD_DATABASE_URL"} {
		if v := os.Getenv(key); v != "" {
			cfg.Database.URL = v
		}
	}
	if v := os.Getenv("QUEUEBOARD_BROADCAST"); v != "" {
		cfg.Broadcast.Policy = strings.ToLower(v)
	}
	if v := os.Getenv("QUEUEBOARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// Save writes cfg to path as YAML, creating the parent directory.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return &ConfigError{Message: "failed to encode config: " + err.Error()}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
