package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Config represents the prompt optimiser configuration
type Config struct {
	// Server identity advertised during the MCP handshake
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Tools
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`
}

// ServerConfig holds the name and version reported to MCP hosts
type ServerConfig struct {
	Name    string `json:"name" mapstructure:"name"`
	Version string `json:"version" mapstructure:"version"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// ToolsConfig holds tool catalog settings
type ToolsConfig struct {
	MaxPromptLength int      `json:"max_prompt_length" mapstructure:"max_prompt_length"` // 0 means unlimited
	Disabled        []string `json:"disabled" mapstructure:"disabled"`
}

// MetricsConfig holds metrics settings. There is no listener; metrics are
// written to a textfile on shutdown when a path is set.
type MetricsConfig struct {
	Enabled      bool   `json:"enabled" mapstructure:"enabled"`
	TextfilePath string `json:"textfile_path" mapstructure:"textfile_path"`
}

// TracingConfig holds OpenTelemetry settings. Finished spans are appended
// to File as JSON lines; stdout is never used.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
	File        string `json:"file" mapstructure:"file"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "Prompt Optimiser",
			Version: "1.0.0",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Tools: ToolsConfig{
			MaxPromptLength: 0,
			Disabled:        []string{},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Enabled:     true,
			ServiceName: "prompt-optimiser",
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if c.Server.Version == "" {
		return fmt.Errorf("server version is required")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.MaxSize < 0 {
		return fmt.Errorf("logging max_size must be >= 0")
	}
	if c.Logging.MaxAge < 0 {
		return fmt.Errorf("logging max_age must be >= 0")
	}

	if c.Tools.MaxPromptLength < 0 {
		return fmt.Errorf("tools max_prompt_length must be >= 0")
	}

	if c.Metrics.TextfilePath != "" && filepath.Ext(c.Metrics.TextfilePath) != ".prom" {
		return fmt.Errorf("metrics textfile_path must end in .prom: %s", c.Metrics.TextfilePath)
	}

	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing service_name is required when tracing is enabled")
	}

	return nil
}
