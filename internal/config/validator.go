package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	semverPattern   = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	toolNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// Validator validates individual configuration values. Config.Validate stops
// at the first problem; ValidateConfig reports all of them.
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateServerName validates the advertised server name
func (v *Validator) ValidateServerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("server name cannot be empty")
	}
	return nil
}

// ValidateVersion validates a semantic version string
func (v *Validator) ValidateVersion(version string) error {
	if !semverPattern.MatchString(version) {
		return fmt.Errorf("invalid server version %q (expected MAJOR.MINOR.PATCH)", version)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateMaxPromptLength validates the prompt length limit
func (v *Validator) ValidateMaxPromptLength(limit int) error {
	if limit < 0 {
		return fmt.Errorf("max prompt length must be >= 0, got %d", limit)
	}
	return nil
}

// ValidateToolName validates a tool identifier listed in tools.disabled
func (v *Validator) ValidateToolName(name string) error {
	if !toolNamePattern.MatchString(name) {
		return fmt.Errorf("invalid tool name: %q", name)
	}
	return nil
}

// ValidateTextfilePath validates the metrics textfile destination
func (v *Validator) ValidateTextfilePath(path string) error {
	if path == "" {
		return nil
	}
	if filepath.Ext(path) != ".prom" {
		return fmt.Errorf("metrics textfile path must end in .prom: %s", path)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateServerName(cfg.Server.Name); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateVersion(cfg.Server.Version); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging max_age must be >= 0"))
	}

	if err := v.ValidateMaxPromptLength(cfg.Tools.MaxPromptLength); err != nil {
		errors = append(errors, err)
	}
	for i, name := range cfg.Tools.Disabled {
		if err := v.ValidateToolName(name); err != nil {
			errors = append(errors, fmt.Errorf("tools.disabled[%d]: %w", i, err))
		}
	}

	if err := v.ValidateTextfilePath(cfg.Metrics.TextfilePath); err != nil {
		errors = append(errors, err)
	}

	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		errors = append(errors, fmt.Errorf("tracing service_name is required when tracing is enabled"))
	}

	return errors
}
