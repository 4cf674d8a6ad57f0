package cli

import (
	"fmt"
	"io"

	"github.com/connect-raj/prompt-optimiser/internal/config"
	"github.com/connect-raj/prompt-optimiser/internal/logger"
	"github.com/connect-raj/prompt-optimiser/pkg/coretools"
	"github.com/connect-raj/prompt-optimiser/pkg/toolexecutor"
)

// loadConfig reads the config file and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if o.logLevel != "" {
		if err := config.NewValidator().ValidateLogLevel(o.logLevel); err != nil {
			return nil, err
		}
		cfg.Logging.Level = o.logLevel
	}

	return cfg, nil
}

// newLogger builds the process logger. Console output always goes to errOut
// because stdout is reserved for the transport.
func newLogger(cfg *config.Config, errOut io.Writer) (*logger.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Output:    errOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// buildRegistry populates a registry with the enabled catalog tools.
func buildRegistry(cfg *config.Config) (*toolexecutor.Registry, error) {
	registry := toolexecutor.NewRegistry()
	err := coretools.RegisterCoreTools(registry, coretools.Options{
		MaxPromptLength: cfg.Tools.MaxPromptLength,
		Disabled:        cfg.Tools.Disabled,
	})
	if err != nil {
		return nil, err
	}
	return registry, nil
}
