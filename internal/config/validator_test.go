package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVersion(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		version string
		valid   bool
	}{
		{"1.0.0", true},
		{"0.12.3", true},
		{"2.0.0-rc.1", true},
		{"1.0", false},
		{"v1.0.0", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := v.ValidateVersion(tt.version)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level), level)
	}
	assert.Error(t, v.ValidateLogLevel("trace"))
	assert.Error(t, v.ValidateLogLevel(""))
}

func TestValidateToolName(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateToolName("ping"))
	assert.NoError(t, v.ValidateToolName("optimize-prompt-interactive"))
	assert.Error(t, v.ValidateToolName("Ping"))
	assert.Error(t, v.ValidateToolName("optimize prompt"))
	assert.Error(t, v.ValidateToolName(""))
}

func TestValidateServerNameAndLimits(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateServerName("Prompt Optimiser"))
	assert.Error(t, v.ValidateServerName("   "))

	assert.NoError(t, v.ValidateMaxPromptLength(0))
	assert.NoError(t, v.ValidateMaxPromptLength(4000))
	assert.Error(t, v.ValidateMaxPromptLength(-1))

	assert.NoError(t, v.ValidateTextfilePath(""))
	assert.NoError(t, v.ValidateTextfilePath("/var/lib/node_exporter/prompt_optimiser.prom"))
	assert.Error(t, v.ValidateTextfilePath("/tmp/metrics.json"))
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	t.Run("defaults are valid", func(t *testing.T) {
		assert.Empty(t, v.ValidateConfig(DefaultConfig()))
	})

	t.Run("collects every problem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Version = "latest"
		cfg.Logging.Level = "loud"
		cfg.Tools.MaxPromptLength = -1
		cfg.Tools.Disabled = []string{"ping", "Bad Name"}

		errs := v.ValidateConfig(cfg)
		assert.Len(t, errs, 4)
	})
}
