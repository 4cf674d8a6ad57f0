package coretools

import (
	"context"
	"errors"
	"fmt"

	"github.com/connect-raj/prompt-optimiser/pkg/prompts"
	"github.com/connect-raj/prompt-optimiser/pkg/toolexecutor"
)

// Tool identifiers published to MCP hosts.
const (
	ToolPing                = "ping"
	ToolOptimizeInteractive = "optimize-prompt-interactive"
	ToolOptimize            = "optimize-prompt"
)

// Options configures core tool registration.
type Options struct {
	// MaxPromptLength caps originalPrompt and context in runes; 0 disables the cap.
	MaxPromptLength int
	// Disabled lists tool identifiers left out of the catalog.
	Disabled []string
}

// Definitions returns the full catalog in publication order.
func Definitions(opts Options) []toolexecutor.ToolDefinition {
	return []toolexecutor.ToolDefinition{
		pingTool(),
		optimizeInteractiveTool(opts),
		optimizeTool(opts),
	}
}

// RegisterCoreTools registers every enabled catalog tool. Disabling a name
// that is not in the catalog is an error so typos in config surface at
// startup.
func RegisterCoreTools(registry *toolexecutor.Registry, opts Options) error {
	if registry == nil {
		return errors.New("tool registry is required")
	}

	defs := Definitions(opts)

	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		disabled[name] = true
	}
	for name := range disabled {
		if !inCatalog(defs, name) {
			return fmt.Errorf("cannot disable unknown tool %s", name)
		}
	}

	for _, tool := range defs {
		if disabled[tool.Name] {
			continue
		}
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", tool.Name, err)
		}
	}
	return nil
}

func inCatalog(defs []toolexecutor.ToolDefinition, name string) bool {
	for _, def := range defs {
		if def.Name == name {
			return true
		}
	}
	return false
}

func pingTool() toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        ToolPing,
		Title:       "Ping",
		Description: "Pings the server to check whether the MCP is connected or not",
		Handler: func(ctx context.Context, args toolexecutor.Arguments) (toolexecutor.ToolResult, error) {
			return toolexecutor.TextResult(prompts.RenderPing()), nil
		},
	}
}

func optimizeInteractiveTool(opts Options) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:  ToolOptimizeInteractive,
		Title: "Optimize Prompt (Interactive)",
		Description: "Provides expert prompt engineering guidance. Returns a formatted, copy-paste ready optimized prompt " +
			"for GitHub Copilot in VSCode, with optional clarifications.",
		Parameters: []toolexecutor.ToolParameter{
			originalPromptParam(opts),
		},
		Handler: func(ctx context.Context, args toolexecutor.Arguments) (toolexecutor.ToolResult, error) {
			return toolexecutor.TextResult(prompts.RenderInteractiveOptimization(args.String("originalPrompt"))), nil
		},
	}
}

func optimizeTool(opts Options) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        ToolOptimize,
		Title:       "Optimize Prompt",
		Description: "Rewrites a prompt into a clearer, more specific version and explains the improvements. Accepts optional context about the project or goal.",
		Parameters: []toolexecutor.ToolParameter{
			originalPromptParam(opts),
			{
				Name:        "context",
				Type:        "string",
				Description: "Additional context about the project, audience or constraints",
				Required:    false,
				MaxLength:   opts.MaxPromptLength,
			},
		},
		Handler: func(ctx context.Context, args toolexecutor.Arguments) (toolexecutor.ToolResult, error) {
			extra, _ := args.OptionalString("context")
			return toolexecutor.TextResult(prompts.RenderOptimization(args.String("originalPrompt"), extra)), nil
		},
	}
}

func originalPromptParam(opts Options) toolexecutor.ToolParameter {
	return toolexecutor.ToolParameter{
		Name:        "originalPrompt",
		Type:        "string",
		Description: "The prompt to optimize",
		Required:    true,
		MaxLength:   opts.MaxPromptLength,
	}
}
