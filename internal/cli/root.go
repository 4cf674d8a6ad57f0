package cli

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X".
var version = "1.0.0"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	cfgFile  string
	logLevel string
}

// NewRootCmd builds the command tree. Invoked without a subcommand it serves
// MCP on stdio, which is how hosts launch it.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "prompt-optimiser",
		Short: "Prompt Optimiser - MCP server for prompt engineering",
		Long: `Prompt Optimiser is a Model Context Protocol server that turns rough
prompts into structured instructions for AI coding assistants.
It speaks MCP over stdin/stdout and is normally launched by an MCP host.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.prompt-optimiser/config.json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(
		newServeCmd(opts),
		newToolsCmd(opts),
		newRenderCmd(opts),
		newConfigCmd(opts),
		newConfigureCmd(opts),
	)

	return cmd
}

// Execute runs the command tree. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}
