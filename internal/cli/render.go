package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var rawArgs []string

	cmd := &cobra.Command{
		Use:   "render <tool>",
		Short: "Run a tool locally and print its output",
		Long: `Dispatch a tool through the same registry the server uses and print the
text it would return to the host. Arguments are passed as --arg key=value.`,
		Example: `  prompt-optimiser render ping
  prompt-optimiser render optimize-prompt-interactive --arg originalPrompt="Build a login page"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseToolArgs(rawArgs)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer log.Close()

			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			result, err := registry.Dispatch(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Text())
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "tool argument as key=value (repeatable)")

	return cmd
}

// parseToolArgs turns key=value pairs into string arguments. A value may
// itself contain '='.
func parseToolArgs(pairs []string) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		args[key] = value
	}
	return args, nil
}
