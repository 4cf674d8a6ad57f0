package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connect-raj/prompt-optimiser/internal/config"
)

func newConfigureCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Run interactive configuration wizard",
		Long: `Run an interactive configuration wizard to set up the server name, logging
and tool catalog, then save the result to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wizard := config.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout())

			cfg, err := wizard.Run()
			if err != nil {
				return fmt.Errorf("configuration failed: %w", err)
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			loader := config.NewLoader(opts.cfgFile)
			if err := loader.Save(cfg); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nConfiguration saved to: %s\n", loader.GetConfigPath())
			return nil
		},
	}
}
