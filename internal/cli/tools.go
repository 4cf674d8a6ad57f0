package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type toolDescriptor struct {
	Name        string                 `json:"name"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func newToolsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalog",
		Long:  `List the tools published to MCP hosts with their inputs.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			out := cmd.OutOrStdout()

			if asJSON {
				descriptors := make([]toolDescriptor, 0, registry.Count())
				for _, def := range registry.List() {
					schema, _ := registry.InputSchema(def.Name)
					descriptors = append(descriptors, toolDescriptor{
						Name:        def.Name,
						Title:       def.Title,
						Description: def.Description,
						InputSchema: schema,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(descriptors)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTITLE\tINPUTS")
			for _, def := range registry.List() {
				inputs := make([]string, 0, len(def.Parameters))
				for _, param := range def.Parameters {
					label := param.Name + ": " + param.Type
					if !param.Required {
						label += " (optional)"
					}
					inputs = append(inputs, label)
				}
				if len(inputs) == 0 {
					inputs = append(inputs, "-")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, def.Title, strings.Join(inputs, ", "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the wire descriptors as JSON")

	return cmd
}
