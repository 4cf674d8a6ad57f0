package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/connect-raj/prompt-optimiser/internal/metrics"
	"github.com/connect-raj/prompt-optimiser/internal/tracing"
	"github.com/connect-raj/prompt-optimiser/pkg/mcpserver"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout",
		Long: `Serve the prompt optimisation tools over the MCP stdio transport.
The server runs until the host closes stdin or the process is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	if err := serve(cmd, opts); err != nil {
		return &ServeError{Err: err}
	}
	return nil
}

func serve(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()

	if cfg.Tracing.Enabled {
		provider, err := tracing.InitOpenTelemetry(tracing.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: cfg.Server.Version,
			File:           cfg.Tracing.File,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Tracing disabled")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := provider.Shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("Failed to shut down tracing")
				}
			}()
		}
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	log.Debug().Int("tools", registry.Count()).Strs("disabled", cfg.Tools.Disabled).Msg("Tool registry built")

	if cfg.Metrics.Enabled {
		m := metrics.NewMetrics()
		registry.SetObserver(m)
		m.SetToolsRegistered(registry.Count())

		if path := cfg.Metrics.TextfilePath; path != "" {
			defer func() {
				if err := m.WriteTextfile(path); err != nil {
					log.Warn().Err(err).Str("path", path).Msg("Failed to write metrics textfile")
				}
			}()
		}
	}

	srv, err := mcpserver.New(registry, mcpserver.Options{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
		Logger:  log.With().Str("service", cfg.Server.Name).Logger(),
		Status:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return err
	}
	return nil
}
