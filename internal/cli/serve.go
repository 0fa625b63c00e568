package cli

import (
	"github.com/spf13/cobra"

	"github.com/raysh454/sitecheck/internal/app"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/server"
)

func newServeCommand(flags *Flags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger := newLogger(cfg.Logger, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			comps, err := app.NewComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := comps.Close(); err != nil {
					logger.Warn("closing components", logging.Err(err))
				}
			}()

			srv := server.NewServer(server.Config{
				ServerConfig: cfg.Server,
				Orchestrator: comps.Orchestrator,
				Events:       comps.Events,
				Logger:       logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
