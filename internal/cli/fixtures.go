package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitecheck/internal/demoserver"
)

func newFixturesCommand(flags *Flags) *cobra.Command {
	fx := demoserver.DefaultConfig()
	var fixed bool
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Serve pages with known defects for checking engines by hand",
		Long: "Serves a local site whose pages each carry defects for one engine. " +
			"Run tests against it with allow_local_urls enabled, then switch pages to their fixed version at /fixtures/control.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Logger, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			if fixed {
				fx.InitialVersion = demoserver.VersionFixed
			}
			return demoserver.NewServer(fx, logger).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&fx.Port, "port", "p", fx.Port, "listen port")
	cmd.Flags().DurationVar(&fx.SlowScriptDelay, "slow-script-delay", 1500*time.Millisecond, "delay of /static/slow.js")
	cmd.Flags().BoolVar(&fixed, "fixed", false, "start every page on its fixed version")
	return cmd
}
