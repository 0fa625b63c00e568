// Package cli is the sitecheck command line: the HTTP API server, one-shot
// test runs, the fixture site and token minting.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/raysh454/sitecheck/internal/app"
	"github.com/raysh454/sitecheck/internal/logging"
)

// Flags shared by every command.
type Flags struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand builds the command tree. out receives command output and
// errOut receives logs and progress.
func NewRootCommand(version string, out, errOut io.Writer) *cobra.Command {
	flags := &Flags{}
	root := &cobra.Command{
		Use:           "sitecheck",
		Short:         "Website quality test orchestrator",
		Long:          "Create and run performance, accessibility, security, SEO and browser tests against websites.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "config file (default ./sitecheck.yaml)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "override logger.level")

	root.AddCommand(
		newServeCommand(flags),
		newRunCommand(flags),
		newFixturesCommand(flags),
		newTokenCommand(flags),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version, os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(flags *Flags) (*app.Config, error) {
	cfg, err := app.LoadConfig(viper.New(), flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.LogLevel != "" {
		cfg.Logger.Level = flags.LogLevel
	}
	return cfg, nil
}

// newLogger writes to w so stdout stays clean for command output.
func newLogger(cfg logging.Config, w io.Writer) *logging.ZapLogger {
	return logging.NewZapLoggerWithWriter(cfg, zapcore.Lock(zapcore.AddSync(w)))
}
