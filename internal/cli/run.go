package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitecheck/internal/app"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/runner"
	"github.com/raysh454/sitecheck/internal/store"
)

// cliCaller owns every record created by a one-shot run.
var cliCaller = model.Caller{ID: "cli", Role: model.RoleUser}

// ErrTestFailed is returned by the run command when the engine failed; the
// failure has already been reported.
var ErrTestFailed = errors.New("test failed")

type runOptions struct {
	testType   string
	params     map[string]string
	jsonOut    bool
	noProgress bool
	local      bool
}

func newRunCommand(flags *Flags) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Create and run one test, then print the result",
		Long: "Runs a single test against an in-memory store and prints the outcome. " +
			"Nothing is persisted.",
		Example: "  sitecheck run https://example.com --type accessibility\n" +
			"  sitecheck run example.com --type security --param scanType=baseline\n" +
			"  sitecheck run http://localhost:9999/errors --type browser --local",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cfg.Store = store.Config{Driver: store.DriverMemory}
			cfg.AllowLocalURLs = cfg.AllowLocalURLs || opts.local
			if flags.LogLevel == "" {
				cfg.Logger.Level = "warn"
			}

			logger := newLogger(cfg.Logger, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			comps, err := app.NewComponents(ctx, cfg, logger, app.WithStore(store.NewMemoryStore()))
			if err != nil {
				return err
			}
			defer func() {
				if err := comps.Close(); err != nil {
					logger.Warn("closing components", logging.Err(err))
				}
			}()

			req := model.TestRequest{
				URL:        args[0],
				TestType:   model.TestType(opts.testType),
				Parameters: parseParams(opts.params),
			}
			rep := NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.jsonOut, !opts.noProgress && !opts.jsonOut)
			return RunOnce(ctx, comps.Orchestrator, req, rep)
		},
	}
	cmd.Flags().StringVarP(&opts.testType, "type", "t", string(model.TestPerformance),
		"test type: performance, accessibility, security, seo, browser or all")
	cmd.Flags().StringToStringVarP(&opts.params, "param", "p", nil, "engine parameter key=value (browsers takes a comma-separated list)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the record as JSON")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the progress spinner")
	cmd.Flags().BoolVar(&opts.local, "local", false, "accept localhost targets and explicit ports")
	return cmd
}

// parseParams turns flag pairs into record parameters. List-valued keys are
// split on commas.
func parseParams(kv map[string]string) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]any, len(kv))
	for k, v := range kv {
		if k == runner.ParamBrowsers {
			var list []string
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					list = append(list, item)
				}
			}
			out[k] = list
			continue
		}
		out[k] = v
	}
	return out
}

// RunOnce creates the test, runs it and reports the outcome through rep.
// An engine failure is reported and returned as ErrTestFailed.
func RunOnce(ctx context.Context, orch *app.Orchestrator, req model.TestRequest, rep *Reporter) error {
	rec, err := orch.Create(ctx, cliCaller, req)
	if err != nil {
		return err
	}

	stop := rep.Spin(fmt.Sprintf("Running %s test on %s", rec.TestType, rec.URL))
	rec, err = orch.Run(ctx, cliCaller, rec.ID)
	stop()

	if rec != nil {
		if perr := rep.Print(rec); perr != nil {
			return perr
		}
	}
	if err != nil {
		if app.KindOf(err) == app.KindRunner {
			return fmt.Errorf("%w: %w", ErrTestFailed, err)
		}
		return err
	}
	return nil
}
