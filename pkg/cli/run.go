package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/verify-runner/pkg/config"
	"github.com/devicelab-dev/verify-runner/pkg/core"
	pwdriver "github.com/devicelab-dev/verify-runner/pkg/driver/playwright"
	roddriver "github.com/devicelab-dev/verify-runner/pkg/driver/rod"
	"github.com/devicelab-dev/verify-runner/pkg/executor"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/flows"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
	"github.com/devicelab-dev/verify-runner/pkg/probe"
	"github.com/devicelab-dev/verify-runner/pkg/validator"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run verification flows in a browser",
	ArgsUsage: "<builtin-name|flow-file|folder>...",
	Description: `Run built-in flows or flow files in a fresh browser session each.

Screenshot paths in flows are relative to --workdir. When --output is set,
report.json and flows/*.json are written there and kept up to date while
the run progresses.

Examples:
  verify-runner run collection-explorer compare-feature
  verify-runner run --driver rod explorer
  verify-runner run --headed --output out/ flows/
  verify-runner run --include-tags smoke flows/`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "driver",
			Aliases: []string{"d"},
			Usage:   "Browser driver (playwright, rod)",
		},
		&cli.BoolFlag{
			Name:  "headed",
			Usage: "Show the browser window",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Report output directory",
		},
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only run flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Skip flows with these tags",
		},
		&cli.BoolFlag{
			Name:  "preflight",
			Usage: "Probe flow URLs over HTTP before launching the browser",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip the remaining flows after the first failure",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "Default step timeout in milliseconds",
		},
		&cli.BoolFlag{
			Name:  "install-browsers",
			Usage: "Download the browser before launching",
		},
		&cli.StringFlag{
			Name:  "workdir",
			Usage: "Base directory for relative screenshot paths",
		},
	},
	Action: runFlows,
}

// RunConfig holds the resolved settings for a run.
type RunConfig struct {
	*config.Config

	// FlowPaths are built-in names, flow files or directories.
	FlowPaths []string
	// LogFile is the --log-file value; when empty the log goes to the
	// output directory.
	LogFile string
}

// newLauncher builds the session launcher for the configured driver.
var newLauncher = func(cfg *config.Config) core.Launcher {
	switch cfg.Driver {
	case config.DriverRod:
		return roddriver.Launcher(roddriver.Options{
			Headless:          cfg.IsHeadless(),
			ViewportWidth:     cfg.Viewport.Width,
			ViewportHeight:    cfg.Viewport.Height,
			Timeout:           cfg.Timeout,
			NavigationTimeout: cfg.NavigationTimeout,
			BrowserDir:        config.GetDriversDir(config.DriverRod),
		})
	default:
		return pwdriver.Launcher(pwdriver.Options{
			Headless:          cfg.IsHeadless(),
			ViewportWidth:     cfg.Viewport.Width,
			ViewportHeight:    cfg.Viewport.Height,
			Timeout:           cfg.Timeout,
			NavigationTimeout: cfg.NavigationTimeout,
			InstallBrowsers:   cfg.InstallBrowsers,
			DriverDir:         config.GetDriversDir(config.DriverPlaywright),
		})
	}
}

func runFlows(c *cli.Context) error {
	cfg, err := buildRunConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, cfg)
}

// loadWorkspaceConfig reads --config, or verify.yaml from the working
// directory.
func loadWorkspaceConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadFromDir(".")
}

// buildRunConfig merges the config file, VERIFY_* variables and flags, in
// increasing priority.
func buildRunConfig(c *cli.Context) (*RunConfig, error) {
	cfg, err := loadWorkspaceConfig(c)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if c.IsSet("driver") {
		cfg.Driver = c.String("driver")
	}
	if c.IsSet("headed") {
		headless := !c.Bool("headed")
		cfg.Headless = &headless
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("include-tags") {
		cfg.IncludeTags = c.StringSlice("include-tags")
	}
	if c.IsSet("exclude-tags") {
		cfg.ExcludeTags = c.StringSlice("exclude-tags")
	}
	if c.IsSet("preflight") {
		on := c.Bool("preflight")
		cfg.Preflight = &on
	}
	if c.Bool("stop-on-fail") {
		cfg.StopOnFail = true
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Int("timeout")
	}
	if c.Bool("install-browsers") {
		cfg.InstallBrowsers = true
	}
	if c.IsSet("workdir") {
		cfg.WorkDir = c.String("workdir")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = cfg.Flows
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no flows given (built-in: %v)", flows.Names())
	}

	return &RunConfig{
		Config:    cfg,
		FlowPaths: paths,
		LogFile:   c.String("log-file"),
	}, nil
}

func executeRun(ctx context.Context, cfg *RunConfig) error {
	if cfg.Output != "" {
		if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if cfg.LogFile == "" {
			if err := logger.Init(filepath.Join(cfg.Output, "verify-runner.log")); err != nil {
				fmt.Fprintf(stdout, "Warning: Failed to initialize logger: %v\n", err)
			}
		}
	}

	logger.Info("=== Verification run started ===")
	logger.Info("Driver: %s (headless: %v)", cfg.Driver, cfg.IsHeadless())
	logger.Info("Output directory: %s", cfg.Output)

	flowList, err := resolveFlows(cfg)
	if err != nil {
		logger.Error("Flow validation failed: %v", err)
		return err
	}
	logger.Info("Validated %d flow(s)", len(flowList))

	runnerCfg := executor.RunnerConfig{
		OutputDir:      cfg.Output,
		WorkDir:        cfg.WorkDir,
		StopOnFail:     cfg.StopOnFail,
		RunnerVersion:  Version,
		DriverName:     cfg.Driver,
		OnFlowStart:    onFlowStart,
		OnStepComplete: onStepComplete,
		OnFlowEnd:      onFlowEnd,
	}
	if cfg.PreflightEnabled() {
		runnerCfg.Preflight = probe.Preflight(probe.Options{Timeout: 10 * time.Second})
	}

	fmt.Fprintf(stdout, "\n%sExecution%s\n", color(colorBold), color(colorReset))
	result, err := executor.New(newLauncher(cfg.Config), runnerCfg).Run(ctx, flowList)
	if err != nil {
		logger.Error("Flow execution failed: %v", err)
		return err
	}
	logger.Info("Run completed: %d passed, %d failed, %d skipped",
		result.PassedFlows, result.FailedFlows, result.SkippedFlows)

	printSummary(result)
	if cfg.Output != "" {
		if err := printArtifacts(cfg.Output); err != nil {
			fmt.Fprintf(stdout, "Warning: Could not read report: %v\n", err)
		}
	}

	if err := result.Err(); err != nil {
		logger.Error("%v", err)
		return cli.Exit("", 1)
	}
	return nil
}

// resolveFlows loads built-in flows by name and validates flow files and
// directories. Paths on disk win over built-in names.
func resolveFlows(cfg *RunConfig) ([]flow.Flow, error) {
	v := validator.New(cfg.IncludeTags, cfg.ExcludeTags)
	all := &validator.Result{}

	for _, path := range cfg.FlowPaths {
		if _, statErr := os.Stat(path); statErr != nil && flows.IsBuiltin(path) {
			f, err := flows.Load(path)
			if err != nil {
				return nil, err
			}
			v.Add(all, f)
			continue
		}
		r := v.Validate(path)
		all.Files = append(all.Files, r.Files...)
		all.Flows = append(all.Flows, r.Flows...)
		all.Errors = append(all.Errors, r.Errors...)
	}

	if !all.IsValid() {
		fmt.Fprintf(stderr, "Validation errors:\n")
		for _, err := range all.Errors {
			fmt.Fprintf(stderr, "  - %v\n", err)
		}
		return nil, fmt.Errorf("validation failed with %d error(s)", len(all.Errors))
	}
	if len(all.Flows) == 0 {
		return nil, fmt.Errorf("no flows to run")
	}

	out := make([]flow.Flow, 0, len(all.Flows))
	for _, f := range all.Flows {
		out = append(out, *f)
	}
	return out, nil
}
