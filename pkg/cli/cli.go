// Package cli provides the command-line interface for verify-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Workspace config file (default: verify.yaml in the working directory)",
		EnvVars: []string{"VERIFY_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write the debug log to this file",
		EnvVars: []string{"VERIFY_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"VERIFY_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the verify-runner application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "verify-runner",
		Usage:   "Browser verification runner for local documentation sites",
		Version: Version,
		Description: `verify-runner drives a headless browser through declarative flows
and records screenshots and a JSON report.

Examples:
  verify-runner run collection-explorer
  verify-runner run --driver rod --output out/ compare-feature
  verify-runner run flows/
  verify-runner probe http://localhost:4321 --selector input`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			if path := c.String("log-file"); path != "" {
				if err := logger.Init(path); err != nil {
					return fmt.Errorf("init log file: %w", err)
				}
			}
			logger.SetVerbose(c.Bool("verbose"))
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			listCommand,
			validateCommand,
			probeCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
