package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/verify-runner/pkg/config"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Check flow files without running them",
	ArgsUsage: "<builtin-name|flow-file|folder>...",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only check flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Skip flows with these tags",
		},
	},
	Action: validateFlows,
}

func validateFlows(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no flows given")
	}

	cfg := &RunConfig{
		Config: &config.Config{
			IncludeTags: c.StringSlice("include-tags"),
			ExcludeTags: c.StringSlice("exclude-tags"),
		},
		FlowPaths: c.Args().Slice(),
	}
	flowList, err := resolveFlows(cfg)
	if err != nil {
		return err
	}

	for _, f := range flowList {
		fmt.Fprintf(stdout, "  %s✓%s %s %s(%d steps)%s\n",
			color(colorGreen), color(colorReset), f.SourcePath,
			color(colorGray), len(f.Steps), color(colorReset))
	}
	fmt.Fprintf(stdout, "\n%d flow(s) valid\n", len(flowList))
	return nil
}
