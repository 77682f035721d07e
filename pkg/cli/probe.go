package cli

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/verify-runner/pkg/probe"
)

var probeCommand = &cli.Command{
	Name:      "probe",
	Usage:     "Fetch a page over HTTP and report its title and selector matches",
	ArgsUsage: "<url>",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "selector",
			Aliases: []string{"s"},
			Usage:   "CSS selector to count (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: probe.DefaultTimeout,
		},
	},
	Action: probePage,
}

func probePage(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one URL")
	}

	res, err := probe.Probe(c.Context, c.Args().First(), probe.Options{
		Timeout:   c.Duration("timeout"),
		Selectors: c.StringSlice("selector"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "  URL:      %s\n", res.URL)
	fmt.Fprintf(stdout, "  Status:   %d\n", res.StatusCode)
	fmt.Fprintf(stdout, "  Title:    %q\n", res.Title)
	fmt.Fprintf(stdout, "  Duration: %s\n", formatDuration(res.Duration.Milliseconds()))

	if len(res.Matches) > 0 {
		selectors := make([]string, 0, len(res.Matches))
		for s := range res.Matches {
			selectors = append(selectors, s)
		}
		sort.Strings(selectors)
		fmt.Fprintln(stdout, "  Matches:")
		for _, s := range selectors {
			fmt.Fprintf(stdout, "    %-30s %d\n", s, res.Matches[s])
		}
	}
	return nil
}
