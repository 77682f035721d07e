package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/verify-runner/pkg/flows"
)

var listCommand = &cli.Command{
	Name:   "list",
	Usage:  "List the built-in flows",
	Action: listFlows,
}

func listFlows(c *cli.Context) error {
	builtins, err := flows.List()
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "  %-22s %-10s %-40s %s\n", "Name", "Alias", "URL", "Tags")
	fmt.Fprintln(stdout, "  "+strings.Repeat("─", 86))
	for _, b := range builtins {
		fmt.Fprintf(stdout, "  %s%-22s%s %-10s %-40s %s\n",
			color(colorBold), b.Name, color(colorReset),
			b.Alias, b.URL, strings.Join(b.Tags, ","))
		for _, p := range b.Screenshots {
			fmt.Fprintf(stdout, "      %s%s%s\n", color(colorGray), p, color(colorReset))
		}
	}
	return nil
}
