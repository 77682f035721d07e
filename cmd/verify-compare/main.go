// Command verify-compare checks the compare feature of the docs site on
// localhost:8080: selecting two items enables the compare button, which
// opens the "Compare Files" page.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devicelab-dev/verify-runner/pkg/cli"
	"github.com/devicelab-dev/verify-runner/pkg/flows"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.RunStandalone(ctx, cli.Standalone{Flow: flows.CompareFeature}); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		stop()
		os.Exit(1)
	}
}
