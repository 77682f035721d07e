// Command verify-explorer checks the Collection Explorer page on
// localhost:4321: title, search filter and filter reset, with screenshots
// under jules-scratch/verification.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/devicelab-dev/verify-runner/pkg/cli"
	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/flows"
)

var out io.Writer = os.Stdout

// progress holds the lines printed around a step, keyed by the step's
// description in the built-in flow.
type progress struct {
	start string
	done  string
}

var explorerProgress = map[string]progress{
	"check title":    {start: "Checking page title...", done: "Title is correct."},
	"initial load":   {start: "Taking initial screenshot..."},
	"search filter":  {start: "Testing search filter..."},
	"search results": {done: "Search filter tested."},
	"reset filters":  {start: "Testing reset button..."},
	"after reset":    {done: "Reset button tested."},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.RunStandalone(ctx, cli.Standalone{
		Flow:           flows.CollectionExplorer,
		OnStepStart:    stepStarted,
		OnStepComplete: stepCompleted,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		stop()
		os.Exit(1)
	}
	fmt.Fprintln(out, "Verification script completed successfully.")
}

func stepStarted(_ int, step flow.Step) {
	if nav, ok := step.(*flow.NavigateStep); ok {
		fmt.Fprintf(out, "Navigating to %s...\n", nav.URL)
		return
	}
	if p := explorerProgress[step.Label()]; p.start != "" {
		fmt.Fprintln(out, p.start)
	}
}

func stepCompleted(_ int, step flow.Step, result *core.StepResult) {
	if !result.Status.IsSuccess() {
		return
	}
	if p := explorerProgress[step.Label()]; p.done != "" {
		fmt.Fprintln(out, p.done)
	}
}
