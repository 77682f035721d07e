package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/executor"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// stepLabel prefers the flow author's description over the generated one.
func stepLabel(step flow.Step) string {
	if l := step.Label(); l != "" {
		return l
	}
	return step.Describe()
}

func onFlowStart(flowIdx, totalFlows int, name, file string) {
	fmt.Fprintf(stdout, "\n  %s[%d/%d]%s %s%s%s %s(%s)%s\n",
		color(colorCyan), flowIdx+1, totalFlows, color(colorReset),
		color(colorBold), name, color(colorReset),
		color(colorDim), file, color(colorReset))
}

func onStepComplete(idx int, step flow.Step, result *core.StepResult) {
	desc := stepLabel(step)
	durationMs := result.Duration.Milliseconds()
	durStr := formatDuration(durationMs)

	switch result.Status {
	case core.StatusPassed, core.StatusWarned:
		symbol := "✓"
		symbolColor := color(colorGreen)
		durColor := ""
		if result.Status == core.StatusWarned {
			symbol = "⚠"
			symbolColor = color(colorYellow)
		}
		if durationMs >= slowThresholdMs {
			durColor = color(colorYellow)
		}
		fmt.Fprintf(stdout, "    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), desc, durColor, durStr, color(colorReset))
	case core.StatusSkipped:
		fmt.Fprintf(stdout, "    %s- %s%s\n", color(colorCyan), desc, color(colorReset))
	default:
		fmt.Fprintf(stdout, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), desc, durStr)
		if result.Error != "" {
			fmt.Fprintf(stdout, "      %s╰─%s %s\n", color(colorGray), color(colorReset), result.Error)
		}
	}
}

func onFlowEnd(name string, passed bool, durationMs int64) {
	if passed {
		fmt.Fprintf(stdout, "%s✓ %s%s %s%s%s\n",
			color(colorGreen), color(colorReset), name, color(colorGray), formatDuration(durationMs), color(colorReset))
	} else {
		fmt.Fprintf(stdout, "%s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), name, color(colorGray), formatDuration(durationMs), color(colorReset))
	}
}

func printSummary(result *executor.RunResult) {
	// Calculate totals
	totalSteps := 0
	passedSteps := 0
	failedSteps := 0
	skippedSteps := 0
	for _, fr := range result.FlowResults {
		totalSteps += fr.StepsTotal
		passedSteps += fr.StepsPassed
		failedSteps += fr.StepsFailed
		skippedSteps += fr.StepsSkipped
	}

	fmt.Fprintln(stdout)
	if passedSteps > 0 {
		fmt.Fprintf(stdout, "  %s%d steps passing%s (%s)\n", color(colorGreen), passedSteps, color(colorReset), formatDuration(result.Duration))
	}
	if failedSteps > 0 {
		fmt.Fprintf(stdout, "  %s%d steps failing%s\n", color(colorRed), failedSteps, color(colorReset))
	}
	if skippedSteps > 0 {
		fmt.Fprintf(stdout, "  %s%d steps skipped%s\n", color(colorCyan), skippedSteps, color(colorReset))
	}
	fmt.Fprintln(stdout)

	tableWidth := 92
	fmt.Fprintln(stdout, strings.Repeat("═", tableWidth))
	fmt.Fprintf(stdout, "  %-42s %6s %7s %6s %6s %6s %10s\n", "Flow", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Fprintln(stdout, strings.Repeat("─", tableWidth))

	for _, fr := range result.FlowResults {
		status, statusColor := statusCell(fr.Status)

		name := fr.Name
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		fmt.Fprintf(stdout, "  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, color(colorReset),
			fr.StepsTotal, fr.StepsPassed, fr.StepsFailed, fr.StepsSkipped,
			formatDuration(fr.Duration))
		if fr.Status == report.StatusFailed && fr.StepsTotal == fr.StepsSkipped && fr.Error != "" {
			// Failed before any step ran: preflight, launch or cancellation.
			fmt.Fprintf(stdout, "    %s╰─%s %s\n", color(colorGray), color(colorReset), fr.Error)
		}
	}

	fmt.Fprintln(stdout, strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.PassedFlows, result.TotalFlows)
	statusColor := color(colorGreen)
	if result.FailedFlows > 0 {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(stdout, "  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(result.Duration))
	fmt.Fprintln(stdout, strings.Repeat("═", tableWidth))
}

func statusCell(s report.Status) (string, string) {
	switch s {
	case report.StatusFailed:
		return "✗ FAIL", color(colorRed)
	case report.StatusSkipped:
		return "- SKIP", color(colorCyan)
	default:
		return "✓ PASS", color(colorGreen)
	}
}

// printArtifacts lists the screenshots each flow wrote, read back from the
// report in outputDir.
func printArtifacts(outputDir string) error {
	index, err := report.ReadIndex(outputDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "  Artifacts:")
	for _, entry := range index.Flows {
		detail, err := report.ReadFlow(outputDir, entry)
		if err != nil {
			fmt.Fprintf(stdout, "    %s: (could not load flow details: %v)\n", entry.Name, err)
			continue
		}
		shots := detail.Artifacts.Screenshots
		if len(shots) == 0 && detail.Artifacts.ErrorScreenshot == "" {
			continue
		}
		fmt.Fprintf(stdout, "    %s%s%s\n", color(colorBold), entry.Name, color(colorReset))
		for _, p := range shots {
			fmt.Fprintf(stdout, "      %s\n", p)
		}
		if p := detail.Artifacts.ErrorScreenshot; p != "" {
			fmt.Fprintf(stdout, "      %s%s (error)%s\n", color(colorRed), p, color(colorReset))
		}
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "  Reports:")
	fmt.Fprintf(stdout, "    JSON:   %s\n", filepath.Join(outputDir, "report.json"))
	return nil
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
