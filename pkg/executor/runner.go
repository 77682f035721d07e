// Package executor orchestrates flow execution, connecting drivers to reports.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
	"github.com/devicelab-dev/verify-runner/pkg/report"
)

// PreflightFunc checks that a flow's target is reachable before a browser
// is launched for it.
type PreflightFunc func(ctx context.Context, url string) error

// RunnerConfig configures the flow runner.
type RunnerConfig struct {
	OutputDir  string // Report output directory ("" keeps the report in memory)
	WorkDir    string // Base for relative screenshot paths ("" = process working directory)
	StopOnFail bool   // Skip remaining flows after the first failure

	// Preflight runs before each flow that declares a base URL.
	Preflight PreflightFunc

	// Runner metadata
	RunnerVersion string
	DriverName    string

	// Live progress callbacks
	OnFlowStart    func(flowIdx, totalFlows int, name, file string)
	OnStepStart    func(idx int, step flow.Step)
	OnStepComplete func(idx int, step flow.Step, result *core.StepResult)
	OnFlowEnd      func(name string, passed bool, durationMs int64)
}

// RunResult contains the outcome of a run.
type RunResult struct {
	RunID        string
	Status       report.Status
	TotalFlows   int
	PassedFlows  int
	FailedFlows  int
	SkippedFlows int
	Duration     int64 // Total duration in milliseconds
	FlowResults  []FlowResult
}

// FlowResult contains the outcome of a single flow execution.
type FlowResult struct {
	ID           string
	Name         string
	Status       report.Status
	Duration     int64
	Error        string
	Code         string // Machine-readable code of the failure, e.g. title_mismatch
	StepsTotal   int
	StepsPassed  int
	StepsFailed  int
	StepsSkipped int

	// Detail holds per-step results; nil when the flow never started a
	// session (cancelled, preflight or launch failure).
	Detail *core.FlowResult
}

// Runner orchestrates flow execution. Flows run sequentially, each in its
// own browser session.
type Runner struct {
	config RunnerConfig
	launch core.Launcher
}

// New creates a new Runner.
func New(launch core.Launcher, cfg RunnerConfig) *Runner {
	return &Runner{
		config: cfg,
		launch: launch,
	}
}

// Run executes all flows and generates reports.
func (r *Runner) Run(ctx context.Context, flows []flow.Flow) (*RunResult, error) {
	builderCfg := report.BuilderConfig{
		OutputDir:     r.config.OutputDir,
		RunnerVersion: r.config.RunnerVersion,
		DriverName:    r.config.DriverName,
	}

	index, flowDetails, err := report.BuildSkeleton(flows, builderCfg)
	if err != nil {
		return nil, err
	}

	if err := report.WriteSkeleton(r.config.OutputDir, index, flowDetails); err != nil {
		return nil, err
	}

	indexWriter := report.NewIndexWriter(r.config.OutputDir, index)
	defer indexWriter.Close()

	indexWriter.Start()

	results := r.executeFlows(ctx, flows, flowDetails, indexWriter)

	indexWriter.End()

	result := r.buildRunResult(results)
	result.RunID = index.RunID
	return result, nil
}

// executeFlows runs flows sequentially.
func (r *Runner) executeFlows(ctx context.Context, flows []flow.Flow, flowDetails []report.FlowDetail, indexWriter *report.IndexWriter) []FlowResult {
	results := make([]FlowResult, len(flows))
	totalFlows := len(flows)
	stop := false

	for i := range flows {
		if stop || ctx.Err() != nil {
			reason := "run cancelled"
			if stop {
				reason = "run stopped"
			}
			results[i] = r.skipFlow(&flowDetails[i], indexWriter, reason)
			continue
		}

		results[i] = r.executeFlow(ctx, flows[i], &flowDetails[i], indexWriter, i, totalFlows)
		if r.config.StopOnFail && results[i].Status == report.StatusFailed {
			stop = true
		}
	}

	return results
}

// executeFlow runs a single flow inside its own browser session.
func (r *Runner) executeFlow(ctx context.Context, f flow.Flow, detail *report.FlowDetail, indexWriter *report.IndexWriter, flowIdx, totalFlows int) FlowResult {
	// Flows with an onFailure screenshot need a page to capture, so the
	// browser reports an unreachable server for them.
	if r.config.Preflight != nil && f.Config.URL != "" && f.Config.OnFailure.Screenshot == "" {
		if err := r.config.Preflight(ctx, f.Config.URL); err != nil {
			logger.Error("preflight %s: %v", f.Config.URL, err)
			return r.failFlow(detail, indexWriter, err)
		}
	}

	var result FlowResult
	err := WithSession(r.launch, func(driver core.Driver) error {
		indexWriter.SetBrowser(browserInfoToReport(driver.GetBrowserInfo()))
		fr := &FlowRunner{
			ctx:         ctx,
			flow:        f,
			detail:      detail,
			driver:      driver,
			config:      r.config,
			indexWriter: indexWriter,
			flowIdx:     flowIdx,
			totalFlows:  totalFlows,
		}
		result = fr.Run()
		return nil
	})
	if err != nil {
		if result.ID == "" {
			// The session never started; the flow did not run.
			logger.Error("flow %s: %v", detail.Name, err)
			return r.failFlow(detail, indexWriter, err)
		}
		// Close failed after the flow finished; the outcome stands.
		logger.Warn("flow %s: %v", detail.Name, err)
	}
	return result
}

// failFlow records a flow that failed before any step ran.
func (r *Runner) failFlow(detail *report.FlowDetail, indexWriter *report.IndexWriter, err error) FlowResult {
	fw := report.NewFlowWriter(detail, r.config.OutputDir, indexWriter)
	fw.Start()
	fw.Fail(err.Error())
	fw.SkipRemainingCommands(0)
	fw.End(report.StatusFailed)

	if r.config.OnFlowEnd != nil {
		r.config.OnFlowEnd(detail.Name, false, 0)
	}

	return FlowResult{
		ID:           detail.ID,
		Name:         detail.Name,
		Status:       report.StatusFailed,
		Error:        err.Error(),
		Code:         core.CodeOf(err),
		StepsTotal:   len(detail.Commands),
		StepsSkipped: len(detail.Commands),
	}
}

// skipFlow records a flow that was not run.
func (r *Runner) skipFlow(detail *report.FlowDetail, indexWriter *report.IndexWriter, reason string) FlowResult {
	fw := report.NewFlowWriter(detail, r.config.OutputDir, indexWriter)
	fw.SkipRemainingCommands(0)
	fw.End(report.StatusSkipped)

	return FlowResult{
		ID:           detail.ID,
		Name:         detail.Name,
		Status:       report.StatusSkipped,
		Error:        reason,
		StepsTotal:   len(detail.Commands),
		StepsSkipped: len(detail.Commands),
	}
}

// buildRunResult aggregates flow results into a run result.
func (r *Runner) buildRunResult(flowResults []FlowResult) *RunResult {
	result := &RunResult{
		TotalFlows:  len(flowResults),
		FlowResults: flowResults,
	}

	for _, fr := range flowResults {
		result.Duration += fr.Duration
		switch fr.Status {
		case report.StatusPassed:
			result.PassedFlows++
		case report.StatusFailed:
			result.FailedFlows++
		case report.StatusSkipped:
			result.SkippedFlows++
		}
	}

	// Determine overall status
	if result.FailedFlows > 0 {
		result.Status = report.StatusFailed
	} else {
		result.Status = report.StatusPassed // All passed or skipped
	}

	return result
}

// FirstFailure returns the first failed flow, or nil.
func (r *RunResult) FirstFailure() *FlowResult {
	for i := range r.FlowResults {
		if r.FlowResults[i].Status == report.StatusFailed {
			return &r.FlowResults[i]
		}
	}
	return nil
}

// Err returns an error describing the first failed flow, or nil when the
// run passed.
func (r *RunResult) Err() error {
	f := r.FirstFailure()
	if f == nil {
		return nil
	}
	return fmt.Errorf("flow %q failed: %s", f.Name, f.Error)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
