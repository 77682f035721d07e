package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
	"github.com/devicelab-dev/verify-runner/pkg/report"
)

// FlowRunner executes a single flow against an open session.
type FlowRunner struct {
	ctx         context.Context
	flow        flow.Flow
	detail      *report.FlowDetail
	driver      core.Driver
	config      RunnerConfig
	indexWriter *report.IndexWriter
	flowWriter  *report.FlowWriter
	result      *core.FlowResult
	flowIdx     int // Current flow index (0-based)
	totalFlows  int // Total number of flows
}

// Run executes the flow and returns the result. The first failing
// non-optional step ends the flow; the steps after it are skipped.
func (fr *FlowRunner) Run() FlowResult {
	flowStart := time.Now()

	fr.flowWriter = report.NewFlowWriter(fr.detail, fr.config.OutputDir, fr.indexWriter)
	fr.result = &core.FlowResult{
		Name:        fr.detail.Name,
		FilePath:    fr.flow.SourcePath,
		Tags:        fr.flow.Config.Tags,
		BrowserInfo: fr.driver.GetBrowserInfo(),
		StartTime:   flowStart,
	}

	flowName := fr.detail.Name
	flowFile := filepath.Base(fr.flow.SourcePath)
	if fr.config.OnFlowStart != nil {
		fr.config.OnFlowStart(fr.flowIdx, fr.totalFlows, flowName, flowFile)
	}
	logger.Info("flow %s: started (%d steps)", flowName, len(fr.flow.Steps))

	fr.flowWriter.Start()

	flowStatus := report.StatusPassed
	var flowError, flowCode string

	for i, step := range fr.flow.Steps {
		if fr.ctx.Err() != nil {
			fr.skipFrom(i)
			flowStatus = report.StatusSkipped
			flowError = "execution cancelled"
			break
		}

		sr := fr.executeStep(i, step)
		fr.result.Steps = append(fr.result.Steps, sr)

		if fr.config.OnStepComplete != nil {
			fr.config.OnStepComplete(i, step, &fr.result.Steps[len(fr.result.Steps)-1])
		}

		if sr.Status == core.StatusFailed || sr.Status == core.StatusErrored {
			fr.skipFrom(i + 1)
			flowStatus = report.StatusFailed
			flowError = sr.Error
			flowCode = sr.Code
			break
		}
	}

	fr.flowWriter.End(flowStatus)

	fr.result.Duration = time.Since(flowStart)
	fr.result.ComputeSummary()
	fr.result.Status = fr.result.AggregateStatus()
	if flowStatus == report.StatusSkipped {
		fr.result.Status = core.StatusSkipped
	}
	fr.result.Error = flowError
	fr.result.Code = flowCode

	flowDuration := elapsedMs(flowStart)
	if flowStatus == report.StatusFailed {
		logger.Error("flow %s: failed after %dms: %s", flowName, flowDuration, flowError)
	} else {
		logger.Info("flow %s: %s in %dms", flowName, flowStatus, flowDuration)
	}

	if fr.config.OnFlowEnd != nil {
		fr.config.OnFlowEnd(flowName, flowStatus == report.StatusPassed, flowDuration)
	}

	return FlowResult{
		ID:           fr.detail.ID,
		Name:         fr.detail.Name,
		Status:       flowStatus,
		Duration:     flowDuration,
		Error:        flowError,
		Code:         flowCode,
		StepsTotal:   fr.result.TotalSteps,
		StepsPassed:  fr.result.PassedSteps + fr.result.WarnedSteps,
		StepsFailed:  fr.result.FailedSteps,
		StepsSkipped: fr.result.SkippedSteps,
		Detail:       fr.result,
	}
}

// skipFrom records every step from index from onward as skipped.
func (fr *FlowRunner) skipFrom(from int) {
	for j := from; j < len(fr.flow.Steps); j++ {
		step := fr.flow.Steps[j]
		fr.result.Steps = append(fr.result.Steps, core.StepResult{
			Step:    step,
			Index:   j,
			Command: string(step.Type()),
			Status:  core.StatusSkipped,
		})
	}
	fr.flowWriter.SkipRemainingCommands(from)
}

// executeStep executes a single step and updates the report.
func (fr *FlowRunner) executeStep(idx int, step flow.Step) core.StepResult {
	stepStart := time.Now()

	fr.flowWriter.CommandStart(idx)
	if fr.config.OnStepStart != nil {
		fr.config.OnStepStart(idx, step)
	}
	logger.Debug("step %d: %s", idx, step.Describe())

	var result *core.CommandResult
	var attachment *core.Attachment
	executedBy := core.ExecutedByDriver

	switch s := step.(type) {
	// Runner-side steps
	case *flow.WaitStep:
		executedBy = core.ExecutedByRunner
		result = fr.executeWait(s)
	case *flow.TakeScreenshotStep:
		executedBy = core.ExecutedByRunner
		result, attachment = fr.executeScreenshot(s)

	// All other steps - delegate to driver
	default:
		restore := fr.applyFlowTimeout(step)
		result = fr.driver.Execute(step)
		restore()
	}

	sr := core.StepResult{
		Step:       step,
		Index:      idx,
		Command:    string(step.Type()),
		ExecutedBy: executedBy,
		StartTime:  stepStart,
		Duration:   time.Since(stepStart),
		Message:    result.Message,
		Element:    result.Element,
		Data:       result.Data,
	}

	var artifacts report.CommandArtifacts
	if attachment != nil {
		sr.Attachments = append(sr.Attachments, *attachment)
		artifacts.Screenshot = attachment.Path
	}

	if result.Success {
		sr.Status = core.StatusPassed
	} else {
		sr.Status = core.StatusFailed
		sr.Category = core.CategoryOf(result.Error)
		sr.Code = core.CodeOf(result.Error)
		sr.Error = errorMessage(result)
		if sr.Category == core.ErrCategoryConnection {
			sr.Status = core.StatusErrored
		}

		if step.IsOptional() {
			sr.Status = core.StatusWarned
			logger.Warn("step %d (%s) failed but is optional: %s", idx, step.Describe(), sr.Error)
		} else {
			logger.Error("step %d (%s) failed: %s", idx, step.Describe(), sr.Error)
			artifacts.FailureScreenshot = fr.captureFailure(idx)
		}
	}

	status := stepStatusToReport(sr.Status)
	if sr.Status == core.StatusWarned {
		status = report.StatusFailed
	}
	fr.flowWriter.CommandEnd(idx, status, commandResultToElement(result), commandResultToError(result), artifacts)

	return sr
}

// executeWait performs a fixed settle wait.
// applyFlowTimeout gives a step without its own timeout the flow default
// for the duration of one driver call.
func (fr *FlowRunner) applyFlowTimeout(step flow.Step) func() {
	b := flow.BaseOf(step)
	if b == nil || b.TimeoutMs > 0 {
		return func() {}
	}
	ms := fr.flow.Config.StepTimeout(step)
	if ms <= 0 {
		return func() {}
	}
	b.TimeoutMs = ms
	return func() { b.TimeoutMs = 0 }
}

func (fr *FlowRunner) executeWait(step *flow.WaitStep) *core.CommandResult {
	start := time.Now()
	d := time.Duration(step.Ms) * time.Millisecond

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return core.Succeeded(start, fmt.Sprintf("Waited %dms", step.Ms))
	case <-fr.ctx.Done():
		return core.Failed(start, fr.ctx.Err(), "wait cancelled")
	}
}

// executeScreenshot captures the page and writes it to the step's path.
func (fr *FlowRunner) executeScreenshot(step *flow.TakeScreenshotStep) (*core.CommandResult, *core.Attachment) {
	start := time.Now()

	if step.Path == "" {
		return core.Failed(start, core.ErrMissingRequired.WithMessage("takeScreenshot: path is required"), ""), nil
	}

	data, err := fr.driver.Screenshot(step.FullPage)
	if err != nil {
		return core.Failed(start, core.ErrScreenshot.WithCause(err), ""), nil
	}

	path := fr.resolvePath(step.Path)
	if err := writeFile(path, data); err != nil {
		return core.Failed(start, core.ErrScreenshot.WithMessagef("write %s", step.Path).WithCause(err), ""), nil
	}

	att := core.NewScreenshotAttachment(step.Path, step.Label(), nil)
	r := core.Succeeded(start, "Saved screenshot "+step.Path)
	r.Data = step.Path
	return r, &att
}

// captureFailure takes one best-effort screenshot after a failed step. It
// is written to the flow's onFailure path and, when a report directory is
// set, into the flow's assets. Returns the report-relative asset path.
func (fr *FlowRunner) captureFailure(cmdIdx int) string {
	cfg := fr.flow.Config.OnFailure
	if cfg.Screenshot == "" && fr.config.OutputDir == "" {
		return ""
	}

	data, err := fr.driver.Screenshot(cfg.FullPage)
	if err != nil || len(data) == 0 {
		logger.Warn("failure screenshot: %v", err)
		return ""
	}

	if cfg.Screenshot != "" {
		if err := writeFile(fr.resolvePath(cfg.Screenshot), data); err != nil {
			logger.Warn("write failure screenshot %s: %v", cfg.Screenshot, err)
		} else {
			fr.result.OnFailure = append(fr.result.OnFailure, core.NewErrorScreenshotAttachment(cfg.Screenshot, nil))
			fr.flowWriter.SetErrorScreenshot(cfg.Screenshot)
		}
	}

	path, err := fr.flowWriter.SaveScreenshot(cmdIdx, "failure", data)
	if err != nil {
		logger.Warn("save failure screenshot: %v", err)
		return ""
	}
	return path
}

// resolvePath resolves a relative artifact path against WorkDir.
func (fr *FlowRunner) resolvePath(p string) string {
	if fr.config.WorkDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(fr.config.WorkDir, p)
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// errorMessage picks the most specific message of a failed result.
func errorMessage(r *core.CommandResult) string {
	if r.Error != nil {
		return r.Error.Error()
	}
	if r.Message != "" {
		return r.Message
	}
	return "step failed"
}
