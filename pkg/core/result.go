package core

import (
	"time"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

// ExecutedBy indicates what component executed a step
type ExecutedBy string

// ExecutedBy values
const (
	ExecutedByDriver ExecutedBy = "driver" // Executed by the Driver (Playwright, Rod, ...)
	ExecutedByRunner ExecutedBy = "runner" // Executed by the Runner (wait, takeScreenshot)
)

// StepResult captures the complete outcome of executing a single step
type StepResult struct {
	// Identity
	Step    flow.Step `json:"-"`       // Reference to the step definition
	Index   int       `json:"index"`   // 0-based position in flow
	Command string    `json:"command"` // Command type: click, assertTitle, etc.

	// Execution context
	ExecutedBy ExecutedBy `json:"executedBy"`

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Output
	Message string       `json:"message,omitempty"`
	Element *ElementInfo `json:"element,omitempty"`
	Data    interface{}  `json:"data,omitempty"`

	// Error Details
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`

	// Artifacts written by this step
	Attachments []Attachment `json:"attachments,omitempty"`
}

// FlowResult captures the complete outcome of executing a flow
type FlowResult struct {
	// Identity
	Name     string   `json:"name"`
	FilePath string   `json:"filePath"`
	Tags     []string `json:"tags,omitempty"`

	// Browser info (captured once per flow)
	BrowserInfo *BrowserInfo `json:"browserInfo,omitempty"`

	// Status (aggregated from steps)
	Status StepStatus `json:"status"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Steps []StepResult `json:"steps"`

	// Diagnostic capture after a failure
	OnFailure []Attachment `json:"onFailure,omitempty"`

	// Summary (computed)
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`

	// Error info (if flow failed)
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice
func (f *FlowResult) ComputeSummary() {
	f.TotalSteps = len(f.Steps)
	f.PassedSteps = 0
	f.FailedSteps = 0
	f.SkippedSteps = 0
	f.WarnedSteps = 0

	for _, step := range f.Steps {
		switch step.Status {
		case StatusPassed:
			f.PassedSteps++
		case StatusFailed, StatusErrored:
			f.FailedSteps++
		case StatusSkipped:
			f.SkippedSteps++
		case StatusWarned:
			f.WarnedSteps++
		}
	}
}

// hasFailure checks if any step in the slice has failed or errored
func hasFailure(steps []StepResult) bool {
	for _, step := range steps {
		if step.Status == StatusFailed || step.Status == StatusErrored {
			return true
		}
	}
	return false
}

// hasWarning checks if any step in the slice has warned status
func hasWarning(steps []StepResult) bool {
	for _, step := range steps {
		if step.Status == StatusWarned {
			return true
		}
	}
	return false
}

// AggregateStatus determines the flow status from step results
// Rules:
// - Any failed/errored step → StatusFailed
// - All passed (with optional warned) → StatusWarned or StatusPassed
func (f *FlowResult) AggregateStatus() StepStatus {
	if hasFailure(f.Steps) {
		return StatusFailed
	}
	if hasWarning(f.Steps) {
		return StatusWarned
	}
	return StatusPassed
}

// Screenshots returns every screenshot attachment of the flow in capture
// order, including the failure capture.
func (f *FlowResult) Screenshots() []Attachment {
	var out []Attachment
	for _, step := range f.Steps {
		for _, a := range step.Attachments {
			if a.ContentType == ContentTypePNG {
				out = append(out, a)
			}
		}
	}
	return append(out, f.OnFailure...)
}
