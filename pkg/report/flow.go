package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// FlowWriter writes updates for a single flow.
// Flows run one at a time, each with its own FlowWriter - no locking needed.
type FlowWriter struct {
	flow      *FlowDetail
	outputDir string
	path      string
	assetsDir string
	index     *IndexWriter
}

// NewFlowWriter creates a new FlowWriter for a flow.
func NewFlowWriter(flowDetail *FlowDetail, outputDir string, index *IndexWriter) *FlowWriter {
	w := &FlowWriter{
		flow:      flowDetail,
		outputDir: outputDir,
		index:     index,
	}
	if outputDir != "" {
		w.path = filepath.Join(outputDir, "flows", flowDetail.ID+".json")
		w.assetsDir = filepath.Join(outputDir, "assets", flowDetail.ID)
		if err := ensureDir(w.assetsDir); err != nil {
			logger.Warn("create assets dir %s: %v", w.assetsDir, err)
		}
	}
	return w
}

// Start marks the flow as started.
func (w *FlowWriter) Start() {
	now := time.Now()
	w.flow.StartTime = now

	w.flush()
	w.updateIndex(StatusRunning, &now, nil, nil, nil)
}

// CommandStart marks a command as started.
func (w *FlowWriter) CommandStart(cmdIndex int) {
	if cmdIndex < 0 || cmdIndex >= len(w.flow.Commands) {
		return
	}

	now := time.Now()
	cmd := &w.flow.Commands[cmdIndex]
	cmd.Status = StatusRunning
	cmd.StartTime = &now

	w.flush()
	w.updateIndexProgress()
}

// CommandEnd marks a command as complete.
func (w *FlowWriter) CommandEnd(cmdIndex int, status Status, element *Element, err *Error, artifacts CommandArtifacts) {
	if cmdIndex < 0 || cmdIndex >= len(w.flow.Commands) {
		return
	}

	now := time.Now()
	cmd := &w.flow.Commands[cmdIndex]
	cmd.Status = status
	cmd.EndTime = &now

	if cmd.StartTime != nil {
		duration := now.Sub(*cmd.StartTime).Milliseconds()
		cmd.Duration = &duration
	}

	cmd.Element = element
	cmd.Error = err
	cmd.Artifacts = artifacts

	if artifacts.Screenshot != "" {
		w.flow.Artifacts.Screenshots = append(w.flow.Artifacts.Screenshots, artifacts.Screenshot)
	}
	if artifacts.FailureScreenshot != "" && w.flow.Artifacts.ErrorScreenshot == "" {
		w.flow.Artifacts.ErrorScreenshot = artifacts.FailureScreenshot
	}

	w.flush()
	w.updateIndexProgress()
}

// Fail records a flow-level error that is not tied to a command, such as
// a failed preflight or browser launch.
func (w *FlowWriter) Fail(msg string) {
	w.flow.Error = msg
	w.flush()
}

// End marks the flow as complete.
func (w *FlowWriter) End(status Status) {
	now := time.Now()
	w.flow.EndTime = &now

	var duration int64
	if !w.flow.StartTime.IsZero() {
		duration = now.Sub(w.flow.StartTime).Milliseconds()
		w.flow.Duration = &duration
	}

	w.flush()

	var errMsg *string
	if status == StatusFailed {
		if w.flow.Error != "" {
			msg := w.flow.Error
			errMsg = &msg
		} else {
			// The last failed command is the one that stopped the flow;
			// earlier ones were optional.
			for _, cmd := range w.flow.Commands {
				if cmd.Error != nil && cmd.Status == StatusFailed {
					msg := cmd.Error.Message
					errMsg = &msg
				}
			}
		}
	}

	w.updateIndex(status, nil, &now, &duration, errMsg)
}

// SetErrorScreenshot records a failure screenshot written outside the
// assets directory.
func (w *FlowWriter) SetErrorScreenshot(path string) {
	w.flow.Artifacts.ErrorScreenshot = path
	w.flush()
}

// SaveScreenshot saves a screenshot into the flow's assets directory and
// returns the path relative to the report root. Without an output
// directory nothing is written and the path is empty.
func (w *FlowWriter) SaveScreenshot(cmdIndex int, timing string, data []byte) (string, error) {
	if w.outputDir == "" {
		return "", nil
	}

	filename := fmt.Sprintf("cmd-%03d-%s.png", cmdIndex, timing)
	absPath := filepath.Join(w.assetsDir, filename)

	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return "", err
	}

	// Return relative path for JSON
	return filepath.Join("assets", w.flow.ID, filename), nil
}

// GetFlowDetail returns the current flow detail (for reading).
func (w *FlowWriter) GetFlowDetail() *FlowDetail {
	return w.flow
}

// flush writes the flow detail to disk.
func (w *FlowWriter) flush() {
	if w.path == "" {
		return
	}
	if err := atomicWriteJSON(w.path, w.flow); err != nil {
		logger.Warn("write flow report %s: %v", w.flow.ID, err)
	}
}

// updateIndex updates the index with current flow state.
func (w *FlowWriter) updateIndex(status Status, startTime, endTime *time.Time, duration *int64, errMsg *string) {
	w.index.UpdateFlow(w.flow.ID, &FlowUpdate{
		Status:    status,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Commands:  w.commandSummary(),
		Error:     errMsg,
	})
}

// updateIndexProgress updates the index with progress only.
func (w *FlowWriter) updateIndexProgress() {
	w.index.UpdateFlow(w.flow.ID, &FlowUpdate{
		Status:   StatusRunning,
		Commands: w.commandSummary(),
	})
}

// commandSummary computes command summary.
func (w *FlowWriter) commandSummary() CommandSummary {
	var s CommandSummary
	s.Total = len(w.flow.Commands)

	for i, cmd := range w.flow.Commands {
		switch cmd.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
			idx := i
			s.Current = &idx
		case StatusPending:
			s.Pending++
		}
	}

	return s
}

// SkipRemainingCommands marks all pending commands as skipped.
// Called when a command fails and we need to skip the rest.
func (w *FlowWriter) SkipRemainingCommands(fromIndex int) {
	for i := fromIndex; i < len(w.flow.Commands); i++ {
		if w.flow.Commands[i].Status == StatusPending {
			w.flow.Commands[i].Status = StatusSkipped
		}
	}
	w.flush()
}
