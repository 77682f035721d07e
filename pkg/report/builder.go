package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

// BuilderConfig contains configuration for building the report skeleton.
type BuilderConfig struct {
	OutputDir     string // Base output directory for reports
	RunnerVersion string // verify-runner version
	DriverName    string // Driver name (playwright, rod, mock)
}

// BuildSkeleton creates the initial report structure from parsed flows.
// All flows and commands are set to "pending" status.
// This should be called after YAML validation, before execution starts.
func BuildSkeleton(flows []flow.Flow, cfg BuilderConfig) (*Index, []FlowDetail, error) {
	now := time.Now()

	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, nil, fmt.Errorf("generate run id: %w", err)
	}

	index := &Index{
		Version:     Version,
		RunID:       runID.String(),
		UpdateSeq:   0,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Runner: RunnerInfo{
			Version: cfg.RunnerVersion,
			Driver:  cfg.DriverName,
		},
		Summary: Summary{
			Total:   len(flows),
			Pending: len(flows),
		},
		Flows: make([]FlowEntry, len(flows)),
	}

	flowDetails := make([]FlowDetail, len(flows))

	for i, f := range flows {
		flowID := fmt.Sprintf("flow-%03d", i)
		flowName := FlowName(f)

		commands := buildCommands(f.Steps)

		index.Flows[i] = FlowEntry{
			Index:      i,
			ID:         flowID,
			Name:       flowName,
			SourceFile: f.SourcePath,
			DataFile:   filepath.Join("flows", flowID+".json"),
			AssetsDir:  filepath.Join("assets", flowID),
			Status:     StatusPending,
			Commands: CommandSummary{
				Total:   len(commands),
				Pending: len(commands),
			},
		}

		flowDetails[i] = FlowDetail{
			ID:         flowID,
			Name:       flowName,
			SourceFile: f.SourcePath,
			URL:        f.Config.URL,
			Tags:       f.Config.Tags,
			Commands:   commands,
		}
	}

	return index, flowDetails, nil
}

// FlowName returns the display name of a flow: its configured name or the
// file name without extension.
func FlowName(f flow.Flow) string {
	if f.Config.Name != "" {
		return f.Config.Name
	}
	base := filepath.Base(f.SourcePath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// buildCommands creates Command entries from flow steps.
func buildCommands(steps []flow.Step) []Command {
	commands := make([]Command, len(steps))
	for i, step := range steps {
		commands[i] = Command{
			ID:     fmt.Sprintf("cmd-%03d", i),
			Index:  i,
			Type:   string(step.Type()),
			Label:  step.Label(),
			YAML:   step.Describe(),
			Status: StatusPending,
			Params: extractParams(step),
		}
	}
	return commands
}

// extractParams extracts command parameters from a step.
func extractParams(step flow.Step) *CommandParams {
	params := &CommandParams{}
	hasContent := false

	if sel := convertSelector(flow.SelectorOf(step)); sel != nil {
		params.Selector = sel
		hasContent = true
	}

	switch s := step.(type) {
	case *flow.FillStep:
		params.Text = s.Text
		hasContent = true
	case *flow.NavigateStep:
		params.URL = s.URL
		hasContent = true
	case *flow.AssertTitleStep:
		params.Title = s.Title
		hasContent = true
	case *flow.WaitUntilStep:
		if s.Title != "" {
			params.Title = s.Title
			hasContent = true
		}
	case *flow.TakeScreenshotStep:
		params.Path = s.Path
		hasContent = true
	}

	if base := flow.BaseOf(step); base != nil && base.TimeoutMs > 0 {
		params.Timeout = base.TimeoutMs
		hasContent = true
	}

	if !hasContent {
		return nil
	}
	return params
}

// convertSelector converts flow.Selector to report.Selector.
func convertSelector(sel *flow.Selector) *Selector {
	if sel == nil || sel.IsEmpty() {
		return nil
	}
	out := &Selector{
		Type:  sel.Kind(),
		Value: sel.Value(),
		Index: sel.Index,
	}
	if sel.Kind() == "role" {
		out.Name = sel.Name
	}
	return out
}

// WriteSkeleton writes the initial skeleton to disk.
// Creates report.json and all flow detail files with pending status.
func WriteSkeleton(outputDir string, index *Index, flowDetails []FlowDetail) error {
	if outputDir == "" {
		return nil
	}

	if err := ensureDir(filepath.Join(outputDir, "flows")); err != nil {
		return fmt.Errorf("create flows dir: %w", err)
	}
	if err := ensureDir(filepath.Join(outputDir, "assets")); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	for _, fd := range flowDetails {
		flowPath := filepath.Join(outputDir, "flows", fd.ID+".json")
		if err := atomicWriteJSON(flowPath, fd); err != nil {
			return fmt.Errorf("write flow %s: %w", fd.ID, err)
		}

		assetsPath := filepath.Join(outputDir, "assets", fd.ID)
		if err := ensureDir(assetsPath); err != nil {
			return fmt.Errorf("create assets dir for %s: %w", fd.ID, err)
		}
	}

	indexPath := filepath.Join(outputDir, "report.json")
	if err := atomicWriteJSON(indexPath, index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	return nil
}
