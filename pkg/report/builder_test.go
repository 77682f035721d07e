package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

func testFlows() []flow.Flow {
	one := 1
	return []flow.Flow{
		{
			SourcePath: "flows/explorer.yaml",
			Config:     flow.Config{Name: "Collection Explorer", URL: "http://localhost:4321", Tags: []string{"smoke"}},
			Steps: []flow.Step{
				&flow.NavigateStep{BaseStep: flow.BaseStep{StepType: flow.StepNavigate, TimeoutMs: 120000}, URL: "http://localhost:4321"},
				&flow.FillStep{BaseStep: flow.BaseStep{StepType: flow.StepFill}, Selector: flow.Selector{Label: "Search Description"}, Text: "agent"},
				&flow.ClickStep{BaseStep: flow.BaseStep{StepType: flow.StepClick, StepLabel: "reset"}, Selector: flow.Selector{Role: "button", Name: "Reset Filters"}},
			},
		},
		{
			SourcePath: "flows/compare.yaml",
			Steps: []flow.Step{
				&flow.CheckStep{BaseStep: flow.BaseStep{StepType: flow.StepCheck}, Selector: flow.Selector{CSS: ".compare-checkbox", Index: &one}},
				&flow.WaitStep{BaseStep: flow.BaseStep{StepType: flow.StepWait}, Ms: 1000},
				&flow.TakeScreenshotStep{BaseStep: flow.BaseStep{StepType: flow.StepTakeScreenshot}, Path: "out.png"},
			},
		},
	}
}

func TestBuildSkeleton(t *testing.T) {
	index, details, err := BuildSkeleton(testFlows(), BuilderConfig{RunnerVersion: "0.1.0", DriverName: "mock"})
	if err != nil {
		t.Fatalf("BuildSkeleton() error = %v", err)
	}

	if _, err := uuid.Parse(index.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", index.RunID, err)
	}
	if index.Status != StatusPending || index.Summary.Pending != 2 || index.Summary.Total != 2 {
		t.Errorf("index = %+v", index.Summary)
	}
	if index.Runner.Driver != "mock" {
		t.Errorf("Runner.Driver = %q", index.Runner.Driver)
	}

	if len(details) != 2 {
		t.Fatalf("got %d details, want 2", len(details))
	}
	if details[0].ID != "flow-000" || details[1].ID != "flow-001" {
		t.Errorf("ids = %s, %s", details[0].ID, details[1].ID)
	}
	if details[0].Name != "Collection Explorer" {
		t.Errorf("Name = %q", details[0].Name)
	}
	if details[1].Name != "compare" {
		t.Errorf("Name from file = %q, want compare", details[1].Name)
	}
	if details[0].URL != "http://localhost:4321" {
		t.Errorf("URL = %q", details[0].URL)
	}
	if index.Flows[1].DataFile != filepath.Join("flows", "flow-001.json") {
		t.Errorf("DataFile = %q", index.Flows[1].DataFile)
	}
	if index.Flows[0].Commands.Total != 3 || index.Flows[0].Commands.Pending != 3 {
		t.Errorf("Commands = %+v", index.Flows[0].Commands)
	}

	cmd := details[0].Commands[2]
	if cmd.ID != "cmd-002" || cmd.Type != "click" || cmd.Label != "reset" {
		t.Errorf("command = %+v", cmd)
	}
	if cmd.YAML != `click role button name "Reset Filters"` {
		t.Errorf("YAML = %q", cmd.YAML)
	}
}

func TestExtractParams(t *testing.T) {
	_, details, err := BuildSkeleton(testFlows(), BuilderConfig{})
	if err != nil {
		t.Fatal(err)
	}

	nav := details[0].Commands[0].Params
	if nav == nil || nav.URL != "http://localhost:4321" || nav.Timeout != 120000 {
		t.Errorf("navigate params = %+v", nav)
	}

	fill := details[0].Commands[1].Params
	if fill == nil || fill.Text != "agent" || fill.Selector == nil {
		t.Fatalf("fill params = %+v", fill)
	}
	if fill.Selector.Type != "label" || fill.Selector.Value != "Search Description" {
		t.Errorf("fill selector = %+v", fill.Selector)
	}

	click := details[0].Commands[2].Params
	if click.Selector.Type != "role" || click.Selector.Name != "Reset Filters" {
		t.Errorf("click selector = %+v", click.Selector)
	}

	check := details[1].Commands[0].Params
	if check.Selector.Index == nil || *check.Selector.Index != 1 {
		t.Errorf("check selector index = %v", check.Selector.Index)
	}

	if p := details[1].Commands[1].Params; p != nil {
		t.Errorf("wait params = %+v, want nil", p)
	}

	if p := details[1].Commands[2].Params; p == nil || p.Path != "out.png" {
		t.Errorf("takeScreenshot params = %+v", p)
	}
}

func TestWriteSkeleton(t *testing.T) {
	dir := t.TempDir()
	index, details, err := BuildSkeleton(testFlows(), BuilderConfig{OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	if err := WriteSkeleton(dir, index, details); err != nil {
		t.Fatalf("WriteSkeleton() error = %v", err)
	}

	got, err := ReadIndex(dir)
	if err != nil {
		t.Fatalf("ReadIndex() error = %v", err)
	}
	if got.RunID != index.RunID || len(got.Flows) != 2 {
		t.Errorf("index = %+v", got)
	}

	fd, err := ReadFlow(dir, got.Flows[0])
	if err != nil {
		t.Fatalf("ReadFlow() error = %v", err)
	}
	if len(fd.Commands) != 3 || fd.Commands[0].Status != StatusPending {
		t.Errorf("flow detail = %+v", fd)
	}

	if _, err := os.Stat(filepath.Join(dir, "assets", "flow-001")); err != nil {
		t.Errorf("assets dir missing: %v", err)
	}
}

func TestWriteSkeleton_NoOutputDir(t *testing.T) {
	index, details, _ := BuildSkeleton(testFlows(), BuilderConfig{})
	if err := WriteSkeleton("", index, details); err != nil {
		t.Errorf("WriteSkeleton(\"\") error = %v", err)
	}
}

func TestAtomicWriteJSON_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	if err := atomicWriteJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("atomicWriteJSON() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "report.json" {
		t.Errorf("dir entries = %v", entries)
	}
}

func TestReadIndex_Missing(t *testing.T) {
	if _, err := ReadIndex(t.TempDir()); err == nil {
		t.Error("expected error for missing report.json")
	}
}
