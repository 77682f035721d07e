package core

import (
	"testing"
)

func TestFlowResult_ComputeSummary(t *testing.T) {
	flow := &FlowResult{
		Name: "test-flow",
		Steps: []StepResult{
			{Index: 0, Status: StatusPassed},
			{Index: 1, Status: StatusPassed},
			{Index: 2, Status: StatusFailed},
			{Index: 3, Status: StatusSkipped},
			{Index: 4, Status: StatusWarned},
			{Index: 5, Status: StatusErrored},
		},
	}

	flow.ComputeSummary()

	if flow.TotalSteps != 6 {
		t.Errorf("TotalSteps = %d, want 6", flow.TotalSteps)
	}
	if flow.PassedSteps != 2 {
		t.Errorf("PassedSteps = %d, want 2", flow.PassedSteps)
	}
	if flow.FailedSteps != 2 { // Failed + Errored
		t.Errorf("FailedSteps = %d, want 2", flow.FailedSteps)
	}
	if flow.SkippedSteps != 1 {
		t.Errorf("SkippedSteps = %d, want 1", flow.SkippedSteps)
	}
	if flow.WarnedSteps != 1 {
		t.Errorf("WarnedSteps = %d, want 1", flow.WarnedSteps)
	}
}

func TestFlowResult_ComputeSummary_Empty(t *testing.T) {
	flow := &FlowResult{Name: "empty-flow"}
	flow.ComputeSummary()

	if flow.TotalSteps != 0 {
		t.Errorf("TotalSteps = %d, want 0", flow.TotalSteps)
	}
}

func TestFlowResult_AggregateStatus(t *testing.T) {
	tests := []struct {
		name  string
		steps []StepStatus
		want  StepStatus
	}{
		{"all passed", []StepStatus{StatusPassed, StatusPassed}, StatusPassed},
		{"with warned", []StepStatus{StatusPassed, StatusWarned}, StatusWarned},
		{"with failed", []StepStatus{StatusPassed, StatusFailed, StatusSkipped}, StatusFailed},
		{"with errored", []StepStatus{StatusErrored}, StatusFailed},
		{"empty", nil, StatusPassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &FlowResult{}
			for i, s := range tt.steps {
				f.Steps = append(f.Steps, StepResult{Index: i, Status: s})
			}
			if got := f.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFlowResult_Screenshots(t *testing.T) {
	f := &FlowResult{
		Steps: []StepResult{
			{Index: 0, Attachments: []Attachment{NewScreenshotAttachment("01.png", "initial load", nil)}},
			{Index: 1},
			{Index: 2, Attachments: []Attachment{
				{Name: "log", ContentType: ContentTypeText, Path: "x.log"},
				NewScreenshotAttachment("02.png", "", nil),
			}},
		},
		OnFailure: []Attachment{NewErrorScreenshotAttachment("error.png", nil)},
	}

	got := f.Screenshots()
	want := []string{"01.png", "02.png", "error.png"}
	if len(got) != len(want) {
		t.Fatalf("got %d screenshots, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Path != want[i] {
			t.Errorf("screenshot %d = %s, want %s", i, got[i].Path, want[i])
		}
	}
}

func TestExecutedByConstants(t *testing.T) {
	if ExecutedByDriver != "driver" {
		t.Errorf("ExecutedByDriver = %s, want driver", ExecutedByDriver)
	}
	if ExecutedByRunner != "runner" {
		t.Errorf("ExecutedByRunner = %s, want runner", ExecutedByRunner)
	}
}
