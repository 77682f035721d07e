package report

import (
	"fmt"
	"testing"
	"time"
)

func newTestIndex(n int) *Index {
	idx := &Index{Version: Version, Status: StatusPending}
	for i := 0; i < n; i++ {
		idx.Flows = append(idx.Flows, FlowEntry{ID: fmt.Sprintf("flow-%03d", i), Status: StatusPending})
	}
	return idx
}

func TestIndexWriter_RunLifecycle(t *testing.T) {
	dir := t.TempDir()
	iw := NewIndexWriter(dir, newTestIndex(2))
	defer iw.Close()

	iw.Start()
	if iw.GetIndex().Status != StatusRunning {
		t.Errorf("Status = %q, want running", iw.GetIndex().Status)
	}

	iw.UpdateFlow("flow-000", &FlowUpdate{Status: StatusPassed})
	iw.UpdateFlow("flow-001", &FlowUpdate{Status: StatusFailed})
	iw.End()

	got, err := ReadIndex(dir)
	if err != nil {
		t.Fatalf("ReadIndex() error = %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("run Status = %q, want failed", got.Status)
	}
	if got.Summary.Passed != 1 || got.Summary.Failed != 1 {
		t.Errorf("Summary = %+v", got.Summary)
	}
	if got.EndTime == nil {
		t.Error("EndTime not set")
	}
}

func TestIndexWriter_DebouncedProgressKeepsStartTime(t *testing.T) {
	iw := NewIndexWriter("", newTestIndex(1))
	defer iw.Close()

	now := time.Now()
	iw.UpdateFlow("flow-000", &FlowUpdate{Status: StatusRunning, StartTime: &now})
	iw.UpdateFlow("flow-000", &FlowUpdate{Status: StatusRunning, Commands: CommandSummary{Total: 3, Running: 1}})

	f := iw.GetIndex().Flows[0]
	if f.StartTime == nil || !f.StartTime.Equal(now) {
		t.Errorf("StartTime = %v, want %v", f.StartTime, now)
	}
	if f.Commands.Running != 1 {
		t.Errorf("Commands = %+v", f.Commands)
	}
}

func TestIndexWriter_RunningWhenIncomplete(t *testing.T) {
	iw := NewIndexWriter("", newTestIndex(2))
	defer iw.Close()

	iw.UpdateFlow("flow-000", &FlowUpdate{Status: StatusPassed})
	iw.End()
	if iw.GetIndex().Status != StatusRunning {
		t.Errorf("Status = %q, want running while a flow is pending", iw.GetIndex().Status)
	}
}

func TestIndexWriter_SetBrowserOnce(t *testing.T) {
	iw := NewIndexWriter("", newTestIndex(1))
	defer iw.Close()

	iw.SetBrowser(Browser{Driver: "playwright", Name: "chromium"})
	iw.SetBrowser(Browser{Driver: "rod"})
	if b := iw.GetIndex().Browser; b == nil || b.Driver != "playwright" {
		t.Errorf("Browser = %+v", b)
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := map[Status]bool{
		StatusPending: false,
		StatusRunning: false,
		StatusPassed:  true,
		StatusFailed:  true,
		StatusSkipped: true,
	}
	for s, want := range tests {
		if s.IsTerminal() != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, s.IsTerminal(), want)
		}
	}
}
