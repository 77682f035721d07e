//go:build e2e

package playwright

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/verify-runner/pkg/driver/webtest"
	"github.com/devicelab-dev/verify-runner/pkg/executor"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/flows"
	"github.com/devicelab-dev/verify-runner/pkg/report"
)

func runBuiltin(t *testing.T, name, origin string, checkboxes int) (executor.FlowResult, string) {
	t.Helper()
	site := webtest.NewSite(checkboxes)
	t.Cleanup(site.Close)

	f := flows.MustLoad(name)
	site.Rebase(f, origin)
	for _, step := range f.Steps {
		if w, ok := step.(*flow.WaitStep); ok {
			w.Ms = 100
		}
	}

	work := t.TempDir()
	launch := Launcher(Options{Headless: true, InstallBrowsers: os.Getenv("VERIFY_INSTALL") != ""})
	result, err := executor.New(launch, executor.RunnerConfig{WorkDir: work, DriverName: "playwright"}).
		Run(context.Background(), []flow.Flow{*f})
	require.NoError(t, err)
	return result.FlowResults[0], work
}

func TestE2E_CollectionExplorer(t *testing.T) {
	fr, work := runBuiltin(t, flows.CollectionExplorer, webtest.ExplorerOrigin, 2)

	require.Equal(t, report.StatusPassed, fr.Status, fr.Error)
	for _, name := range []string{"01_initial_load.png", "02_search_results.png", "03_after_reset.png"} {
		assert.FileExists(t, filepath.Join(work, "jules-scratch/verification", name))
	}
	assert.NoFileExists(t, filepath.Join(work, "jules-scratch/verification/error.png"))
}

func TestE2E_CompareFeature(t *testing.T) {
	fr, work := runBuiltin(t, flows.CompareFeature, webtest.CompareOrigin, 3)

	require.Equal(t, report.StatusPassed, fr.Status, fr.Error)
	assert.FileExists(t, filepath.Join(work, "jules-scratch/verification/verification.png"))
}

func TestE2E_CompareFeature_OneCheckbox(t *testing.T) {
	fr, _ := runBuiltin(t, flows.CompareFeature, webtest.CompareOrigin, 1)

	assert.Equal(t, report.StatusFailed, fr.Status)
	assert.Equal(t, "index_out_of_range", fr.Code)
}

// The second checkbox is attached after the page loads; check waits for
// the indexed match instead of failing on the first one.
func TestE2E_CheckWaitsForIndexedElement(t *testing.T) {
	site := webtest.NewSite(0)
	t.Cleanup(site.Close)

	second := 1
	f := flow.Flow{
		Config: flow.Config{Name: "late-checkbox", URL: site.URL() + webtest.LatePath, Timeout: 5000},
		Steps: []flow.Step{
			&flow.NavigateStep{BaseStep: flow.BaseStep{StepType: flow.StepNavigate}, URL: site.URL() + webtest.LatePath},
			&flow.CheckStep{
				BaseStep: flow.BaseStep{StepType: flow.StepCheck},
				Selector: flow.Selector{CSS: ".compare-checkbox", Index: &second},
			},
		},
	}

	launch := Launcher(Options{Headless: true, InstallBrowsers: os.Getenv("VERIFY_INSTALL") != ""})
	result, err := executor.New(launch, executor.RunnerConfig{WorkDir: t.TempDir(), DriverName: "playwright"}).
		Run(context.Background(), []flow.Flow{f})
	require.NoError(t, err)

	fr := result.FlowResults[0]
	assert.Equal(t, report.StatusPassed, fr.Status, fr.Error)
}
