package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/verify-runner/pkg/config"
	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/driver/mock"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/flows"
)

// captureOutput redirects stdout and stderr for the duration of the test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr, prevColors := stdout, stderr, colorsEnabled
	stdout, stderr, colorsEnabled = &out, &errOut, false
	t.Cleanup(func() {
		stdout, stderr, colorsEnabled = prevOut, prevErr, prevColors
	})
	return &out, &errOut
}

// useLauncher replaces the browser launcher with one serving site.
func useLauncher(t *testing.T, site func() mock.Site) {
	t.Helper()
	prev := newLauncher
	newLauncher = func(*config.Config) core.Launcher {
		return func() (core.Driver, error) {
			return mock.New(mock.Config{Site: site()}), nil
		}
	}
	t.Cleanup(func() { newLauncher = prev })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvDriver, config.EnvHeadless, config.EnvOutput} {
		t.Setenv(k, "")
	}
}

// parseRun runs the run command with its action replaced by
// buildRunConfig.
func parseRun(t *testing.T, args ...string) (*RunConfig, error) {
	t.Helper()
	var got *RunConfig
	var gotErr error

	cmd := *runCommand
	cmd.Action = func(c *cli.Context) error {
		got, gotErr = buildRunConfig(c)
		return nil
	}
	app := &cli.App{Name: "verify-runner", Flags: GlobalFlags, Commands: []*cli.Command{&cmd}}
	if err := app.Run(append([]string{"verify-runner"}, args...)); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}
	return got, gotErr
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1000, "1.0s"},
		{1500, "1.5s"},
		{59999, "60.0s"},
		{60000, "1m 0s"},
		{125000, "2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestColor(t *testing.T) {
	prev := colorsEnabled
	defer func() { colorsEnabled = prev }()

	colorsEnabled = true
	if color(colorRed) != colorRed {
		t.Error("expected color code when enabled")
	}
	colorsEnabled = false
	if color(colorRed) != "" {
		t.Error("expected empty string when disabled")
	}
}

func TestBuildRunConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := parseRun(t, "run", flows.CollectionExplorer)
	if err != nil {
		t.Fatalf("buildRunConfig() error = %v", err)
	}
	if cfg.Driver != config.DriverPlaywright {
		t.Errorf("Driver = %q", cfg.Driver)
	}
	if !cfg.IsHeadless() {
		t.Error("expected headless by default")
	}
	if cfg.PreflightEnabled() {
		t.Error("preflight should be opt-in")
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout = %d", cfg.Timeout)
	}
	if len(cfg.FlowPaths) != 1 || cfg.FlowPaths[0] != flows.CollectionExplorer {
		t.Errorf("FlowPaths = %v", cfg.FlowPaths)
	}
}

func TestBuildRunConfig_Flags(t *testing.T) {
	clearEnv(t)

	cfg, err := parseRun(t, "--log-file", filepath.Join(t.TempDir(), "x.log"),
		"run", "--driver", "rod", "--headed", "--output", "out",
		"--include-tags", "smoke", "--preflight", "--stop-on-fail",
		"--timeout", "750", "--workdir", "w", "explorer")
	if err != nil {
		t.Fatalf("buildRunConfig() error = %v", err)
	}
	if cfg.Driver != config.DriverRod {
		t.Errorf("Driver = %q", cfg.Driver)
	}
	if cfg.IsHeadless() {
		t.Error("--headed should disable headless")
	}
	if cfg.Output != "out" || cfg.WorkDir != "w" {
		t.Errorf("Output = %q, WorkDir = %q", cfg.Output, cfg.WorkDir)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "smoke" {
		t.Errorf("IncludeTags = %v", cfg.IncludeTags)
	}
	if !cfg.PreflightEnabled() || !cfg.StopOnFail {
		t.Errorf("Preflight = %v, StopOnFail = %v", cfg.PreflightEnabled(), cfg.StopOnFail)
	}
	if cfg.Timeout != 750 {
		t.Errorf("Timeout = %d", cfg.Timeout)
	}
	if cfg.LogFile == "" {
		t.Error("LogFile not carried over from the global flag")
	}
}

func TestBuildRunConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "verify.yaml")
	content := "driver: rod\noutput: from-file\nflows:\n  - compare-feature\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// File only.
	cfg, err := parseRun(t, "--config", path, "run")
	if err != nil {
		t.Fatalf("buildRunConfig() error = %v", err)
	}
	if cfg.Driver != config.DriverRod || cfg.Output != "from-file" {
		t.Errorf("file: Driver = %q, Output = %q", cfg.Driver, cfg.Output)
	}
	if len(cfg.FlowPaths) != 1 || cfg.FlowPaths[0] != flows.CompareFeature {
		t.Errorf("FlowPaths from file = %v", cfg.FlowPaths)
	}

	// Environment beats the file.
	t.Setenv(config.EnvOutput, "from-env")
	t.Setenv(config.EnvDriver, config.DriverPlaywright)
	cfg, err = parseRun(t, "--config", path, "run")
	if err != nil {
		t.Fatalf("buildRunConfig() error = %v", err)
	}
	if cfg.Driver != config.DriverPlaywright || cfg.Output != "from-env" {
		t.Errorf("env: Driver = %q, Output = %q", cfg.Driver, cfg.Output)
	}

	// Flags beat both.
	cfg, err = parseRun(t, "--config", path, "run", "--output", "from-flag", "--driver", "rod")
	if err != nil {
		t.Fatalf("buildRunConfig() error = %v", err)
	}
	if cfg.Driver != config.DriverRod || cfg.Output != "from-flag" {
		t.Errorf("flag: Driver = %q, Output = %q", cfg.Driver, cfg.Output)
	}
}

func TestBuildRunConfig_Errors(t *testing.T) {
	clearEnv(t)

	if _, err := parseRun(t, "run"); err == nil || !strings.Contains(err.Error(), "no flows given") {
		t.Errorf("expected no flows error, got %v", err)
	}
	if _, err := parseRun(t, "run", "--driver", "selenium", "explorer"); err == nil || !strings.Contains(err.Error(), "unknown driver") {
		t.Errorf("expected unknown driver error, got %v", err)
	}

	t.Setenv(config.EnvHeadless, "maybe")
	if _, err := parseRun(t, "run", "explorer"); err == nil {
		t.Error("expected error for invalid VERIFY_HEADLESS")
	}
}

func TestResolveFlows_Builtins(t *testing.T) {
	_, _ = captureOutput(t)

	got, err := resolveFlows(&RunConfig{
		Config:    &config.Config{},
		FlowPaths: []string{flows.CollectionExplorer, "compare"},
	})
	if err != nil {
		t.Fatalf("resolveFlows() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d flows, want 2", len(got))
	}
	if got[0].Config.Name != flows.CollectionExplorer || got[1].Config.Name != flows.CompareFeature {
		t.Errorf("names = %q, %q", got[0].Config.Name, got[1].Config.Name)
	}
}

func TestResolveFlows_TagFilter(t *testing.T) {
	_, _ = captureOutput(t)

	got, err := resolveFlows(&RunConfig{
		Config:    &config.Config{IncludeTags: []string{"compare"}},
		FlowPaths: []string{"explorer", "compare"},
	})
	if err != nil {
		t.Fatalf("resolveFlows() error = %v", err)
	}
	if len(got) != 1 || got[0].Config.Name != flows.CompareFeature {
		t.Fatalf("expected only compare-feature, got %d flows", len(got))
	}

	_, err = resolveFlows(&RunConfig{
		Config:    &config.Config{ExcludeTags: []string{"explorer", "compare"}},
		FlowPaths: []string{"explorer", "compare"},
	})
	if err == nil || !strings.Contains(err.Error(), "no flows to run") {
		t.Errorf("expected no flows error, got %v", err)
	}
}

func TestResolveFlows_Files(t *testing.T) {
	_, errOut := captureOutput(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("- navigate: http://localhost:4321\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("- takeScreenshot:\n    path: shot.jpg\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveFlows(&RunConfig{Config: &config.Config{}, FlowPaths: []string{good}})
	if err != nil {
		t.Fatalf("resolveFlows() error = %v", err)
	}
	if len(got) != 1 || got[0].SourcePath != good {
		t.Fatalf("unexpected flows: %+v", got)
	}

	_, err = resolveFlows(&RunConfig{Config: &config.Config{}, FlowPaths: []string{dir}})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(errOut.String(), "bad.yaml") {
		t.Errorf("stderr does not name the invalid file: %q", errOut.String())
	}

	if _, err := resolveFlows(&RunConfig{Config: &config.Config{}, FlowPaths: []string{"no-such-flow"}}); err == nil {
		t.Error("expected error for unknown path")
	}
}

func runConfigFor(t *testing.T, paths ...string) *RunConfig {
	t.Helper()
	off := false
	cfg := &config.Config{
		Preflight: &off,
		Output:    filepath.Join(t.TempDir(), "report"),
		WorkDir:   t.TempDir(),
	}
	cfg.ApplyDefaults()
	return &RunConfig{Config: cfg, FlowPaths: paths, LogFile: filepath.Join(t.TempDir(), "run.log")}
}

func TestExecuteRun_Success(t *testing.T) {
	out, _ := captureOutput(t)
	useLauncher(t, func() mock.Site { return mock.CompareSite(3) })
	cfg := runConfigFor(t, flows.CompareFeature)

	if err := executeRun(context.Background(), cfg); err != nil {
		t.Fatalf("executeRun() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"[1/1]", "compare-feature", "✓ PASS", "TOTAL", "1/1", "verification.png", "report.json"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Output, "report.json")); err != nil {
		t.Errorf("report.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.WorkDir, "jules-scratch/verification/verification.png")); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}
}

func TestExecuteRun_FailureExitsNonZero(t *testing.T) {
	out, _ := captureOutput(t)
	useLauncher(t, func() mock.Site { return mock.CompareSite(1) })
	cfg := runConfigFor(t, flows.CompareFeature)

	err := executeRun(context.Background(), cfg)
	var exit cli.ExitCoder
	if !errors.As(err, &exit) || exit.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(out.String(), "✗ FAIL") {
		t.Errorf("summary does not show the failure:\n%s", out.String())
	}
}

func TestExecuteRun_InMemoryReport(t *testing.T) {
	out, _ := captureOutput(t)
	useLauncher(t, func() mock.Site { return mock.CompareSite(2) })
	cfg := runConfigFor(t, flows.CompareFeature)
	cfg.Output = ""

	if err := executeRun(context.Background(), cfg); err != nil {
		t.Fatalf("executeRun() error = %v", err)
	}
	if strings.Contains(out.String(), "Reports:") {
		t.Error("no report section expected without an output directory")
	}
}

func TestListCommand(t *testing.T) {
	out, _ := captureOutput(t)

	if err := NewApp().Run([]string{"verify-runner", "list"}); err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, want := range []string{flows.CollectionExplorer, flows.CompareFeature, "http://localhost:4321", "01_initial_load.png"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q", want)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	out, _ := captureOutput(t)

	if err := NewApp().Run([]string{"verify-runner", "validate", "explorer", "compare"}); err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out.String(), "2 flow(s) valid") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	if err := NewApp().Run([]string{"verify-runner", "validate"}); err == nil {
		t.Error("expected error without arguments")
	}
}

func TestProbeCommand(t *testing.T) {
	out, _ := captureOutput(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Compare Files</title></head>
<body><div class="item-card"></div><div class="item-card"></div></body></html>`))
	}))
	defer srv.Close()

	err := NewApp().Run([]string{"verify-runner", "probe", "--selector", ".item-card", srv.URL})
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}
	text := out.String()
	if !strings.Contains(text, `"Compare Files"`) {
		t.Errorf("title missing:\n%s", text)
	}
	if !strings.Contains(text, ".item-card") || !strings.Contains(text, " 2\n") {
		t.Errorf("match count missing:\n%s", text)
	}
}

func TestProbeCommand_Unreachable(t *testing.T) {
	_, _ = captureOutput(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewApp().Run([]string{"verify-runner", "probe", "--timeout", "2s", url})
	if !errors.Is(err, core.ErrServerUnreachable) {
		t.Errorf("expected ErrServerUnreachable, got %v", err)
	}
}

func TestRunStandalone(t *testing.T) {
	clearEnv(t)
	useLauncher(t, func() mock.Site { return mock.CompareSite(2) })
	work := t.TempDir()

	var started, completed []string
	err := RunStandalone(context.Background(), Standalone{
		Flow:    flows.CompareFeature,
		WorkDir: work,
		OnStepStart: func(_ int, step flow.Step) {
			started = append(started, string(step.Type()))
		},
		OnStepComplete: func(_ int, step flow.Step, _ *core.StepResult) {
			completed = append(completed, string(step.Type()))
		},
	})
	if err != nil {
		t.Fatalf("RunStandalone() error = %v", err)
	}
	if len(started) != 8 || len(completed) != 8 {
		t.Errorf("started %d, completed %d steps, want 8", len(started), len(completed))
	}
	if _, err := os.Stat(filepath.Join(work, "jules-scratch/verification/verification.png")); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}
}

func TestRunStandalone_Failure(t *testing.T) {
	clearEnv(t)
	useLauncher(t, func() mock.Site { return mock.CompareSite(1) })

	err := RunStandalone(context.Background(), Standalone{Flow: flows.CompareFeature, WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error with a single checkbox")
	}
	if strings.HasPrefix(err.Error(), "flow ") {
		t.Errorf("error should carry the step message, got %q", err.Error())
	}
}

func TestRunStandalone_UnknownFlow(t *testing.T) {
	if err := RunStandalone(context.Background(), Standalone{Flow: "nope"}); err == nil {
		t.Error("expected error for unknown flow")
	}
}
