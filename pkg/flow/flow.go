// Package flow handles parsing and representation of verification flow files.
package flow

// Flow represents a parsed verification flow.
type Flow struct {
	SourcePath string // Path to the source file (or embedded name)
	Config     Config // Flow configuration (name, base URL, tags, ...)
	Steps      []Step // Steps to execute, in order
}

// Config represents flow-level configuration.
type Config struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"` // Base URL of the site under test
	Tags    []string `yaml:"tags"`
	Timeout int      `yaml:"timeout"` // Default per-step timeout in ms

	// OnFailure controls the diagnostic capture after a failed step.
	OnFailure OnFailure `yaml:"onFailure"`
}

// OnFailure describes what to capture when a flow fails.
type OnFailure struct {
	Screenshot string `yaml:"screenshot"` // Path of the error screenshot; empty disables capture
	FullPage   bool   `yaml:"fullPage"`
}

// StepTimeout returns the timeout in ms that step runs with: its own when
// set, else the flow default. Navigation falls back to the driver's
// navigation timeout, not the flow default. 0 means the driver default.
func (c Config) StepTimeout(step Step) int {
	if b := BaseOf(step); b != nil && b.TimeoutMs > 0 {
		return b.TimeoutMs
	}
	if _, ok := step.(*NavigateStep); ok {
		return 0
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 0
}

// ScreenshotPaths returns every screenshot path the flow may write, in step
// order, followed by the failure screenshot if configured.
func (f *Flow) ScreenshotPaths() []string {
	var paths []string
	for _, step := range f.Steps {
		if s, ok := step.(*TakeScreenshotStep); ok && s.Path != "" {
			paths = append(paths, s.Path)
		}
	}
	if f.Config.OnFailure.Screenshot != "" {
		paths = append(paths, f.Config.OnFailure.Screenshot)
	}
	return paths
}
