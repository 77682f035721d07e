package executor

import (
	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/report"
)

// commandResultToElement converts core.CommandResult to report.Element.
func commandResultToElement(r *core.CommandResult) *report.Element {
	if r == nil || r.Element == nil {
		return nil
	}

	el := r.Element
	element := &report.Element{
		Found:   true,
		ID:      el.ID,
		Tag:     el.Tag,
		Text:    el.Text,
		Role:    el.Role,
		Label:   el.Label,
		Class:   el.Class,
		Visible: el.Visible,
		Enabled: el.Enabled,
		Checked: el.Checked,
		Matches: el.Matches,
	}

	if el.Bounds != (core.Bounds{}) {
		element.Bounds = &report.Bounds{
			X:      el.Bounds.X,
			Y:      el.Bounds.Y,
			Width:  el.Bounds.Width,
			Height: el.Bounds.Height,
		}
	}

	return element
}

// commandResultToError converts core.CommandResult error to report.Error.
func commandResultToError(r *core.CommandResult) *report.Error {
	if r == nil || r.Error == nil {
		return nil
	}

	errType := "unknown"
	if cat := core.CategoryOf(r.Error); cat != core.ErrCategoryNone {
		errType = cat.String()
	}

	message := r.Error.Error()
	if r.Message != "" {
		message = r.Message
	}

	return &report.Error{
		Type:       errType,
		Code:       core.CodeOf(r.Error),
		Message:    message,
		Suggestion: suggestionFor(r.Error),
	}
}

// suggestionFor returns a remediation hint for common failures.
func suggestionFor(err error) string {
	switch core.CodeOf(err) {
	case core.ErrNavigation.Code, core.ErrNavigationTimeout.Code, core.ErrServerUnreachable.Code:
		return "Is the site under test running and listening on the expected port?"
	case core.ErrIndexOutOfRange.Code:
		return "The page rendered fewer matching elements than the flow expects."
	case core.ErrElementDisabled.Code:
		return "The element never became enabled; check the preceding steps."
	default:
		return ""
	}
}

// browserInfoToReport converts core.BrowserInfo to report.Browser.
func browserInfoToReport(b *core.BrowserInfo) report.Browser {
	if b == nil {
		return report.Browser{}
	}
	return report.Browser{
		Driver:         b.Driver,
		Name:           b.Browser,
		Version:        b.Version,
		Headless:       b.Headless,
		ViewportWidth:  b.ViewportWidth,
		ViewportHeight: b.ViewportHeight,
	}
}

// stepStatusToReport maps a core step status onto the report status set.
func stepStatusToReport(s core.StepStatus) report.Status {
	switch s {
	case core.StatusPassed:
		return report.StatusPassed
	case core.StatusSkipped:
		return report.StatusSkipped
	case core.StatusPending:
		return report.StatusPending
	case core.StatusRunning:
		return report.StatusRunning
	default:
		return report.StatusFailed
	}
}
