package playwright

import (
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/driver/dom"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

func (d *Driver) navigate(s *flow.NavigateStep) *core.CommandResult {
	start := time.Now()
	if s.URL == "" {
		return core.Failed(start, core.ErrMissingRequired.WithMessage("navigate: url is required"), "")
	}

	timeout := dom.TimeoutMs(s, d.opts.NavigationTimeout)
	_, err := d.page.Goto(s.URL, pw.PageGotoOptions{
		Timeout:   pw.Float(float64(timeout)),
		WaitUntil: pw.WaitUntilStateLoad,
	})
	if err != nil {
		if isTimeout(err) {
			return core.Failed(start, core.ErrNavigationTimeout.
				WithMessagef("%s did not load within %dms", s.URL, timeout).WithCause(err), "")
		}
		return core.Failed(start, mapError(err, core.ErrNavigation.WithMessagef("navigation to %s failed", s.URL)), "")
	}

	r := core.Succeeded(start, "Navigated to "+s.URL)
	r.Data = d.page.URL()
	return r
}

func (d *Driver) assertTitle(s *flow.AssertTitleStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	err := d.expect.Page(d.page).ToHaveTitle(s.Title, pw.PageAssertionsToHaveTitleOptions{
		Timeout: pw.Float(float64(timeout)),
	})
	actual, _ := d.page.Title()
	if err != nil {
		r := core.Failed(start, core.ErrTitleMismatch.
			WithMessagef("expected title %q, got %q", s.Title, actual).
			WithDetails(map[string]interface{}{"expected": s.Title, "actual": actual}), "")
		r.Data = actual
		return r
	}

	r := core.Succeeded(start, fmt.Sprintf("Title is %q", actual))
	r.Data = actual
	return r
}

func (d *Driver) assertVisible(s *flow.AssertVisibleStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	loc, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	if err := d.expect.Locator(loc).ToBeVisible(pw.LocatorAssertionsToBeVisibleOptions{
		Timeout: pw.Float(float64(timeout)),
	}); err != nil {
		return d.failWith(start, loc, count, mapError(err, core.ErrElementNotVisible.
			WithMessagef("%s is not visible", s.Selector.Describe())))
	}
	return d.succeedWith(start, loc, count, s.Selector.Describe()+" is visible")
}

func (d *Driver) assertEnabled(s *flow.AssertEnabledStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	loc, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	if err := d.expect.Locator(loc).ToBeEnabled(pw.LocatorAssertionsToBeEnabledOptions{
		Timeout: pw.Float(float64(timeout)),
	}); err != nil {
		return d.failWith(start, loc, count, mapError(err, core.ErrElementDisabled.
			WithMessagef("%s is disabled", s.Selector.Describe())))
	}
	return d.succeedWith(start, loc, count, s.Selector.Describe()+" is enabled")
}

func (d *Driver) fill(s *flow.FillStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	loc, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	if err := loc.Fill(s.Text, pw.LocatorFillOptions{Timeout: pw.Float(float64(timeout))}); err != nil {
		return d.failWith(start, loc, count, d.actionError(loc, &s.Selector, err))
	}
	return d.succeedWith(start, loc, count, fmt.Sprintf("Filled %s with %q", s.Selector.Describe(), s.Text))
}

func (d *Driver) click(s *flow.ClickStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	loc, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	// Describe before clicking; the click may navigate away.
	info := d.describe(loc, count)
	if err := loc.Click(pw.LocatorClickOptions{Timeout: pw.Float(float64(timeout))}); err != nil {
		r := core.Failed(start, d.actionError(loc, &s.Selector, err), "")
		r.Element = info
		return r
	}
	r := core.Succeeded(start, "Clicked "+s.Selector.Describe())
	r.Element = info
	return r
}

func (d *Driver) check(s *flow.CheckStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	loc, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	if err := loc.Check(pw.LocatorCheckOptions{Timeout: pw.Float(float64(timeout))}); err != nil {
		return d.failWith(start, loc, count, d.actionError(loc, &s.Selector, err))
	}
	return d.succeedWith(start, loc, count, "Checked "+s.Selector.Describe())
}

func (d *Driver) waitUntil(s *flow.WaitUntilStep) *core.CommandResult {
	start := time.Now()
	timeout := pw.Float(float64(dom.TimeoutMs(s, d.opts.Timeout)))

	var err error
	switch {
	case s.Visible != nil:
		err = d.locator(s.Visible).Nth(s.Visible.Nth()).WaitFor(pw.LocatorWaitForOptions{
			State:   pw.WaitForSelectorStateVisible,
			Timeout: timeout,
		})
	case s.Enabled != nil:
		err = d.expect.Locator(d.locator(s.Enabled).Nth(s.Enabled.Nth())).ToBeEnabled(pw.LocatorAssertionsToBeEnabledOptions{
			Timeout: timeout,
		})
	case s.Title != "":
		err = d.expect.Page(d.page).ToHaveTitle(s.Title, pw.PageAssertionsToHaveTitleOptions{Timeout: timeout})
	default:
		return core.Failed(start, core.ErrMissingRequired.WithMessage("waitUntil needs visible, enabled or title"), "")
	}
	if err != nil {
		return core.Failed(start, mapError(err, core.ErrWaitTimeout.WithMessagef("condition not met: %s", s.Describe())), "")
	}
	return core.Succeeded(start, "Condition met: "+s.Describe())
}

// locator builds the Playwright locator for a selector. Label and role
// selectors use Playwright's accessibility engine.
func (d *Driver) locator(sel *flow.Selector) pw.Locator {
	switch sel.Kind() {
	case "label":
		return d.page.GetByLabel(sel.Label, pw.PageGetByLabelOptions{Exact: pw.Bool(sel.Exact)})
	case "role":
		opts := pw.PageGetByRoleOptions{Exact: pw.Bool(sel.Exact)}
		if sel.Name != "" {
			opts.Name = sel.Name
		}
		return d.page.GetByRole(pw.AriaRole(sel.Role), opts)
	default:
		return d.page.Locator(sel.CSSQuery())
	}
}

// resolve waits for the selector to match and returns the element at its
// index along with the match count.
func (d *Driver) resolve(sel *flow.Selector, timeoutMs int) (pw.Locator, int, error) {
	if sel.IsEmpty() {
		return nil, 0, core.ErrMissingRequired.WithMessage("selector is required")
	}

	all := d.locator(sel)
	if err := all.Nth(sel.Nth()).WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateAttached,
		Timeout: pw.Float(float64(timeoutMs)),
	}); err != nil {
		if isClosed(err) {
			return nil, 0, core.ErrSessionClosed.WithCause(err)
		}
		if count, cerr := all.Count(); cerr == nil && count > 0 {
			return nil, count, dom.OutOfRange(sel, count)
		}
		return nil, 0, dom.NotFound(sel, err)
	}

	count, err := all.Count()
	if err != nil {
		return nil, 0, mapError(err, core.ErrElementNotFound)
	}
	if err := dom.CheckIndex(sel, count); err != nil {
		return nil, count, err
	}
	return all.Nth(sel.Nth()), count, nil
}

// actionError classifies a failed action by the element's current state.
func (d *Driver) actionError(loc pw.Locator, sel *flow.Selector, err error) error {
	if isClosed(err) {
		return core.ErrSessionClosed.WithCause(err)
	}
	if visible, verr := loc.IsVisible(); verr == nil && !visible {
		return core.ErrElementNotVisible.WithMessagef("%s is not visible", sel.Describe()).WithCause(err)
	}
	if enabled, eerr := loc.IsEnabled(); eerr == nil && !enabled {
		return core.ErrElementDisabled.WithMessagef("%s is disabled", sel.Describe()).WithCause(err)
	}
	if isTimeout(err) {
		return core.ErrTimeout.WithMessagef("%s was not actionable in time", sel.Describe()).WithCause(err)
	}
	return core.ErrElementNotFound.WithMessagef("%s: action failed", sel.Describe()).WithCause(err)
}

// describe summarizes the element for reports. Failures are logged and
// yield only the match count.
func (d *Driver) describe(loc pw.Locator, count int) *core.ElementInfo {
	v, err := loc.Evaluate(dom.DescribeJS, nil, pw.LocatorEvaluateOptions{Timeout: pw.Float(1000)})
	if err != nil {
		logger.Debug("playwright: describe element: %v", err)
		return &core.ElementInfo{Matches: count}
	}
	return dom.Info(v, count)
}

func (d *Driver) succeedWith(start time.Time, loc pw.Locator, count int, msg string) *core.CommandResult {
	r := core.Succeeded(start, msg)
	r.Element = d.describe(loc, count)
	return r
}

func (d *Driver) failWith(start time.Time, loc pw.Locator, count int, err error) *core.CommandResult {
	r := core.Failed(start, err, "")
	r.Element = d.describe(loc, count)
	return r
}
