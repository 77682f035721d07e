package rod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/driver/dom"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// nthMatchJS reports whether FindAllJS matches more than nth elements.
var nthMatchJS = `function (kind, value, name, exact, nth) { return (` + dom.FindAllJS + `)(kind, value, name, exact).length > nth; }`

const titleIsJS = `function (want) { return document.title === want; }`

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (d *Driver) navigate(s *flow.NavigateStep) *core.CommandResult {
	start := time.Now()
	if s.URL == "" {
		return core.Failed(start, core.ErrMissingRequired.WithMessage("navigate: url is required"), "")
	}

	timeout := dom.TimeoutMs(s, d.opts.NavigationTimeout)
	page := d.page.Timeout(ms(timeout))
	defer page.CancelTimeout()

	err := page.Navigate(s.URL)
	if err == nil {
		err = page.WaitLoad()
	}
	if err != nil {
		if isTimeout(err) {
			return core.Failed(start, core.ErrNavigationTimeout.
				WithMessagef("%s did not load within %dms", s.URL, timeout).WithCause(err), "")
		}
		return core.Failed(start, core.ErrNavigation.WithMessagef("navigation to %s failed", s.URL).WithCause(err), "")
	}

	r := core.Succeeded(start, "Navigated to "+s.URL)
	r.Data = s.URL
	return r
}

func (d *Driver) assertTitle(s *flow.AssertTitleStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	page := d.page.Timeout(ms(timeout))
	err := page.Wait(rod.Eval(titleIsJS, s.Title))
	page.CancelTimeout()

	actual := d.title()
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

	el, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	if err := el.Timeout(ms(timeout)).WaitVisible(); err != nil {
		return d.failWith(start, el, count, core.ErrElementNotVisible.
			WithMessagef("%s is not visible", s.Selector.Describe()).WithCause(err))
	}
	return d.succeedWith(start, el, count, s.Selector.Describe()+" is visible")
}

func (d *Driver) assertEnabled(s *flow.AssertEnabledStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	el, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	if err := el.Timeout(ms(timeout)).WaitEnabled(); err != nil {
		return d.failWith(start, el, count, core.ErrElementDisabled.
			WithMessagef("%s is disabled", s.Selector.Describe()).WithCause(err))
	}
	return d.succeedWith(start, el, count, s.Selector.Describe()+" is enabled")
}

func (d *Driver) fill(s *flow.FillStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	el, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	t := el.Timeout(ms(timeout))
	if err := t.SelectAllText(); err != nil {
		return d.failWith(start, el, count, d.actionError(el, &s.Selector, err))
	}
	if err := t.Input(s.Text); err != nil {
		return d.failWith(start, el, count, d.actionError(el, &s.Selector, err))
	}
	return d.succeedWith(start, el, count, fmt.Sprintf("Filled %s with %q", s.Selector.Describe(), s.Text))
}

func (d *Driver) click(s *flow.ClickStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	el, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	// Describe before clicking; the click may navigate away.
	info := d.describe(el, count)
	if disabled, derr := d.disabled(el); derr == nil && disabled {
		r := core.Failed(start, core.ErrElementDisabled.WithMessagef("%s is disabled", s.Selector.Describe()), "")
		r.Element = info
		return r
	}
	if err := el.Timeout(ms(timeout)).Click(proto.InputMouseButtonLeft, 1); err != nil {
		r := core.Failed(start, d.actionError(el, &s.Selector, err), "")
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

	el, count, err := d.resolve(&s.Selector, timeout)
	if err != nil {
		return core.Failed(start, err, "")
	}
	checked, err := d.checked(el)
	if err != nil {
		return d.failWith(start, el, count, d.actionError(el, &s.Selector, err))
	}
	if !checked {
		if err := el.Timeout(ms(timeout)).Click(proto.InputMouseButtonLeft, 1); err != nil {
			return d.failWith(start, el, count, d.actionError(el, &s.Selector, err))
		}
		if checked, err = d.checked(el); err != nil || !checked {
			return d.failWith(start, el, count, core.ErrElementNotFound.
				WithMessagef("%s did not become checked", s.Selector.Describe()))
		}
	}
	return d.succeedWith(start, el, count, "Checked "+s.Selector.Describe())
}

func (d *Driver) waitUntil(s *flow.WaitUntilStep) *core.CommandResult {
	start := time.Now()
	timeout := dom.TimeoutMs(s, d.opts.Timeout)

	var err error
	switch {
	case s.Visible != nil:
		var el *rod.Element
		if el, _, err = d.resolve(s.Visible, timeout); err == nil {
			err = el.Timeout(ms(timeout)).WaitVisible()
		}
	case s.Enabled != nil:
		var el *rod.Element
		if el, _, err = d.resolve(s.Enabled, timeout); err == nil {
			err = el.Timeout(ms(timeout)).WaitEnabled()
		}
	case s.Title != "":
		page := d.page.Timeout(ms(timeout))
		err = page.Wait(rod.Eval(titleIsJS, s.Title))
		page.CancelTimeout()
	default:
		return core.Failed(start, core.ErrMissingRequired.WithMessage("waitUntil needs visible, enabled or title"), "")
	}
	if err != nil {
		return core.Failed(start, core.ErrWaitTimeout.WithMessagef("condition not met: %s", s.Describe()).WithCause(err), "")
	}
	return core.Succeeded(start, "Condition met: "+s.Describe())
}

// resolve waits until the selector matches and returns the element at its
// index along with the match count.
func (d *Driver) resolve(sel *flow.Selector, timeoutMs int) (*rod.Element, int, error) {
	if sel.IsEmpty() {
		return nil, 0, core.ErrMissingRequired.WithMessage("selector is required")
	}

	args := dom.FindArgs(sel)
	page := d.page.Timeout(ms(timeoutMs))
	err := page.Wait(rod.Eval(nthMatchJS, append(args, sel.Nth())...))
	page.CancelTimeout()

	els, findErr := d.page.ElementsByJS(rod.Eval(dom.FindAllJS, args...))
	if err != nil {
		if findErr == nil && len(els) > 0 {
			return nil, len(els), dom.OutOfRange(sel, len(els))
		}
		return nil, 0, dom.NotFound(sel, err)
	}
	if findErr != nil {
		return nil, 0, dom.NotFound(sel, findErr)
	}
	if err := dom.CheckIndex(sel, len(els)); err != nil {
		return nil, len(els), err
	}
	return els[sel.Nth()], len(els), nil
}

func (d *Driver) checked(el *rod.Element) (bool, error) {
	v, err := el.Property("checked")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (d *Driver) disabled(el *rod.Element) (bool, error) {
	v, err := el.Property("disabled")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (d *Driver) title() string {
	info, err := d.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

// actionError classifies a failed action by the element's current state.
func (d *Driver) actionError(el *rod.Element, sel *flow.Selector, err error) error {
	if visible, verr := el.Visible(); verr == nil && !visible {
		return core.ErrElementNotVisible.WithMessagef("%s is not visible", sel.Describe()).WithCause(err)
	}
	if disabled, derr := d.disabled(el); derr == nil && disabled {
		return core.ErrElementDisabled.WithMessagef("%s is disabled", sel.Describe()).WithCause(err)
	}
	if isTimeout(err) {
		return core.ErrTimeout.WithMessagef("%s was not actionable in time", sel.Describe()).WithCause(err)
	}
	return core.ErrElementNotFound.WithMessagef("%s: action failed", sel.Describe()).WithCause(err)
}

// describe summarizes the element for reports.
func (d *Driver) describe(el *rod.Element, count int) *core.ElementInfo {
	obj, err := el.Eval(dom.DescribeJS)
	if err != nil {
		logger.Debug("rod: describe element: %v", err)
		return &core.ElementInfo{Matches: count}
	}
	return dom.Info(obj.Value.Val(), count)
}

func (d *Driver) succeedWith(start time.Time, el *rod.Element, count int, msg string) *core.CommandResult {
	r := core.Succeeded(start, msg)
	r.Element = d.describe(el, count)
	return r
}

func (d *Driver) failWith(start time.Time, el *rod.Element, count int, err error) *core.CommandResult {
	r := core.Failed(start, err, "")
	r.Element = d.describe(el, count)
	return r
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
