// Package mock provides a mock driver for testing without a real browser.
//
// The driver serves an in-memory Site: a set of pages keyed by URL, each
// with a title and a flat list of elements. Steps resolve selectors against
// the current page and mutate element state the way a browser would (fill
// sets a value, check checks a checkbox, click follows Href). Page.Update
// runs after every mutation so a page can derive state, for example enable
// a button once two checkboxes are checked.
package mock

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

// Element is a node of a mock page.
type Element struct {
	ID      string
	Tag     string
	Classes []string
	Label   string // Accessible label
	Role    string
	Name    string // Accessible name
	Text    string

	Value    string
	Checkbox bool
	Checked  bool
	Hidden   bool
	Disabled bool

	// Href is the URL loaded when the element is clicked.
	Href string
	// OnClick runs when the element is clicked, before Page.Update.
	OnClick func(p *Page)
}

// HasClass reports whether the element carries class c.
func (e *Element) HasClass(c string) bool {
	for _, cls := range e.Classes {
		if cls == c {
			return true
		}
	}
	return false
}

func (e *Element) info(matches int) *core.ElementInfo {
	return &core.ElementInfo{
		ID:      e.ID,
		Tag:     e.Tag,
		Text:    e.Text,
		Role:    e.Role,
		Label:   e.Label,
		Class:   strings.Join(e.Classes, " "),
		Bounds:  core.Bounds{X: 100, Y: 200, Width: 200, Height: 50},
		Visible: !e.Hidden,
		Enabled: !e.Disabled,
		Checked: e.Checked,
		Matches: matches,
	}
}

// Page is a mock document.
type Page struct {
	URL      string
	Title    string
	Elements []*Element

	// Update is called after every mutating step on this page.
	Update func(p *Page)
}

// Find returns every element matching sel, in document order.
func (p *Page) Find(sel *flow.Selector) []*Element {
	var out []*Element
	for _, e := range p.Elements {
		if matches(e, sel) {
			out = append(out, e)
		}
	}
	return out
}

// CountChecked returns how many elements with class cls are checked.
func (p *Page) CountChecked(cls string) int {
	n := 0
	for _, e := range p.Elements {
		if e.HasClass(cls) && e.Checked {
			n++
		}
	}
	return n
}

// ByID returns the element with the given id, or nil.
func (p *Page) ByID(id string) *Element {
	for _, e := range p.Elements {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Site maps URLs to pages.
type Site map[string]*Page

// Config configures mock driver behavior.
type Config struct {
	Site Site

	// Unreachable makes every navigation fail as if the server were down.
	Unreachable bool
	// FailOnStep makes step N fail (1-indexed). 0 = never fail.
	FailOnStep int
	// StepDelay adds artificial delay per step
	StepDelay time.Duration
	// ScreenshotErr is returned by Screenshot when set.
	ScreenshotErr error

	Headless       bool
	ViewportWidth  int
	ViewportHeight int
}

// Driver is a mock implementation of core.Driver for testing.
type Driver struct {
	Config Config

	mu          sync.Mutex
	page        *Page
	stepCount   int
	closed      bool
	closeCount  int
	screenshots int
	executed    []string
	timeouts    []int
}

// New creates a new mock driver.
func New(cfg Config) *Driver {
	if cfg.ViewportWidth == 0 {
		cfg.ViewportWidth = 1280
	}
	if cfg.ViewportHeight == 0 {
		cfg.ViewportHeight = 720
	}
	if cfg.Site == nil {
		cfg.Site = Site{}
	}
	return &Driver{Config: cfg}
}

// Launcher returns a core.Launcher that hands out d.
func (d *Driver) Launcher() core.Launcher {
	return func() (core.Driver, error) { return d, nil }
}

// Execute simulates executing a step.
func (d *Driver) Execute(step flow.Step) *core.CommandResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stepCount++
	d.executed = append(d.executed, step.Describe())
	timeout := 0
	if b := flow.BaseOf(step); b != nil {
		timeout = b.TimeoutMs
	}
	d.timeouts = append(d.timeouts, timeout)
	start := time.Now()

	if d.Config.StepDelay > 0 {
		time.Sleep(d.Config.StepDelay)
	}

	if d.closed {
		return core.Failed(start, core.ErrSessionClosed, "")
	}

	if d.Config.FailOnStep > 0 && d.stepCount == d.Config.FailOnStep {
		return core.Failed(start, fmt.Errorf("mock failure on step %d", d.stepCount),
			fmt.Sprintf("Simulated failure on step %d (%s)", d.stepCount, step.Type()))
	}

	switch s := step.(type) {
	case *flow.NavigateStep:
		return d.navigate(start, s.URL)
	case *flow.AssertTitleStep:
		return d.assertTitle(start, s.Title)
	case *flow.AssertVisibleStep:
		return d.withElement(start, &s.Selector, func(e *Element) error {
			if e.Hidden {
				return core.ErrElementNotVisible.WithMessagef("%s is not visible", s.Selector.Describe())
			}
			return nil
		})
	case *flow.AssertEnabledStep:
		return d.withElement(start, &s.Selector, func(e *Element) error {
			if e.Disabled {
				return core.ErrElementDisabled.WithMessagef("%s is disabled", s.Selector.Describe())
			}
			return nil
		})
	case *flow.FillStep:
		return d.withElement(start, &s.Selector, func(e *Element) error {
			e.Value = s.Text
			d.update()
			return nil
		})
	case *flow.CheckStep:
		return d.withElement(start, &s.Selector, func(e *Element) error {
			if !e.Checkbox {
				return core.ErrElementNotFound.WithMessagef("%s is not a checkbox", s.Selector.Describe())
			}
			e.Checked = true
			d.update()
			return nil
		})
	case *flow.ClickStep:
		return d.withElement(start, &s.Selector, func(e *Element) error {
			if e.Disabled {
				return core.ErrElementDisabled.WithMessagef("%s is disabled", s.Selector.Describe())
			}
			if e.Checkbox {
				e.Checked = !e.Checked
			}
			if e.OnClick != nil && d.page != nil {
				e.OnClick(d.page)
			}
			if e.Href != "" {
				return d.load(e.Href)
			}
			d.update()
			return nil
		})
	case *flow.WaitUntilStep:
		return d.waitUntil(start, s)
	default:
		return core.Failed(start, core.ErrUnsupportedStep.WithMessagef("mock: %s is not supported", step.Type()), "")
	}
}

func (d *Driver) navigate(start time.Time, url string) *core.CommandResult {
	if err := d.load(url); err != nil {
		return core.Failed(start, err, "")
	}
	return core.Succeeded(start, "Navigated to "+url)
}

func (d *Driver) load(url string) error {
	page, ok := d.Config.Site[url]
	if d.Config.Unreachable || !ok {
		return core.ErrNavigation.
			WithMessagef("navigation to %s failed", url).
			WithCause(errors.New("net::ERR_CONNECTION_REFUSED"))
	}
	page.URL = url
	d.page = page
	return nil
}

func (d *Driver) assertTitle(start time.Time, want string) *core.CommandResult {
	got := d.title()
	if got != want {
		err := core.ErrTitleMismatch.
			WithMessagef("expected title %q, got %q", want, got).
			WithDetails(map[string]interface{}{"expected": want, "actual": got})
		r := core.Failed(start, err, "")
		r.Data = got
		return r
	}
	r := core.Succeeded(start, fmt.Sprintf("Title is %q", got))
	r.Data = got
	return r
}

func (d *Driver) waitUntil(start time.Time, s *flow.WaitUntilStep) *core.CommandResult {
	var ok bool
	switch {
	case s.Visible != nil:
		ok = d.resolveOK(s.Visible, func(e *Element) bool { return !e.Hidden })
	case s.Enabled != nil:
		ok = d.resolveOK(s.Enabled, func(e *Element) bool { return !e.Disabled })
	case s.Title != "":
		ok = d.title() == s.Title
	default:
		return core.Failed(start, core.ErrMissingRequired.WithMessage("waitUntil needs visible, enabled or title"), "")
	}
	if !ok {
		return core.Failed(start, core.ErrWaitTimeout.WithMessagef("condition not met: %s", s.Describe()), "")
	}
	return core.Succeeded(start, "Condition met: "+s.Describe())
}

func (d *Driver) resolveOK(sel *flow.Selector, pred func(*Element) bool) bool {
	if d.page == nil {
		return false
	}
	found := d.page.Find(sel)
	idx := sel.Nth()
	return idx < len(found) && pred(found[idx])
}

// withElement resolves sel on the current page and applies fn to the
// selected element.
func (d *Driver) withElement(start time.Time, sel *flow.Selector, fn func(*Element) error) *core.CommandResult {
	if d.page == nil {
		return core.Failed(start, core.ErrElementNotFound.WithMessage("no page loaded"), "")
	}
	found := d.page.Find(sel)
	if len(found) == 0 {
		return core.Failed(start, core.ErrElementNotFound.WithMessagef("no element matches %s", sel.Describe()), "")
	}
	idx := sel.Nth()
	if idx >= len(found) {
		err := core.ErrIndexOutOfRange.
			WithMessagef("%s matched %d element(s), index %d requested", sel.Describe(), len(found), idx).
			WithDetails(map[string]interface{}{"matches": len(found), "index": idx})
		return core.Failed(start, err, "")
	}
	el := found[idx]
	if err := fn(el); err != nil {
		r := core.Failed(start, err, "")
		r.Element = el.info(len(found))
		return r
	}
	r := core.Succeeded(start, "OK "+sel.Describe())
	r.Element = el.info(len(found))
	return r
}

func (d *Driver) update() {
	if d.page != nil && d.page.Update != nil {
		d.page.Update(d.page)
	}
}

func (d *Driver) title() string {
	if d.page == nil {
		return ""
	}
	return d.page.Title
}

// Screenshot returns a mock PNG image.
func (d *Driver) Screenshot(fullPage bool) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, core.ErrSessionClosed
	}
	if d.Config.ScreenshotErr != nil {
		return nil, d.Config.ScreenshotErr
	}
	d.screenshots++
	return PNG(), nil
}

// GetPage returns the current page.
func (d *Driver) GetPage() *core.PageInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.page == nil {
		return &core.PageInfo{}
	}
	return &core.PageInfo{URL: d.page.URL, Title: d.page.Title}
}

// GetBrowserInfo returns mock browser info.
func (d *Driver) GetBrowserInfo() *core.BrowserInfo {
	return &core.BrowserInfo{
		Driver:         "mock",
		Browser:        "mock",
		Version:        "1.0",
		Headless:       d.Config.Headless,
		ViewportWidth:  d.Config.ViewportWidth,
		ViewportHeight: d.Config.ViewportHeight,
	}
}

// Close marks the session closed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closeCount++
	if d.closed {
		return core.ErrSessionClosed
	}
	d.closed = true
	return nil
}

// CloseCount returns how many times Close was called.
func (d *Driver) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCount
}

// Screenshots returns how many screenshots were captured.
func (d *Driver) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screenshots
}

// Executed returns the descriptions of every executed step.
func (d *Driver) Executed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.executed...)
}

// Timeouts returns the step timeout each executed step carried, in order.
func (d *Driver) Timeouts() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.timeouts...)
}

// PNG returns a minimal valid PNG (1x1 transparent pixel).
func PNG() []byte {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}
}
