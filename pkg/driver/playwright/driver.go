// Package playwright implements core.Driver on top of playwright-go.
package playwright

import (
	"fmt"
	"io"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// Default timeouts (milliseconds).
const (
	DefaultTimeout           = 5000  // locators and assertions
	DefaultNavigationTimeout = 30000 // page loads
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
)

// Options configures a Playwright session.
type Options struct {
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	Timeout           int  // ms, default for steps without their own timeout
	NavigationTimeout int  // ms, default for navigate
	InstallBrowsers   bool   // download the driver and Chromium before launch
	DriverDir         string // where the Playwright driver bundle lives; empty uses its cache
}

func (o *Options) applyDefaults() {
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
}

// Driver implements core.Driver with one Chromium browser and one page.
type Driver struct {
	mu      sync.Mutex
	opts    Options
	pw      *pw.Playwright
	browser pw.Browser
	page    pw.Page
	expect  pw.PlaywrightAssertions
	closed  bool
}

// Launch starts Playwright, a Chromium browser and a page.
func Launch(opts Options) (*Driver, error) {
	opts.applyDefaults()

	runOpts := &pw.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   logger.GetWriter(),
	}
	if opts.DriverDir != "" {
		runOpts.DriverDirectory = opts.DriverDir
	}
	if opts.InstallBrowsers {
		if err := pw.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	instance, err := pw.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := instance.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
	})
	if err != nil {
		_ = instance.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	page, err := browser.NewPage(pw.BrowserNewPageOptions{
		Viewport: &pw.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight},
	})
	if err != nil {
		_ = browser.Close()
		_ = instance.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout))
	page.SetDefaultNavigationTimeout(float64(opts.NavigationTimeout))

	logger.Info("playwright: chromium %s started (headless=%v, viewport=%dx%d)",
		browser.Version(), opts.Headless, opts.ViewportWidth, opts.ViewportHeight)

	return &Driver{
		opts:    opts,
		pw:      instance,
		browser: browser,
		page:    page,
		expect:  pw.NewPlaywrightAssertions(float64(opts.Timeout)),
	}, nil
}

// Launcher returns a core.Launcher that starts a new session per call.
func Launcher(opts Options) core.Launcher {
	return func() (core.Driver, error) {
		return Launch(opts)
	}
}

// Execute runs a single step and returns the result.
func (d *Driver) Execute(step flow.Step) *core.CommandResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	if d.closed {
		return core.Failed(start, core.ErrSessionClosed, "")
	}

	var result *core.CommandResult
	switch s := step.(type) {
	case *flow.NavigateStep:
		result = d.navigate(s)
	case *flow.AssertTitleStep:
		result = d.assertTitle(s)
	case *flow.AssertVisibleStep:
		result = d.assertVisible(s)
	case *flow.AssertEnabledStep:
		result = d.assertEnabled(s)
	case *flow.FillStep:
		result = d.fill(s)
	case *flow.ClickStep:
		result = d.click(s)
	case *flow.CheckStep:
		result = d.check(s)
	case *flow.WaitUntilStep:
		result = d.waitUntil(s)
	default:
		result = core.Failed(start, core.ErrUnsupportedStep.WithMessagef("playwright: %s is not supported", step.Type()), "")
	}

	result.Duration = time.Since(start)
	return result
}

// Screenshot captures the viewport, or the whole page when fullPage is set.
func (d *Driver) Screenshot(fullPage bool) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, core.ErrSessionClosed
	}
	data, err := d.page.Screenshot(pw.PageScreenshotOptions{
		FullPage: pw.Bool(fullPage),
		Type:     pw.ScreenshotTypePng,
	})
	if err != nil {
		return nil, mapError(err, core.ErrScreenshot)
	}
	return data, nil
}

// GetPage returns the URL and title of the current page.
func (d *Driver) GetPage() *core.PageInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &core.PageInfo{}
	}
	title, _ := d.page.Title()
	return &core.PageInfo{URL: d.page.URL(), Title: title}
}

// GetBrowserInfo returns browser and session details.
func (d *Driver) GetBrowserInfo() *core.BrowserInfo {
	return &core.BrowserInfo{
		Driver:         "playwright",
		Browser:        "chromium",
		Version:        d.browser.Version(),
		Headless:       d.opts.Headless,
		ViewportWidth:  d.opts.ViewportWidth,
		ViewportHeight: d.opts.ViewportHeight,
	}
}

// Close closes the browser and stops Playwright. A second call returns
// core.ErrSessionClosed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return core.ErrSessionClosed
	}
	d.closed = true

	var firstErr error
	if err := d.browser.Close(); err != nil {
		firstErr = fmt.Errorf("close browser: %w", err)
	}
	if err := d.pw.Stop(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop playwright: %w", err)
	}
	logger.Debug("playwright: session closed")
	return firstErr
}
