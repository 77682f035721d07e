// Package rod implements core.Driver on top of go-rod over the Chrome
// DevTools Protocol.
package rod

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// Default timeouts (milliseconds).
const (
	DefaultTimeout           = 5000
	DefaultNavigationTimeout = 30000
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
)

// Options configures a rod session.
type Options struct {
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	Timeout           int    // ms, default for steps without their own timeout
	NavigationTimeout int    // ms, default for navigate
	Bin               string // browser binary; empty lets rod find or download one
	BrowserDir        string // download directory used when Bin is empty
	NoSandbox         bool
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

// Driver implements core.Driver with one Chrome process and one page.
type Driver struct {
	mu       sync.Mutex
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	version  string
	closed   bool
}

// Launch starts Chrome, connects to it and opens a page.
func Launch(opts Options) (*Driver, error) {
	opts.applyDefaults()

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-gpu")
	if opts.NoSandbox {
		l = l.Set("no-sandbox")
	}
	bin := opts.Bin
	if bin == "" && opts.BrowserDir != "" {
		b := launcher.NewBrowser()
		b.RootDir = opts.BrowserDir
		path, err := b.Get()
		if err != nil {
			return nil, fmt.Errorf("download chromium: %w", err)
		}
		bin = path
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	version := ""
	if v, err := browser.Version(); err == nil {
		version = v.Product
	}
	logger.Info("rod: %s started (headless=%v, viewport=%dx%d)",
		version, opts.Headless, opts.ViewportWidth, opts.ViewportHeight)

	return &Driver{
		opts:     opts,
		launcher: l,
		browser:  browser,
		page:     page,
		version:  version,
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
		result = core.Failed(start, core.ErrUnsupportedStep.WithMessagef("rod: %s is not supported", step.Type()), "")
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
	data, err := d.page.Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, core.ErrScreenshot.WithCause(err)
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
	info, err := d.page.Info()
	if err != nil {
		return &core.PageInfo{}
	}
	return &core.PageInfo{URL: info.URL, Title: info.Title}
}

// GetBrowserInfo returns browser and session details.
func (d *Driver) GetBrowserInfo() *core.BrowserInfo {
	return &core.BrowserInfo{
		Driver:         "rod",
		Browser:        "chromium",
		Version:        d.version,
		Headless:       d.opts.Headless,
		ViewportWidth:  d.opts.ViewportWidth,
		ViewportHeight: d.opts.ViewportHeight,
	}
}

// Close closes the browser and kills the Chrome process. A second call
// returns core.ErrSessionClosed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return core.ErrSessionClosed
	}
	d.closed = true

	err := d.browser.Close()
	if d.launcher != nil {
		d.launcher.Kill()
	}
	logger.Debug("rod: session closed")
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
