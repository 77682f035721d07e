package rod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

func TestOptions_ApplyDefaults(t *testing.T) {
	var o Options
	o.applyDefaults()
	assert.Equal(t, DefaultViewportWidth, o.ViewportWidth)
	assert.Equal(t, DefaultViewportHeight, o.ViewportHeight)
	assert.Equal(t, DefaultTimeout, o.Timeout)
	assert.Equal(t, DefaultNavigationTimeout, o.NavigationTimeout)

	o = Options{Timeout: 250, ViewportWidth: 1920}
	o.applyDefaults()
	assert.Equal(t, 250, o.Timeout)
	assert.Equal(t, 1920, o.ViewportWidth)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(fmt.Errorf("wait: %w", context.DeadlineExceeded)))
	assert.False(t, isTimeout(context.Canceled))
	assert.False(t, isTimeout(errors.New("deadline")))
}

func TestNthMatchJS_WrapsFinder(t *testing.T) {
	assert.True(t, strings.HasPrefix(nthMatchJS, "function (kind, value, name, exact, nth)"))
	assert.Contains(t, nthMatchJS, ".length > nth")
	assert.Contains(t, nthMatchJS, `document.querySelectorAll(value)`)
}

func TestDriver_ClosedSession(t *testing.T) {
	d := &Driver{closed: true}

	r := d.Execute(&flow.ClickStep{Selector: flow.Selector{ID: "compare-btn"}})
	assert.False(t, r.Success)
	assert.ErrorIs(t, r.Error, core.ErrSessionClosed)

	_, err := d.Screenshot(true)
	assert.ErrorIs(t, err, core.ErrSessionClosed)
	assert.ErrorIs(t, d.Close(), core.ErrSessionClosed)
	assert.Equal(t, &core.PageInfo{}, d.GetPage())
}

func TestGetBrowserInfo(t *testing.T) {
	d := &Driver{opts: Options{Headless: true, ViewportWidth: 1280, ViewportHeight: 720}, version: "HeadlessChrome/120"}
	info := d.GetBrowserInfo()
	assert.Equal(t, "rod", info.Driver)
	assert.Equal(t, "HeadlessChrome/120", info.Version)
	assert.True(t, info.Headless)
}
