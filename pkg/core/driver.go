package core

import (
	"time"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

// Driver defines the interface for executing commands in a browser session.
// Implementations: Playwright, Rod, Mock.
// The Runner handles flow logic; Driver just executes individual commands.
//
// A Driver owns exactly one browser session and one page. Close releases
// both; a closed Driver must not be used again.
type Driver interface {
	// Execute runs a single step and returns the result.
	// Every call is bounded by the step timeout (or the driver default).
	Execute(step flow.Step) *CommandResult

	// Screenshot captures the current page as PNG.
	Screenshot(fullPage bool) ([]byte, error)

	// GetPage returns the URL and title of the current page.
	GetPage() *PageInfo

	// GetBrowserInfo returns browser/session information.
	GetBrowserInfo() *BrowserInfo

	// Close releases the browser session.
	Close() error
}

// Launcher starts a new browser session.
type Launcher func() (Driver, error)

// CommandResult represents the outcome of executing a single command
type CommandResult struct {
	// Core outcome
	Success  bool          `json:"success"`
	Error    error         `json:"-"`
	Duration time.Duration `json:"duration"`

	// Human-readable output
	Message string `json:"message,omitempty"`

	// Element information (for click, fill, assert, ...)
	Element *ElementInfo `json:"element,omitempty"`

	// Generic data for command-specific results
	// Examples: page title observed by assertTitle, match count.
	Data interface{} `json:"data,omitempty"`
}

// ElementInfo represents information about a DOM element
type ElementInfo struct {
	ID      string `json:"id,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Text    string `json:"text,omitempty"`
	Role    string `json:"role,omitempty"`
	Label   string `json:"label,omitempty"`
	Class   string `json:"class,omitempty"`
	Bounds  Bounds `json:"bounds"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Checked bool   `json:"checked,omitempty"`

	// Matches is the number of elements the locator resolved to.
	Matches int `json:"matches,omitempty"`
}

// Bounds represents element position and size in CSS pixels
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// PageInfo describes the currently loaded document.
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// BrowserInfo contains browser and session details
type BrowserInfo struct {
	Driver         string `json:"driver"`            // playwright, rod, mock
	Browser        string `json:"browser"`           // chromium, firefox, webkit
	Version        string `json:"version,omitempty"` // Browser version
	Headless       bool   `json:"headless"`
	ViewportWidth  int    `json:"viewportWidth,omitempty"`
	ViewportHeight int    `json:"viewportHeight,omitempty"`
}

// Succeeded builds a successful CommandResult.
func Succeeded(start time.Time, msg string) *CommandResult {
	return &CommandResult{
		Success:  true,
		Duration: time.Since(start),
		Message:  msg,
	}
}

// Failed builds a failed CommandResult.
func Failed(start time.Time, err error, msg string) *CommandResult {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &CommandResult{
		Success:  false,
		Error:    err,
		Duration: time.Since(start),
		Message:  msg,
	}
}
