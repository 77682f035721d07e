// Package flow handles parsing and representation of verification flow files.
package flow

import (
	"fmt"
	"strconv"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Navigation
	StepNavigate StepType = "navigate"

	// Interaction
	StepFill  StepType = "fill"
	StepClick StepType = "click"
	StepCheck StepType = "check"

	// Assertions
	StepAssertTitle   StepType = "assertTitle"
	StepAssertVisible StepType = "assertVisible"
	StepAssertEnabled StepType = "assertEnabled"

	// Synchronization
	StepWait      StepType = "wait"
	StepWaitUntil StepType = "waitUntil"

	// Media
	StepTakeScreenshot StepType = "takeScreenshot"
)

// Step is the interface for all flow steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Describe() string
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"description"`
	TimeoutMs int      `yaml:"timeout"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// Base returns the embedded BaseStep. Every concrete step satisfies
// interface{ Base() *BaseStep } through embedding.
func (b *BaseStep) Base() *BaseStep { return b }

// ============================================
// Navigation
// ============================================

// NavigateStep opens a URL in the current page.
type NavigateStep struct {
	BaseStep `yaml:",inline"`
	URL      string `yaml:"url"`
}

// Describe returns a human-readable description.
func (s *NavigateStep) Describe() string {
	return fmt.Sprintf("navigate %s", s.URL)
}

// ============================================
// Interaction
// ============================================

// FillStep sets the value of an input control.
type FillStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
	Text     string   `yaml:"text"`
}

// Describe returns a human-readable description.
func (s *FillStep) Describe() string {
	return fmt.Sprintf("fill %s with %q", s.Selector.Describe(), s.Text)
}

// ClickStep activates an element.
type ClickStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *ClickStep) Describe() string {
	return "click " + s.Selector.Describe()
}

// CheckStep checks a checkbox (no-op if already checked).
type CheckStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *CheckStep) Describe() string {
	return "check " + s.Selector.Describe()
}

// ============================================
// Assertions
// ============================================

// AssertTitleStep asserts the document title equals Title.
type AssertTitleStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
}

// Describe returns a human-readable description.
func (s *AssertTitleStep) Describe() string {
	return fmt.Sprintf("assertTitle %q", s.Title)
}

// AssertVisibleStep asserts the selected element is visible.
type AssertVisibleStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *AssertVisibleStep) Describe() string {
	return "assertVisible " + s.Selector.Describe()
}

// AssertEnabledStep asserts the selected element is enabled.
type AssertEnabledStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *AssertEnabledStep) Describe() string {
	return "assertEnabled " + s.Selector.Describe()
}

// ============================================
// Synchronization
// ============================================

// WaitStep pauses for a fixed duration (settle wait).
type WaitStep struct {
	BaseStep `yaml:",inline"`
	Ms       int `yaml:"ms"`
}

// Describe returns a human-readable description.
func (s *WaitStep) Describe() string {
	return "wait " + strconv.Itoa(s.Ms) + "ms"
}

// WaitUntilStep suspends until a condition over the page holds or the
// timeout elapses. Exactly one of Visible, Enabled or Title is expected.
type WaitUntilStep struct {
	BaseStep `yaml:",inline"`
	Visible  *Selector `yaml:"visible"`
	Enabled  *Selector `yaml:"enabled"`
	Title    string    `yaml:"title"`
}

// Describe returns a human-readable description.
func (s *WaitUntilStep) Describe() string {
	switch {
	case s.Visible != nil:
		return "waitUntil visible " + s.Visible.Describe()
	case s.Enabled != nil:
		return "waitUntil enabled " + s.Enabled.Describe()
	case s.Title != "":
		return fmt.Sprintf("waitUntil title %q", s.Title)
	default:
		return "waitUntil"
	}
}

// ============================================
// Media
// ============================================

// TakeScreenshotStep captures the page to a PNG file.
type TakeScreenshotStep struct {
	BaseStep `yaml:",inline"`
	Path     string `yaml:"path"`
	FullPage bool   `yaml:"fullPage"`
}

// Describe returns a human-readable description.
func (s *TakeScreenshotStep) Describe() string {
	return "takeScreenshot " + s.Path
}

// SelectorOf returns the selector a step acts on, or nil for steps without one.
func SelectorOf(step Step) *Selector {
	switch s := step.(type) {
	case *FillStep:
		return &s.Selector
	case *ClickStep:
		return &s.Selector
	case *CheckStep:
		return &s.Selector
	case *AssertVisibleStep:
		return &s.Selector
	case *AssertEnabledStep:
		return &s.Selector
	case *WaitUntilStep:
		if s.Visible != nil {
			return s.Visible
		}
		return s.Enabled
	default:
		return nil
	}
}

// BaseOf returns the BaseStep embedded in step, or nil.
func BaseOf(step Step) *BaseStep {
	if b, ok := step.(interface{ Base() *BaseStep }); ok {
		return b.Base()
	}
	return nil
}
