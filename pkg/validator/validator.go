// Package validator validates flow files before execution.
// It parses all files upfront and reports every problem it finds.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Step    int // 1-based step number, 0 for flow-level errors
	Message string
}

func (e *ValidationError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("%s: step %d: %s", e.File, e.Step, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Files is the list of flow file paths in execution order.
	Files []string
	// Flows holds the parsed flows, parallel to Files.
	Flows []*flow.Flow
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates flow files.
type Validator struct {
	includeTags []string
	excludeTags []string
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Validate validates a file or directory.
func (v *Validator) Validate(path string) *Result {
	result := &Result{}

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    path,
			Message: fmt.Sprintf("cannot access: %v", err),
		})
		return result
	}

	var files []string
	if info.IsDir() {
		files, err = v.collectFlowFiles(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to scan directory: %v", err),
			})
			return result
		}
	} else {
		files = []string{path}
	}

	for _, file := range files {
		v.validateFile(file, result)
	}

	return result
}

// Add validates an already parsed flow, such as a built-in one, and adds
// it to the result when it passes the tag filter.
func (v *Validator) Add(result *Result, f *flow.Flow) {
	if !flow.ShouldIncludeFlow(f, v.includeTags, v.excludeTags) {
		return
	}
	result.Files = append(result.Files, f.SourcePath)
	result.Flows = append(result.Flows, f)
	result.Errors = append(result.Errors, CheckFlow(f)...)
}

// collectFlowFiles finds all .yaml/.yml files in a directory.
func (v *Validator) collectFlowFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// validateFile parses and checks a single file.
func (v *Validator) validateFile(filePath string, result *Result) {
	f, err := flow.ParseFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return
	}
	v.Add(result, f)
}

// CheckFlow reports steps missing required fields and screenshot paths
// that collide within the flow.
func CheckFlow(f *flow.Flow) []error {
	var errs []error
	add := func(step int, format string, args ...interface{}) {
		errs = append(errs, &ValidationError{File: f.SourcePath, Step: step, Message: fmt.Sprintf(format, args...)})
	}

	if len(f.Steps) == 0 {
		add(0, "flow has no steps")
	}
	if f.Config.Timeout < 0 {
		add(0, "timeout must not be negative")
	}

	seen := make(map[string]int)
	claim := func(step int, path string) {
		key := filepath.Clean(path)
		if prev, ok := seen[key]; ok {
			if prev == 0 {
				add(step, "screenshot path %s is also the onFailure screenshot", path)
			} else {
				add(step, "screenshot path %s already written by step %d", path, prev)
			}
			return
		}
		seen[key] = step
	}
	if f.Config.OnFailure.Screenshot != "" {
		seen[filepath.Clean(f.Config.OnFailure.Screenshot)] = 0
	}

	for i, step := range f.Steps {
		n := i + 1
		if b := flow.BaseOf(step); b != nil && b.TimeoutMs < 0 {
			add(n, "%s: timeout must not be negative", step.Type())
		}
		if sel := flow.SelectorOf(step); sel != nil {
			if msg := checkSelector(sel); msg != "" {
				add(n, "%s: %s", step.Type(), msg)
			}
		}

		switch s := step.(type) {
		case *flow.NavigateStep:
			if s.URL == "" {
				add(n, "navigate: url is required")
			}
		case *flow.AssertTitleStep:
			if s.Title == "" {
				add(n, "assertTitle: title is required")
			}
		case *flow.WaitStep:
			if s.Ms <= 0 {
				add(n, "wait: duration must be positive")
			}
		case *flow.WaitUntilStep:
			conds := 0
			if s.Visible != nil {
				conds++
			}
			if s.Enabled != nil {
				conds++
			}
			if s.Title != "" {
				conds++
			}
			if conds != 1 {
				add(n, "waitUntil: exactly one of visible, enabled or title is required")
			}
		case *flow.TakeScreenshotStep:
			if s.Path == "" {
				add(n, "takeScreenshot: path is required")
				continue
			}
			if !strings.EqualFold(filepath.Ext(s.Path), ".png") {
				add(n, "takeScreenshot: %s is not a .png path", s.Path)
			}
			claim(n, s.Path)
		}
	}

	return errs
}

func checkSelector(sel *flow.Selector) string {
	if sel.Name != "" && sel.Role == "" {
		return "name requires role"
	}
	if sel.IsEmpty() {
		return "selector is required"
	}
	if sel.Index != nil && *sel.Index < 0 {
		return fmt.Sprintf("index %d must not be negative", *sel.Index)
	}
	return ""
}
