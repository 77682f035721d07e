// Package flow handles parsing and representation of verification flow files.
package flow

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// Selector represents element selection criteria.
// Pure data structure - drivers decide how to resolve it.
//
// Resolution precedence: Label, then Role (with optional Name), then ID,
// then CSS. Index picks the nth match (0-based); without Index the first
// match is used.
type Selector struct {
	Label string `yaml:"label"` // Accessible label (label element, aria-label)
	Role  string `yaml:"role"`  // ARIA role, e.g. "button"
	Name  string `yaml:"name"`  // Accessible name, used with Role
	ID    string `yaml:"id"`    // Element id attribute
	CSS   string `yaml:"css"`   // CSS selector

	// Index for multiple matches. Nil means "first".
	Index *int `yaml:"index"`

	// Exact disables substring matching of Label and Name.
	Exact bool `yaml:"exact"`
}

// UnmarshalYAML allows Selector to be unmarshaled from a string (CSS) or a
// mapping.
func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.CSS = node.Value
		return nil
	}

	type raw Selector
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = Selector(r)
	return nil
}

// IsEmpty returns true if no selector properties are set.
func (s *Selector) IsEmpty() bool {
	return s.Label == "" &&
		s.Role == "" &&
		s.ID == "" &&
		s.CSS == ""
}

// Nth returns the requested match index, defaulting to 0.
func (s *Selector) Nth() int {
	if s.Index == nil {
		return 0
	}
	return *s.Index
}

// Kind returns the strategy the selector resolves with.
func (s *Selector) Kind() string {
	switch {
	case s.Label != "":
		return "label"
	case s.Role != "":
		return "role"
	case s.ID != "":
		return "id"
	case s.CSS != "":
		return "css"
	default:
		return ""
	}
}

// Value returns the primary value of the selector for its Kind.
func (s *Selector) Value() string {
	switch s.Kind() {
	case "label":
		return s.Label
	case "role":
		return s.Role
	case "id":
		return s.ID
	case "css":
		return s.CSS
	default:
		return ""
	}
}

// CSSQuery returns the CSS query for ID and CSS selectors. Label and role
// selectors have no CSS equivalent and return "".
func (s *Selector) CSSQuery() string {
	switch s.Kind() {
	case "id":
		return "#" + s.ID
	case "css":
		return s.CSS
	default:
		return ""
	}
}

// Describe returns a human-readable description.
func (s *Selector) Describe() string {
	var d string
	switch s.Kind() {
	case "label":
		d = "label " + strconv.Quote(s.Label)
	case "role":
		d = "role " + s.Role
		if s.Name != "" {
			d += " name " + strconv.Quote(s.Name)
		}
	case "id":
		d = "#" + s.ID
	case "css":
		d = s.CSS
	default:
		return ""
	}
	if s.Index != nil {
		d += " [" + strconv.Itoa(*s.Index) + "]"
	}
	return d
}

// DescribeQuoted returns a quoted description like label="value" or id="value".
func (s *Selector) DescribeQuoted() string {
	switch s.Kind() {
	case "label":
		return "label=\"" + s.Label + "\""
	case "role":
		if s.Name != "" {
			return "role=\"" + s.Role + "\" name=\"" + s.Name + "\""
		}
		return "role=\"" + s.Role + "\""
	case "id":
		return "id=\"" + s.ID + "\""
	case "css":
		return "css=\"" + s.CSS + "\""
	default:
		return ""
	}
}
