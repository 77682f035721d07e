// Package dom holds the page-side scripts and result decoding shared by the
// browser drivers.
package dom

import (
	"math"
	"strings"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

// MaxText is the number of characters of element text kept in reports.
const MaxText = 100

// DescribeJS is a function expression that returns the element summary
// decoded by Info. It is evaluated with the element as `this` (rod) or as
// its first argument (playwright).
const DescribeJS = `function (el) {
  el = el || this;
  const r = el.getBoundingClientRect();
  const style = window.getComputedStyle(el);
  return {
    tag: el.tagName.toLowerCase(),
    id: el.id || "",
    text: ((el.innerText || el.value || "") + "").trim(),
    role: el.getAttribute("role") || "",
    label: el.getAttribute("aria-label") || "",
    cls: el.getAttribute("class") || "",
    checked: !!el.checked,
    disabled: !!el.disabled || el.getAttribute("aria-disabled") === "true",
    visible: r.width > 0 && r.height > 0 && style.visibility !== "hidden" && style.display !== "none",
    x: r.x, y: r.y, width: r.width, height: r.height
  };
}`

// FindAllJS returns every element matching a selector. It takes (kind,
// value, name, exact) where kind is "css", "label" or "role" and value is
// the CSS query, label text or ARIA role. Label and role matching follow
// the accessible-name rules for drivers without a native engine.
const FindAllJS = `function (kind, value, name, exact) {
  const norm = s => (s || "").replace(/\s+/g, " ").trim();
  const matches = (text, want) => {
    text = norm(text); want = norm(want);
    return exact ? text === want : text.toLowerCase().includes(want.toLowerCase());
  };
  const implicitRole = el => {
    const tag = el.tagName.toLowerCase();
    const type = (el.getAttribute("type") || "").toLowerCase();
    if (tag === "button") return "button";
    if (tag === "a" && el.hasAttribute("href")) return "link";
    if (tag === "select") return "combobox";
    if (tag === "textarea") return "textbox";
    if (tag === "input") {
      if (type === "checkbox") return "checkbox";
      if (type === "radio") return "radio";
      if (["button", "submit", "reset"].includes(type)) return "button";
      if (type === "search") return "searchbox";
      return "textbox";
    }
    if (/^h[1-6]$/.test(tag)) return "heading";
    return "";
  };
  const labelOf = el => {
    const parts = [];
    if (el.getAttribute("aria-label")) parts.push(el.getAttribute("aria-label"));
    const by = el.getAttribute("aria-labelledby");
    if (by) by.split(/\s+/).forEach(id => { const l = document.getElementById(id); if (l) parts.push(l.textContent); });
    if (el.labels) Array.from(el.labels).forEach(l => parts.push(l.textContent));
    return parts;
  };
  const nameOf = el => {
    const labels = labelOf(el);
    if (labels.length) return labels.join(" ");
    if (el.tagName.toLowerCase() === "input" && ["button", "submit", "reset"].includes((el.type || "").toLowerCase())) return el.value || "";
    return el.getAttribute("title") || el.textContent || "";
  };
  if (kind === "css") return Array.from(document.querySelectorAll(value));
  const all = Array.from(document.querySelectorAll("*"));
  if (kind === "label") {
    return all.filter(el => labelOf(el).some(t => matches(t, value)) ||
      (["input", "textarea"].includes(el.tagName.toLowerCase()) && el.placeholder && matches(el.placeholder, value)));
  }
  return all.filter(el => {
    const role = el.getAttribute("role") || implicitRole(el);
    if (role !== value) return false;
    return !name || matches(nameOf(el), name);
  });
}`

// Info decodes the result of DescribeJS into an ElementInfo.
func Info(v interface{}, matches int) *core.ElementInfo {
	m, ok := v.(map[string]interface{})
	if !ok {
		return &core.ElementInfo{Matches: matches}
	}
	return &core.ElementInfo{
		ID:      str(m["id"]),
		Tag:     str(m["tag"]),
		Text:    Truncate(str(m["text"]), MaxText),
		Role:    str(m["role"]),
		Label:   str(m["label"]),
		Class:   str(m["cls"]),
		Visible: boolean(m["visible"]),
		Enabled: !boolean(m["disabled"]),
		Checked: boolean(m["checked"]),
		Matches: matches,
		Bounds: core.Bounds{
			X:      num(m["x"]),
			Y:      num(m["y"]),
			Width:  num(m["width"]),
			Height: num(m["height"]),
		},
	}
}

// FindArgs returns the FindAllJS arguments for sel.
func FindArgs(sel *flow.Selector) []interface{} {
	switch sel.Kind() {
	case "label":
		return []interface{}{"label", sel.Label, "", sel.Exact}
	case "role":
		return []interface{}{"role", sel.Role, sel.Name, sel.Exact}
	default:
		return []interface{}{"css", sel.CSSQuery(), "", false}
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// NotFound builds the locator error for a selector that matched nothing.
func NotFound(sel *flow.Selector, cause error) error {
	err := core.ErrElementNotFound.WithMessagef("no element matches %s", sel.Describe())
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}

// OutOfRange builds the locator error for an index past the match count.
func OutOfRange(sel *flow.Selector, count int) error {
	return core.ErrIndexOutOfRange.
		WithMessagef("%s matched %d element(s), index %d requested", sel.Describe(), count, sel.Nth()).
		WithDetails(map[string]interface{}{"matches": count, "index": sel.Nth()})
}

// CheckIndex returns OutOfRange when the selector's index is not below count.
func CheckIndex(sel *flow.Selector, count int) error {
	if count == 0 {
		return NotFound(sel, nil)
	}
	if sel.Nth() >= count {
		return OutOfRange(sel, count)
	}
	return nil
}

// TimeoutMs returns the step's timeout, or def when the step sets none.
func TimeoutMs(step flow.Step, def int) int {
	if b := flow.BaseOf(step); b != nil && b.TimeoutMs > 0 {
		return b.TimeoutMs
	}
	return def
}

func str(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func boolean(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func num(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(math.Round(n))
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
