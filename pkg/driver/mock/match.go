package mock

import (
	"strings"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

func matches(e *Element, sel *flow.Selector) bool {
	switch sel.Kind() {
	case "label":
		return textMatch(e.Label, sel.Label, sel.Exact)
	case "role":
		if e.Role != sel.Role {
			return false
		}
		return sel.Name == "" || textMatch(e.Name, sel.Name, sel.Exact)
	case "id":
		return e.ID == sel.ID
	case "css":
		return cssMatch(e, sel.CSS)
	default:
		return false
	}
}

// textMatch mirrors accessible-name matching: case-insensitive substring
// unless exact.
func textMatch(have, want string, exact bool) bool {
	if have == "" {
		return false
	}
	if exact {
		return have == want
	}
	return strings.Contains(strings.ToLower(have), strings.ToLower(want))
}

// cssMatch supports compound selectors made of a tag, #id and .class parts
// (e.g. "button#compare-btn.primary"). Combinators are not supported.
func cssMatch(e *Element, css string) bool {
	css = strings.TrimSpace(css)
	if css == "" || strings.ContainsAny(css, " >+~[:") {
		return false
	}

	var tag string
	i := strings.IndexAny(css, ".#")
	if i < 0 {
		return e.Tag == css
	}
	tag, css = css[:i], css[i:]
	if tag != "" && e.Tag != tag {
		return false
	}

	for css != "" {
		kind := css[0]
		rest := css[1:]
		j := strings.IndexAny(rest, ".#")
		if j < 0 {
			j = len(rest)
		}
		part := rest[:j]
		css = rest[j:]
		switch kind {
		case '#':
			if e.ID != part {
				return false
			}
		case '.':
			if !e.HasClass(part) {
				return false
			}
		}
	}
	return true
}
