package mock

import "fmt"

// Default URLs and titles of the documentation site the built-in flows
// verify.
const (
	ExplorerURL   = "http://localhost:4321"
	ExplorerTitle = "Collection Explorer | Docs with Tailwind"
	CompareURL    = "http://localhost:8080/docs/index.html"
	CompareTitle  = "Compare Files"
	compareTarget = "http://localhost:8080/docs/compare.html"
)

// ExplorerSite returns a site serving the collection explorer page with
// the given number of item cards. Filling the search field hides every
// card whose text does not contain the query; Reset Filters shows them all
// again.
func ExplorerSite(cards int) Site {
	page := &Page{Title: ExplorerTitle}
	search := &Element{Tag: "input", ID: "search", Label: "Search Description", Role: "textbox"}
	reset := &Element{Tag: "button", Role: "button", Name: "Reset Filters", Text: "Reset Filters"}
	page.Elements = append(page.Elements, search, reset)
	for i := 0; i < cards; i++ {
		page.Elements = append(page.Elements, &Element{
			Tag:     "div",
			Classes: []string{"item-card"},
			Text:    fmt.Sprintf("collection %d", i+1),
		})
	}

	reset.OnClick = func(*Page) { search.Value = "" }
	page.Update = func(p *Page) {
		for _, e := range p.Elements {
			if e.HasClass("item-card") {
				e.Hidden = search.Value != "" && !textMatch(e.Text, search.Value, false)
			}
		}
	}
	return Site{ExplorerURL: page}
}

// CompareSite returns a site serving the docs index page with the given
// number of compare checkboxes. The compare button is enabled once two
// checkboxes are checked and leads to the "Compare Files" page.
func CompareSite(checkboxes int) Site {
	index := &Page{Title: "Docs"}
	index.Elements = append(index.Elements,
		&Element{Tag: "div", Classes: []string{"item-card"}, Text: "first"},
		&Element{Tag: "div", Classes: []string{"item-card"}, Text: "second"},
	)
	for i := 0; i < checkboxes; i++ {
		index.Elements = append(index.Elements, &Element{
			Tag:      "input",
			Classes:  []string{"compare-checkbox"},
			Role:     "checkbox",
			Checkbox: true,
		})
	}
	btn := &Element{
		Tag:      "button",
		ID:       "compare-btn",
		Role:     "button",
		Name:     "Compare",
		Text:     "Compare",
		Disabled: true,
		Href:     compareTarget,
	}
	index.Elements = append(index.Elements, btn)
	index.Update = func(p *Page) {
		btn.Disabled = p.CountChecked("compare-checkbox") < 2
	}

	compare := &Page{Title: CompareTitle}
	return Site{CompareURL: index, compareTarget: compare}
}
