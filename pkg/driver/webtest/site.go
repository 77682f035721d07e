// Package webtest serves a local copy of the pages the built-in flows
// exercise, for browser-backed driver tests.
package webtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

// Origins the built-in flows point at.
const (
	ExplorerOrigin = "http://localhost:4321"
	CompareOrigin  = "http://localhost:8080"
)

const explorerPage = `<!doctype html>
<html>
<head><title>Collection Explorer | Docs with Tailwind</title></head>
<body>
  <label for="search">Search Description</label>
  <input id="search" type="text">
  <button id="reset" type="button">Reset Filters</button>
  <ul id="results">
    <li class="collection">collection one</li>
    <li class="collection">collection two</li>
    <li class="collection">collection three</li>
  </ul>
  <script>
    const search = document.getElementById("search");
    const apply = () => {
      const q = search.value.toLowerCase();
      document.querySelectorAll(".collection").forEach(li => {
        li.style.display = li.textContent.toLowerCase().includes(q) ? "" : "none";
      });
    };
    search.addEventListener("input", apply);
    document.getElementById("reset").addEventListener("click", () => { search.value = ""; apply(); });
  </script>
</body>
</html>`

const comparePage = `<!doctype html>
<html>
<head><title>Docs</title></head>
<body>
  %s
  <button id="compare-btn" type="button" disabled>Compare</button>
  <script>
    const btn = document.getElementById("compare-btn");
    document.querySelectorAll(".compare-checkbox").forEach(cb => cb.addEventListener("change", () => {
      btn.disabled = document.querySelectorAll(".compare-checkbox:checked").length < 2;
    }));
    btn.addEventListener("click", () => { window.location.href = "compare.html"; });
  </script>
</body>
</html>`

const compareResultPage = `<!doctype html>
<html><head><title>Compare Files</title></head><body><h1>Compare Files</h1></body></html>`

// LatePath serves a page whose second compare checkbox is attached
// after LateDelayMs.
const (
	LatePath    = "/docs/late.html"
	LateDelayMs = 300
)

const latePage = `<!doctype html>
<html>
<head><title>Docs</title></head>
<body>
  <div class="item-card"><input type="checkbox" class="compare-checkbox" aria-label="compare item 0"> item 0</div>
  <script>
    setTimeout(() => {
      const card = document.createElement("div");
      card.className = "item-card";
      card.innerHTML = '<input type="checkbox" class="compare-checkbox" aria-label="compare item 1"> item 1';
      document.body.appendChild(card);
    }, %d);
  </script>
</body>
</html>`

// Site is a running fixture server.
type Site struct {
	srv *httptest.Server
}

// NewSite starts a fixture server whose compare page carries the given
// number of item cards, each with a compare checkbox.
func NewSite(checkboxes int) *Site {
	var cards strings.Builder
	for i := 0; i < checkboxes; i++ {
		fmt.Fprintf(&cards, `<div class="item-card"><input type="checkbox" class="compare-checkbox" aria-label="compare item %d"> item %d</div>`, i, i)
	}
	if checkboxes == 0 {
		cards.WriteString(`<div class="item-card">empty</div>`)
	}
	compare := fmt.Sprintf(comparePage, cards.String())

	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/docs/index.html", serve(compare))
	mux.HandleFunc("/docs/compare.html", serve(compareResultPage))
	mux.HandleFunc(LatePath, serve(fmt.Sprintf(latePage, LateDelayMs)))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		serve(explorerPage)(w, r)
	})

	return &Site{srv: httptest.NewServer(mux)}
}

// URL returns the server's base URL.
func (s *Site) URL() string {
	return s.srv.URL
}

// Close shuts the server down.
func (s *Site) Close() {
	s.srv.Close()
}

// Rebase points a flow at the fixture server by replacing its origin in
// the flow URL and in every navigate step.
func (s *Site) Rebase(f *flow.Flow, origin string) {
	f.Config.URL = strings.Replace(f.Config.URL, origin, s.srv.URL, 1)
	for _, step := range f.Steps {
		if nav, ok := step.(*flow.NavigateStep); ok {
			nav.URL = strings.Replace(nav.URL, origin, s.srv.URL, 1)
		}
	}
}
