package webtest

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestSite_Pages(t *testing.T) {
	site := NewSite(3)
	defer site.Close()

	code, body := get(t, site.URL())
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<title>Collection Explorer | Docs with Tailwind</title>")
	assert.Contains(t, body, "Search Description")

	code, body = get(t, site.URL()+"/docs/index.html")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, strings.Count(body, `class="compare-checkbox"`))
	assert.Contains(t, body, `id="compare-btn"`)

	_, body = get(t, site.URL()+"/docs/compare.html")
	assert.Contains(t, body, "<title>Compare Files</title>")

	_, body = get(t, site.URL()+LatePath)
	assert.Equal(t, 1, strings.Count(body, `class="compare-checkbox"`))
	assert.Contains(t, body, "setTimeout")

	code, _ = get(t, site.URL()+"/missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSite_NoCheckboxes(t *testing.T) {
	site := NewSite(0)
	defer site.Close()

	_, body := get(t, site.URL()+"/docs/index.html")
	assert.NotContains(t, body, `class="compare-checkbox"`)
	assert.Contains(t, body, `class="item-card"`)
}

func TestSite_Rebase(t *testing.T) {
	site := NewSite(2)
	defer site.Close()

	f := &flow.Flow{
		Config: flow.Config{URL: CompareOrigin + "/docs/index.html"},
		Steps: []flow.Step{
			&flow.NavigateStep{URL: CompareOrigin + "/docs/index.html"},
			&flow.WaitStep{Ms: 1},
		},
	}
	site.Rebase(f, CompareOrigin)

	assert.Equal(t, site.URL()+"/docs/index.html", f.Config.URL)
	assert.Equal(t, site.URL()+"/docs/index.html", f.Steps[0].(*flow.NavigateStep).URL)
}
