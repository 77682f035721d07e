// Package probe checks a target page over plain HTTP before a browser is
// launched for it.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// DefaultTimeout bounds a single probe request.
const DefaultTimeout = 15 * time.Second

// UserAgent identifies probe requests.
const UserAgent = "verify-runner-probe/1.0"

// Options configures a probe.
type Options struct {
	Timeout   time.Duration
	Selectors []string // CSS selectors to count in the returned document
	Client    *http.Client
}

// Result describes a probed page.
type Result struct {
	URL        string         `json:"url"`
	StatusCode int            `json:"statusCode"`
	Title      string         `json:"title"`
	Matches    map[string]int `json:"matches,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// Probe fetches rawURL and parses it as HTML. Connection failures and
// error statuses return core.ErrServerUnreachable.
func Probe(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, core.ErrInvalidConfig.WithMessagef("invalid url %q", rawURL)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, core.ErrServerUnreachable.WithMessagef("%s is unreachable", parsed.String()).WithCause(err)
	}
	defer resp.Body.Close()

	result := &Result{
		URL:        parsed.String(),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode >= 400 {
		return result, core.ErrServerUnreachable.
			WithMessagef("%s returned status %d", parsed.String(), resp.StatusCode).
			WithDetails(map[string]interface{}{"status": resp.StatusCode})
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return result, fmt.Errorf("parse %s: %w", parsed.String(), err)
	}

	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if len(opts.Selectors) > 0 {
		result.Matches = make(map[string]int, len(opts.Selectors))
		for _, sel := range opts.Selectors {
			result.Matches[sel] = doc.Find(sel).Length()
		}
	}
	result.Duration = time.Since(start)

	logger.Debug("probe %s: status=%d title=%q in %s", result.URL, result.StatusCode, result.Title, result.Duration)
	return result, nil
}

// Preflight returns a check for the runner that fails only when a flow's
// base URL does not answer at all. A server that answers with an error
// status is left to the browser, which records it as a navigation failure.
func Preflight(opts Options) func(ctx context.Context, url string) error {
	return func(ctx context.Context, url string) error {
		res, err := Probe(ctx, url, opts)
		if err != nil && res != nil {
			logger.Warn("preflight %s: %v", url, err)
			return nil
		}
		return err
	}
}
