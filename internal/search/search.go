// Package search is the web-search collaborator: it queries the DuckDuckGo
// HTML endpoint and renders ranked snippets as a text block for the prompts.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/satyamitra/internal/cache"
	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/util"
)

// NoResults is returned as the search text when nothing matched
const NoResults = "No results found."

// Limiter paces calls to the search endpoint
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// DuckDuckGo queries the DuckDuckGo HTML endpoint
type DuckDuckGo struct {
	endpoint   string
	userAgent  string
	maxResults int
	cacheTTL   time.Duration
	httpClient *http.Client
	cache      cache.Cache
	limiter    Limiter
	classifier *Classifier
	logger     *slog.Logger
}

// Option configures a DuckDuckGo client
type Option func(*DuckDuckGo)

// WithCache memoises results by normalised query
func WithCache(c cache.Cache) Option {
	return func(d *DuckDuckGo) { d.cache = c }
}

// WithLimiter paces requests
func WithLimiter(l Limiter) Option {
	return func(d *DuckDuckGo) { d.limiter = l }
}

// WithClassifier overrides the authority classifier
func WithClassifier(c *Classifier) Option {
	return func(d *DuckDuckGo) { d.classifier = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(d *DuckDuckGo) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(d *DuckDuckGo) { d.httpClient = c }
}

// NewDuckDuckGo creates a search client from configuration
func NewDuckDuckGo(cfg model.SearchConfig, httpCfg model.HTTPConfig, opts ...Option) *DuckDuckGo {
	d := &DuckDuckGo{
		endpoint:   cfg.Endpoint,
		userAgent:  httpCfg.UserAgent,
		maxResults: cfg.MaxResults,
		cacheTTL:   cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		classifier: NewClassifier(nil),
		logger:     slog.Default(),
	}
	if d.endpoint == "" {
		d.endpoint = "https://html.duckduckgo.com/html/"
	}
	if d.maxResults <= 0 {
		d.maxResults = 5
	}
	if d.userAgent == "" {
		d.userAgent = "Mozilla/5.0"
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "search")
	return d
}

// Search returns the ranked results for query as text, or NoResults
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	results, err := d.Results(ctx, query)
	if err != nil {
		return "", err
	}
	return Format(results), nil
}

// Results returns the ranked, authority-tagged hits for query
func (d *DuckDuckGo) Results(ctx context.Context, query string) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := cache.Key("search", query)
	if d.cache != nil {
		if data, ok := d.cache.Get(key); ok {
			var cached []model.SearchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				d.logger.Debug("Search cache hit", "query", query)
				return cached, nil
			}
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, d.endpoint); err != nil {
			return nil, fmt.Errorf("search rate limit: %w", err)
		}
	}

	body, err := d.post(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := ParseResults(body, d.maxResults)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	for i := range results {
		results[i].Authority = d.classifier.Classify(results[i].URL)
	}

	d.logger.Debug("Search complete", "query", query, "results", len(results))

	if d.cache != nil && len(results) > 0 {
		if data, err := json.Marshal(results); err == nil {
			if err := d.cache.Set(key, data, d.cacheTTL); err != nil {
				d.logger.Warn("Search cache write failed", "error", err)
			}
		}
	}
	return results, nil
}

func (d *DuckDuckGo) post(ctx context.Context, query string) (string, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	return string(body), nil
}

// Format renders results as numbered lines for the synthesis prompt
func Format(results []model.SearchResult) string {
	if len(results) == 0 {
		return NoResults
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.Authority != model.TierUnknown {
			fmt.Fprintf(&b, " [%s source]", r.Authority)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, " (%s)", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "\n   %s", r.Snippet)
		}
	}
	return b.String()
}
