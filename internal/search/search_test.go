package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/satyamitra/internal/cache"
	"github.com/ppiankov/satyamitra/internal/model"
)

const ddgPage = `<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://ads.example/buy">Buy now</a>
</div>
<div class="result results_links results_links_deep web-result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.reuters.com%2Ffact-check%2Fmoon&amp;rut=abc">Fact Check: <b>Moon landing</b> footage is authentic</a>
  </h2>
  <a class="result__snippet" href="#">Claims that the 1969 <b>moon landing</b> was staged are false.</a>
</div>
<div class="result results_links web-result">
  <a class="result__a" href="https://conspiracy.example/moon">They never went</a>
  <a class="result__snippet">Forum post.</a>
</div>
<div class="result results_links web-result">
  <a class="result__a" href="https://www.nasa.gov/apollo">Apollo 11</a>
</div>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *DuckDuckGo {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := model.DefaultConfig()
	cfg.Search.Endpoint = server.URL
	return NewDuckDuckGo(cfg.Search, cfg.HTTP, opts...)
}

func TestParseResults(t *testing.T) {
	results, err := ParseResults(ddgPage, 10)
	require.NoError(t, err)
	require.Len(t, results, 3, "ads are skipped")

	assert.Equal(t, "Fact Check: Moon landing footage is authentic", results[0].Title)
	assert.Equal(t, "https://www.reuters.com/fact-check/moon", results[0].URL)
	assert.Equal(t, "Claims that the 1969 moon landing was staged are false.", results[0].Snippet)

	limited, err := ParseResults(ddgPage, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDuckDuckGo_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "fact check moon landing", r.PostForm.Get("q"))
		_, _ = fmt.Fprint(w, ddgPage)
	})

	text, err := client.Search(context.Background(), "fact check moon landing")
	require.NoError(t, err)

	assert.Contains(t, text, "1. Fact Check: Moon landing footage is authentic [secondary source] (https://www.reuters.com/fact-check/moon)")
	assert.Contains(t, text, "2. They never went [tertiary source]")
	assert.Contains(t, text, "3. Apollo 11 [primary source]")
}

func TestDuckDuckGo_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body><div class="no-results">No results.</div></body></html>`)
	})

	text, err := client.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Equal(t, NoResults, text)
}

func TestDuckDuckGo_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), "anything")
	assert.Error(t, err)
}

func TestDuckDuckGo_CachesByNormalisedQuery(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, ddgPage)
	}, WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))

	first, err := client.Search(context.Background(), "Moon Landing")
	require.NoError(t, err)
	second, err := client.Search(context.Background(), "  moon   landing ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

type denyLimiter struct{}

func (denyLimiter) Wait(ctx context.Context, rawURL string) error {
	return errors.New("rate: Wait(n=1) would exceed context deadline")
}

func TestDuckDuckGo_LimiterError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}, WithLimiter(denyLimiter{}))

	_, err := client.Search(context.Background(), "q")
	assert.Error(t, err)
}

func TestDuckDuckGo_EmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})

	text, err := client.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, NoResults, text)
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(&model.AuthorityConfig{
		PrimaryDomains:   []string{"who.int"},
		SecondaryDomains: []string{"snopes.com"},
		DomainMap:        map[string]string{"altnews.in": "secondary"},
	})

	tests := map[string]model.AuthorityTier{
		"https://www.who.int/news":       model.TierPrimary,
		"https://data.cdc.gov/x":         model.TierPrimary,
		"https://www.snopes.com/fact":    model.TierSecondary,
		"https://altnews.in/story":       model.TierSecondary,
		"https://random-blog.example/p":  model.TierTertiary,
		"not a url":                      model.TierUnknown,
		"https://cs.stanford.edu/people": model.TierPrimary,
	}
	for in, want := range tests {
		assert.Equal(t, want, c.Classify(in), in)
	}
}
