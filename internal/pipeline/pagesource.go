package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/satyamitra/internal/extract"
	"github.com/ppiankov/satyamitra/internal/model"
)

// PageSource fetches a URL and extracts its readable content
type PageSource struct {
	fetcher   *Fetcher
	extractor *extract.PageExtractor
}

// NewPageSource combines a fetcher and an extractor
func NewPageSource(fetcher *Fetcher, extractor *extract.PageExtractor) *PageSource {
	return &PageSource{fetcher: fetcher, extractor: extractor}
}

// FetchPage fetches rawURL, adding https:// when the scheme is missing
func (s *PageSource) FetchPage(ctx context.Context, rawURL string) (*model.Page, error) {
	target := strings.TrimSpace(rawURL)
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	res, err := s.fetcher.FetchWithRetry(ctx, target)
	if err != nil {
		return nil, err
	}

	page, err := s.extractor.Extract(res.HTML, res.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", res.FinalURL, err)
	}
	return page, nil
}
