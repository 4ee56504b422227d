package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ppiankov/satyamitra/internal/llm"
	"github.com/ppiankov/satyamitra/internal/model"
)

// ClaimExtractor turns the raw request input into a single verifiable claim
type ClaimExtractor struct {
	llm      Completer
	pages    PageFetcher
	maxChars int
	logger   *slog.Logger
}

// NewClaimExtractor creates an extractor; maxChars bounds the page text sent for extraction
func NewClaimExtractor(completer Completer, pages PageFetcher, maxChars int, logger *slog.Logger) *ClaimExtractor {
	if maxChars <= 0 {
		maxChars = 2000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimExtractor{llm: completer, pages: pages, maxChars: maxChars, logger: logger}
}

// Extract returns the claim for st. Page fetch and model failures for url input
// fall back to the raw URL string.
func (e *ClaimExtractor) Extract(ctx context.Context, st model.VerificationState) (string, error) {
	switch st.InputType {
	case model.InputImage:
		if st.ImageData == "" {
			return "", ErrMissingImage
		}
		return model.ImageClaim, nil
	case model.InputURL:
		raw := strings.TrimSpace(st.OriginalInput)
		if raw == "" {
			return "", ErrEmptyClaim
		}
		return e.fromPage(ctx, raw), nil
	default:
		if strings.TrimSpace(st.OriginalInput) == "" {
			return "", ErrEmptyClaim
		}
		return st.OriginalInput, nil
	}
}

func (e *ClaimExtractor) fromPage(ctx context.Context, rawURL string) string {
	page, err := e.pages.FetchPage(ctx, rawURL)
	if err != nil {
		e.logger.Warn("Page fetch failed, using raw URL as claim", "url", rawURL, "error", err)
		return rawURL
	}
	if strings.TrimSpace(page.Text) == "" {
		e.logger.Warn("Page has no readable text, using raw URL as claim", "url", rawURL)
		return rawURL
	}

	resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
		Prompt: extractionPrompt(truncateRunes(page.Text, e.maxChars)),
	})
	if err != nil {
		e.logger.Warn("Claim extraction failed, using raw URL as claim", "url", rawURL, "error", err)
		return rawURL
	}
	if resp.Text == "" {
		return rawURL
	}
	return resp.Text
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
