package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/satyamitra/internal/llm"
	"github.com/ppiankov/satyamitra/internal/model"
)

// EvidenceGatherer collects external evidence for a claim and condenses it for review
type EvidenceGatherer struct {
	llm             Completer
	search          Searcher
	visionModel     string
	urlQueryChars   int
	imageQueryChars int
}

// NewEvidenceGatherer creates a gatherer. visionModel may be empty to use the provider default.
func NewEvidenceGatherer(completer Completer, searcher Searcher, visionModel string, urlQueryChars, imageQueryChars int) *EvidenceGatherer {
	if urlQueryChars <= 0 {
		urlQueryChars = 200
	}
	if imageQueryChars <= 0 {
		imageQueryChars = 150
	}
	return &EvidenceGatherer{
		llm:             completer,
		search:          searcher,
		visionModel:     visionModel,
		urlQueryChars:   urlQueryChars,
		imageQueryChars: imageQueryChars,
	}
}

// Research gathers evidence for st.ClaimText and returns the synthesized findings.
// Any collaborator failure aborts with ErrProviderFailure.
func (g *EvidenceGatherer) Research(ctx context.Context, st model.VerificationState) (string, error) {
	var summary string

	switch st.InputType {
	case model.InputImage:
		resp, err := g.llm.Complete(ctx, llm.CompletionRequest{
			Prompt: visionPrompt,
			Image:  st.ImageData,
			Model:  g.visionModel,
		})
		if err != nil {
			return "", providerFailure("vision", err)
		}
		results, err := g.search.Search(ctx, "fact check image: "+truncateRunes(resp.Text, g.imageQueryChars))
		if err != nil {
			return "", providerFailure("search", err)
		}
		summary = fmt.Sprintf("**Visual Analysis:**\n%s\n\n**External Verification:**\n%s", resp.Text, results)
	case model.InputURL:
		results, err := g.search.Search(ctx, "fact check "+truncateRunes(st.ClaimText, g.urlQueryChars))
		if err != nil {
			return "", providerFailure("search", err)
		}
		summary = fmt.Sprintf("**Claims:** %s\n**Verification:** %s", st.ClaimText, results)
	default:
		results, err := g.search.Search(ctx, "fact check "+st.ClaimText)
		if err != nil {
			return "", providerFailure("search", err)
		}
		summary = results
	}

	resp, err := g.llm.Complete(ctx, llm.CompletionRequest{Prompt: synthesisPrompt(st.ClaimText, summary)})
	if err != nil {
		return "", providerFailure("synthesis", err)
	}
	return resp.Text, nil
}
