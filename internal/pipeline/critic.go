package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/satyamitra/internal/llm"
	"github.com/ppiankov/satyamitra/internal/model"
)

const (
	internalRecordMarker = "INTERNAL RECORD FOUND"
	acceptedMessage      = "Evidence accepted. Proceeding to final report."
)

// Critic judges whether gathered evidence is sufficient
type Critic struct {
	llm          Completer
	maxRevisions int
}

// NewCritic creates a critic allowing at most maxRevisions rejections, capped at one
func NewCritic(completer Completer, maxRevisions int) *Critic {
	return &Critic{llm: completer, maxRevisions: min(max(maxRevisions, 0), 1)}
}

// Review returns st with the critique merged in. Rejected reports the case where
// another research pass was requested.
func (c *Critic) Review(ctx context.Context, st model.VerificationState) (next model.VerificationState, rejected bool, err error) {
	if approved, ok := autoApprove(st); ok {
		return approved, false, nil
	}

	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{Prompt: critiquePrompt(st.LastMessage())})
	if err != nil {
		return st, false, providerFailure("critique", err)
	}

	text := strings.TrimSpace(resp.Text)
	if strings.HasPrefix(strings.ToUpper(text), "REJECTED") && st.RevisionCount < c.maxRevisions {
		return st.WithMessage(model.MessageAssistant, "Critique: "+text).
			WithReview(false, st.RevisionCount+1), true, nil
	}
	return st.WithMessage(model.MessageAssistant, acceptedMessage).
		WithReview(true, st.RevisionCount), false, nil
}

// autoApprove accepts a state backed by an internal reputation record without review
func autoApprove(st model.VerificationState) (model.VerificationState, bool) {
	if st.DomainStatus == nil || !strings.Contains(*st.DomainStatus, internalRecordMarker) {
		return st, false
	}
	msg := fmt.Sprintf("Internal Match (%s). Auto-Approved.", *st.DomainStatus)
	return st.WithMessage(model.MessageAssistant, msg).WithReview(true, st.RevisionCount), true
}
