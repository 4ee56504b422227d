package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/satyamitra/internal/model"
)

func TestClaimExtractor_URL(t *testing.T) {
	completer := &fakeLLM{extract: "Claim from page."}
	pages := &fakePages{page: &model.Page{Text: strings.Repeat("a", 3000)}}
	e := NewClaimExtractor(completer, pages, 2000, nil)

	claim, err := e.Extract(context.Background(), model.VerificationState{InputType: model.InputURL, OriginalInput: "example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, "Claim from page.", claim)

	req, ok := completer.find("Extract the single")
	require.True(t, ok)
	assert.Equal(t, extractionPrompt(strings.Repeat("a", 2000)), req.Prompt)
}

func TestClaimExtractor_URLFallbacks(t *testing.T) {
	st := model.VerificationState{InputType: model.InputURL, OriginalInput: "https://example.com/a"}

	t.Run("empty page", func(t *testing.T) {
		e := NewClaimExtractor(&fakeLLM{extract: "x"}, &fakePages{page: &model.Page{Title: "No Title"}}, 0, nil)
		claim, err := e.Extract(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, st.OriginalInput, claim)
	})

	t.Run("model failure", func(t *testing.T) {
		completer := &fakeLLM{failOn: "Extract"}
		e := NewClaimExtractor(completer, &fakePages{page: &model.Page{Text: "text"}}, 0, nil)
		claim, err := e.Extract(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, st.OriginalInput, claim)
	})

	t.Run("empty model answer", func(t *testing.T) {
		e := NewClaimExtractor(&fakeLLM{}, &fakePages{page: &model.Page{Text: "text"}}, 0, nil)
		claim, err := e.Extract(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, st.OriginalInput, claim)
	})
}

func TestClaimExtractor_TextUnchanged(t *testing.T) {
	e := NewClaimExtractor(&fakeLLM{}, &fakePages{}, 0, nil)
	claim, err := e.Extract(context.Background(), model.VerificationState{InputType: model.InputText, OriginalInput: " raw claim "})
	require.NoError(t, err)
	assert.Equal(t, " raw claim ", claim)
}

func TestEvidenceGatherer_URLQueryTruncated(t *testing.T) {
	search := &fakeSearcher{result: "results"}
	g := NewEvidenceGatherer(&fakeLLM{synthesis: "done"}, search, "", 10, 0)

	out, err := g.Research(context.Background(), model.VerificationState{InputType: model.InputURL, ClaimText: "0123456789abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []string{"fact check 0123456789"}, search.queries)
}

func TestEvidenceGatherer_VisionFailure(t *testing.T) {
	completer := &fakeLLM{failOn: visionPrompt[:20]}
	search := &fakeSearcher{}
	g := NewEvidenceGatherer(completer, search, "vision", 0, 0)

	_, err := g.Research(context.Background(), model.VerificationState{InputType: model.InputImage, ImageData: "data:image/png;base64,AA"})
	require.ErrorIs(t, err, ErrProviderFailure)
	assert.Empty(t, search.queries)
}

func TestCritic(t *testing.T) {
	base := model.VerificationState{Conversation: []model.Message{{Role: model.MessageAssistant, Content: "evidence"}}}

	t.Run("approved", func(t *testing.T) {
		c := NewCritic(&fakeLLM{critiques: []string{"APPROVED"}}, 1)
		st, rejected, err := c.Review(context.Background(), base)
		require.NoError(t, err)
		assert.False(t, rejected)
		assert.True(t, st.IsVerified)
		assert.Equal(t, acceptedMessage, st.LastMessage())
		assert.Len(t, base.Conversation, 1)
	})

	t.Run("rejected with budget", func(t *testing.T) {
		c := NewCritic(&fakeLLM{critiques: []string{"REJECTED [thin]"}}, 1)
		st, rejected, err := c.Review(context.Background(), base)
		require.NoError(t, err)
		assert.True(t, rejected)
		assert.False(t, st.IsVerified)
		assert.Equal(t, 1, st.RevisionCount)
		assert.Equal(t, "Critique: REJECTED [thin]", st.LastMessage())
	})

	t.Run("lowercase rejection counts", func(t *testing.T) {
		c := NewCritic(&fakeLLM{critiques: []string{"  rejected: no primary sources"}}, 1)
		st, rejected, err := c.Review(context.Background(), base)
		require.NoError(t, err)
		assert.True(t, rejected)
		assert.Equal(t, 1, st.RevisionCount)
	})

	t.Run("rejected without budget", func(t *testing.T) {
		c := NewCritic(&fakeLLM{critiques: []string{"REJECTED [thin]"}}, 1)
		exhausted := base.WithReview(false, 1)
		st, rejected, err := c.Review(context.Background(), exhausted)
		require.NoError(t, err)
		assert.False(t, rejected)
		assert.True(t, st.IsVerified)
		assert.Equal(t, 1, st.RevisionCount)
	})

	t.Run("budget capped at one", func(t *testing.T) {
		c := NewCritic(&fakeLLM{}, 5)
		assert.Equal(t, 1, c.maxRevisions)
	})

	t.Run("internal record fast path", func(t *testing.T) {
		completer := &fakeLLM{}
		status := "INTERNAL RECORD FOUND: bbc.com is confirmed as **TRUSTED** (Confidence: 95%)."
		c := NewCritic(completer, 1)
		st, _, err := c.Review(context.Background(), base.WithDomainStatus(&status))
		require.NoError(t, err)
		assert.True(t, st.IsVerified)
		assert.Equal(t, "Internal Match ("+status+"). Auto-Approved.", st.LastMessage())
		assert.Empty(t, completer.calls)
	})

	t.Run("model failure", func(t *testing.T) {
		c := NewCritic(&fakeLLM{failOn: "Review"}, 1)
		_, _, err := c.Review(context.Background(), base)
		assert.ErrorIs(t, err, ErrProviderFailure)
	})
}

func TestCanWriteReputation(t *testing.T) {
	tests := []struct {
		name string
		st   model.VerificationState
		want bool
	}{
		{"admin https", model.VerificationState{InputType: model.InputURL, UserRole: model.RoleAdmin, OriginalInput: "https://a.com/x"}, true},
		{"admin http", model.VerificationState{InputType: model.InputURL, UserRole: model.RoleAdmin, OriginalInput: "http://a.com"}, true},
		{"standard", model.VerificationState{InputType: model.InputURL, UserRole: model.RoleStandard, OriginalInput: "https://a.com"}, false},
		{"admin text", model.VerificationState{InputType: model.InputText, UserRole: model.RoleAdmin, OriginalInput: "https://a.com"}, false},
		{"bare host", model.VerificationState{InputType: model.InputURL, UserRole: model.RoleAdmin, OriginalInput: "a.com"}, false},
		{"no host", model.VerificationState{InputType: model.InputURL, UserRole: model.RoleAdmin, OriginalInput: "https://"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canWriteReputation(tt.st))
		})
	}
}

func TestResearchFor(t *testing.T) {
	st := model.VerificationState{Conversation: []model.Message{
		{Role: model.MessageUser, Content: "claim"},
		{Role: model.MessageAssistant, Content: "research"},
		{Role: model.MessageAssistant, Content: acceptedMessage},
	}}
	assert.Equal(t, "research", researchFor(st))

	status := "INTERNAL RECORD FOUND: a"
	assert.Equal(t, status, researchFor(st.WithDomainStatus(&status)))

	single := model.VerificationState{Conversation: []model.Message{{Content: "only"}}}
	assert.Equal(t, "only", researchFor(single))
}

func TestSourceLogs_URLWithoutDomain(t *testing.T) {
	logs := sourceLogs(model.VerificationState{InputType: model.InputURL, OriginalInput: "   "}, 7, model.VerdictTrue, "")
	require.Len(t, logs, 3)
	assert.Equal(t, "N/A", logs[1].SourceIdentifier)
	for _, l := range logs {
		assert.Equal(t, uint(7), l.ClaimID)
	}
}

func TestRandomOrigin(t *testing.T) {
	for range 20 {
		assert.Contains(t, Origins, RandomOrigin())
	}
}
