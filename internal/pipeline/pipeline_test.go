package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/reputation"
)

type harness struct {
	llm      *fakeLLM
	search   *fakeSearcher
	pages    *fakePages
	backend  *memBackend
	history  *fakeHistory
	observer *countingObserver
	events   *eventLog
	p        *Pipeline
}

func newHarness(t *testing.T, recs ...model.ReputationRecord) *harness {
	t.Helper()
	h := &harness{
		llm: &fakeLLM{
			extract:   "The city banned cars on Sundays.",
			vision:    "A crowd on a beach; hands look distorted.",
			synthesis: "Reuters and BBC report the opposite.",
			report:    falseReport,
		},
		search:   &fakeSearcher{result: "1. Fact check [secondary source] (https://reuters.com/x)"},
		pages:    &fakePages{page: &model.Page{Title: "Story", Text: "Long article text about cars."}},
		backend:  newMemBackend(recs...),
		history:  &fakeHistory{},
		observer: &countingObserver{},
		events:   &eventLog{},
	}

	cache := reputation.New(h.backend, reputation.WithTTL(0), reputation.WithNotFound(errMissing))
	var seq int
	p, err := New(Deps{
		LLM:        h.llm,
		Search:     h.search,
		Pages:      h.pages,
		Reputation: cache,
		History:    h.history,
	}, Config{MaxRevisions: 1, VisionModel: "gpt-4o"},
		WithObserver(h.observer),
		WithOriginPicker(func() Origin { return Origins[2] }),
		WithRunIDs(func() string { seq++; return fmt.Sprintf("run-%d", seq) }),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	h.p = p
	return h
}

func (h *harness) run(t *testing.T, req model.Request) (*Result, error) {
	t.Helper()
	return h.p.Run(context.Background(), req, h.events.emit)
}

func TestRun_TextClaim(t *testing.T) {
	h := newHarness(t)

	res, err := h.run(t, model.Request{
		Text:        "The moon landing was faked",
		RequesterID: "u1",
		InputType:   model.InputText,
		UserRole:    model.RoleStandard,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, model.VerdictFalse, res.Verdict)
	assert.Equal(t, falseReport, res.Report)
	assert.Equal(t, uint(1), res.HistoryID)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, []string{"start", "pre_processor", "researcher", "skeptic", "reporter", "end"}, h.events.nodes())
	assert.Equal(t, model.ResultEvent(falseReport), h.events.last())

	assert.Equal(t, []string{"fact check The moon landing was faked"}, h.search.queries)
	assert.Equal(t, 1, h.llm.count("Intelligence on claim"))
	assert.Equal(t, 0, h.llm.count("Extract the single"))
	assert.Empty(t, h.pages.urls)

	assert.True(t, res.State.IsVerified)
	assert.Equal(t, 0, res.State.RevisionCount)
	assert.Equal(t, "The moon landing was faked", res.State.ClaimText)
	assert.Nil(t, res.State.DomainStatus)

	require.Len(t, h.history.entries, 1)
	entry := h.history.entries[0]
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, model.VerdictFalse, entry.Verdict)
	assert.Equal(t, "London", entry.OriginCity)
	assert.Equal(t, "UK", entry.OriginCountry)
	assert.Equal(t, model.RoleStandard, entry.UserRole)
	assert.Equal(t, 0, h.backend.upserts)

	assert.Equal(t, []model.SourceLogEntry{
		{ClaimID: 1, SourceType: model.SourceExternalWeb, SourceIdentifier: "DuckDuckGo/Search Engine", Verdict: model.VerdictFalse},
		{ClaimID: 1, SourceType: model.SourceInternalDB, SourceIdentifier: "satyamitra.db (MCP)", Verdict: model.VerdictFalse},
	}, h.history.logs)
	assert.Equal(t, 1, h.observer.runs)
}

func TestRun_StepEventDetails(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, model.Request{Text: "Water boils at 50C", InputType: model.InputText})
	require.NoError(t, err)

	events := h.events.events
	require.Len(t, events, 7)
	assert.Equal(t, model.StepEvent("start", NodeStart.Status(), "Water boils at 50C"), events[0])
	assert.Equal(t, "Water boils at 50C", events[1].Details)
	assert.Equal(t, "Reuters and BBC report the opposite.", events[2].Details)
	assert.Equal(t, acceptedMessage, events[3].Details)
	assert.Equal(t, falseReport, events[4].Details)
	assert.Equal(t, model.StepEvent("end", NodeEnd.Status(), "FALSE"), events[5])
}

func TestRun_RejectedOnceThenForceApproved(t *testing.T) {
	h := newHarness(t)
	h.llm.critiques = []string{"REJECTED [sources vague]", "  REJECTED [still vague]"}

	res, err := h.run(t, model.Request{Text: "The moon landing was faked", InputType: model.InputText})
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "pre_processor", "researcher", "skeptic", "researcher", "skeptic", "reporter", "end"},
		h.events.nodes())
	assert.Equal(t, 2, h.llm.count("Intelligence on claim"))
	assert.Equal(t, 2, h.llm.count("Review this research"))
	assert.Equal(t, 1, res.State.RevisionCount)
	assert.True(t, res.State.IsVerified)
	assert.Equal(t, 1, h.observer.retries)
	assert.Len(t, h.history.entries, 1)

	var critiques int
	for _, m := range res.State.Conversation {
		if m.Content == "Critique: REJECTED [sources vague]" {
			critiques++
		}
	}
	assert.Equal(t, 1, critiques)
}

func TestRun_RevisionCountBounded(t *testing.T) {
	for _, input := range []model.InputType{model.InputText, model.InputURL, model.InputImage} {
		t.Run(string(input), func(t *testing.T) {
			h := newHarness(t)
			h.llm.critiques = []string{"REJECTED a", "REJECTED b", "REJECTED c", "REJECTED d"}

			res, err := h.run(t, model.Request{
				Text:      "https://news.example.org/a",
				InputType: input,
				ImageData: "data:image/png;base64,AAAA",
			})
			require.NoError(t, err)
			assert.LessOrEqual(t, res.State.RevisionCount, 1)
			assert.LessOrEqual(t, h.llm.count("Intelligence on claim"), 2)
		})
	}
}

func TestRun_URLCacheHitBypassesResearch(t *testing.T) {
	h := newHarness(t, model.ReputationRecord{Domain: "theonion.com", Status: model.StatusSatire, Confidence: 100})

	res, err := h.run(t, model.Request{
		Text:      "https://www.theonion.com/some-story",
		InputType: model.InputURL,
		UserRole:  model.RoleStandard,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "pre_processor", "db_analyst", "reporter", "end"}, h.events.nodes())
	assert.Equal(t, 0, h.llm.count("Intelligence on claim"))
	assert.Equal(t, 0, h.llm.count("Review this research"))
	assert.Empty(t, h.search.queries)

	assert.True(t, res.State.IsVerified)
	require.NotNil(t, res.State.DomainStatus)
	assert.Contains(t, *res.State.DomainStatus, "INTERNAL RECORD FOUND: theonion.com")

	report, ok := h.llm.find("Based on the following")
	require.True(t, ok)
	assert.Contains(t, report.Prompt, "confirmed as **SATIRE** (Confidence: 100%)")
}

func TestRun_URLCacheMissResearches(t *testing.T) {
	h := newHarness(t)

	res, err := h.run(t, model.Request{Text: "https://news.example.org/a", InputType: model.InputURL})
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "pre_processor", "db_analyst", "researcher", "skeptic", "reporter", "end"}, h.events.nodes())
	assert.Equal(t, reputation.NoRecord, h.events.events[2].Details)
	assert.Equal(t, "The city banned cars on Sundays.", res.State.ClaimText)
	assert.Equal(t, []string{"https://news.example.org/a"}, h.pages.urls)
	assert.Equal(t, []string{"fact check The city banned cars on Sundays."}, h.search.queries)

	synth, ok := h.llm.find("Intelligence on claim")
	require.True(t, ok)
	assert.Contains(t, synth.Prompt, "**Claims:** The city banned cars on Sundays.\n**Verification:** 1. Fact check")

	var scraping []string
	for _, l := range h.history.logs {
		if l.SourceType == model.SourceScraping {
			scraping = append(scraping, l.SourceIdentifier)
		}
	}
	assert.Equal(t, []string{"news.example.org"}, scraping)
}

func TestRun_URLStandardRoleDoesNotWriteReputation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, model.Request{
		Text:      "https://example.com/story",
		InputType: model.InputURL,
		UserRole:  model.RoleStandard,
	})
	require.NoError(t, err)

	assert.Len(t, h.history.entries, 1)
	assert.Equal(t, 0, h.backend.upserts)
	_, err = h.backend.GetReputation(context.Background(), "example.com")
	assert.ErrorIs(t, err, errMissing)
}

func TestRun_URLAdminWritesReputation(t *testing.T) {
	h := newHarness(t)
	h.llm.report = misleadingReport

	res, err := h.run(t, model.Request{
		Text:      "https://www.example.com/story",
		InputType: model.InputURL,
		UserRole:  model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictMisleading, res.Verdict)

	rec, err := h.backend.GetReputation(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnverified, rec.Status)
	assert.Equal(t, 70, rec.Confidence)
}

func TestRun_AdminBareHostSkipsReputationWrite(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, model.Request{Text: "example.com/story", InputType: model.InputURL, UserRole: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 0, h.backend.upserts)
}

func TestRun_URLFetchFailureFallsBackToRawURL(t *testing.T) {
	h := newHarness(t)
	h.pages.err = errBoom

	res, err := h.run(t, model.Request{Text: "https://down.example.org/x", InputType: model.InputURL})
	require.NoError(t, err)
	assert.Equal(t, "https://down.example.org/x", res.State.ClaimText)
	assert.Equal(t, 0, h.llm.count("Extract the single"))
}

func TestRun_ImageInput(t *testing.T) {
	h := newHarness(t)

	res, err := h.run(t, model.Request{
		InputType: model.InputImage,
		ImageData: "data:image/jpeg;base64,/9j/AAAA",
		UserRole:  model.RoleAdmin,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ImageClaim, res.State.ClaimText)
	vision := h.llm.calls[0]
	assert.Equal(t, "data:image/jpeg;base64,/9j/AAAA", vision.Image)
	assert.Equal(t, "gpt-4o", vision.Model)
	assert.Equal(t, []string{"fact check image: A crowd on a beach; hands look distorted."}, h.search.queries)

	synth, ok := h.llm.find("Intelligence on claim")
	require.True(t, ok)
	assert.Contains(t, synth.Prompt, "**Visual Analysis:**\nA crowd on a beach")

	assert.Equal(t, 0, h.backend.upserts)
	var types []string
	for _, l := range h.history.logs {
		types = append(types, l.SourceType+"/"+l.SourceIdentifier)
	}
	assert.Equal(t, []string{"AI Vision Model/gpt-4o", "Internal DB/satyamitra.db (MCP)"}, types)
}

func TestRun_ResearchFailureEmitsSingleError(t *testing.T) {
	h := newHarness(t)
	h.search.err = errBoom

	res, err := h.run(t, model.Request{Text: "claim", InputType: model.InputText})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.ErrorIs(t, err, errBoom)

	last := h.events.last()
	assert.Equal(t, model.EventError, last.Type)
	assert.Contains(t, last.Message, "Critical Agent Error: ProviderFailure: ")
	for _, e := range h.events.events {
		assert.NotEqual(t, model.EventResult, e.Type)
	}
	assert.Empty(t, h.history.entries)
}

func TestRun_ReporterFailure(t *testing.T) {
	h := newHarness(t)
	h.llm.failOn = "Based on the following"

	_, err := h.run(t, model.Request{Text: "claim", InputType: model.InputText})
	require.ErrorIs(t, err, ErrProviderFailure)
	assert.Empty(t, h.history.entries)
	assert.Equal(t, model.EventError, h.events.last().Type)
}

func TestRun_HistoryFailureIsWarning(t *testing.T) {
	h := newHarness(t)
	h.history.insertErr = errBoom

	res, err := h.run(t, model.Request{Text: "claim", InputType: model.InputText})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "history not recorded")
	assert.Equal(t, model.EventResult, h.events.last().Type)
}

func TestRun_SourceLogFailureIsWarning(t *testing.T) {
	h := newHarness(t)
	h.history.logsErr = errBoom

	res, err := h.run(t, model.Request{Text: "claim", InputType: model.InputText})
	require.NoError(t, err)
	assert.Equal(t, uint(1), res.HistoryID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "source logs not recorded")
}

func TestRun_UnrecognisedVerdictDefaults(t *testing.T) {
	h := newHarness(t)
	h.llm.report = "I could not decide."

	res, err := h.run(t, model.Request{Text: "claim", InputType: model.InputText})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictUnverified, res.Verdict)
	assert.Equal(t, 1, h.observer.fallbacks)
	assert.Equal(t, model.VerdictUnverified, h.history.entries[0].Verdict)
}

func TestRun_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  model.Request
		want error
	}{
		{"empty text", model.Request{Text: "  ", InputType: model.InputText}, ErrEmptyClaim},
		{"empty url", model.Request{InputType: model.InputURL}, ErrEmptyClaim},
		{"image without data", model.Request{Text: "look", InputType: model.InputImage}, ErrMissingImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.run(t, tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, "InvalidRequest", ErrorKind(err))
			assert.Empty(t, h.llm.calls)
		})
	}
}

func TestRun_CanceledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.p.Run(ctx, model.Request{Text: "claim"}, h.events.emit)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Canceled", ErrorKind(err))
	require.Len(t, h.events.events, 1)
	assert.Equal(t, model.EventError, h.events.events[0].Type)
}

func TestRun_NilEmit(t *testing.T) {
	h := newHarness(t)
	res, err := h.p.Run(context.Background(), model.Request{Text: "claim"}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictFalse, res.Verdict)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	full := Deps{
		LLM:        &fakeLLM{},
		Search:     &fakeSearcher{},
		Pages:      &fakePages{},
		Reputation: reputation.New(newMemBackend()),
		History:    &fakeHistory{},
	}
	_, err := New(full, Config{})
	require.NoError(t, err)

	missing := full
	missing.History = nil
	_, err = New(missing, Config{})
	assert.Error(t, err)

	missing = full
	missing.LLM = nil
	_, err = New(missing, Config{})
	assert.Error(t, err)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "Timeout", ErrorKind(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.Equal(t, "ProviderFailure", ErrorKind(providerFailure("search", errBoom)))
	assert.Equal(t, "TransitionLimit", ErrorKind(ErrTransitionLimit))
	assert.Equal(t, "InternalError", ErrorKind(errBoom))
	assert.Equal(t, "Critical Agent Error: InternalError: boom", ErrorMessage(errBoom))
}
