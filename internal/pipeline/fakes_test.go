package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/satyamitra/internal/llm"
	"github.com/ppiankov/satyamitra/internal/model"
)

const (
	falseReport = "**Image Description:** N/A\n\n**Verdict:** FALSE\n\n**Claim Analyzed:** x\n\n**Summary:** No.\n" +
		ReportDelimiter + "\n**Investigation Report**"
	misleadingReport = "**Verdict:** MISLEADING\n\n**Summary:** Partly.\n" + ReportDelimiter + "\nDetails"
)

var errBoom = errors.New("boom")

// fakeLLM answers each prompt family with a canned response
type fakeLLM struct {
	mu        sync.Mutex
	calls     []llm.CompletionRequest
	extract   string
	vision    string
	synthesis string
	critiques []string
	report    string
	failOn    string
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	if f.failOn != "" && strings.HasPrefix(req.Prompt, f.failOn) {
		return nil, errBoom
	}

	var text string
	switch {
	case req.Image != "":
		text = f.vision
	case strings.HasPrefix(req.Prompt, "Extract the single"):
		text = f.extract
	case strings.HasPrefix(req.Prompt, "Intelligence on claim"):
		text = f.synthesis
	case strings.HasPrefix(req.Prompt, "Review this research"):
		text = "APPROVED"
		if len(f.critiques) > 0 {
			text = f.critiques[0]
			f.critiques = f.critiques[1:]
		}
	case strings.HasPrefix(req.Prompt, "Based on the following"):
		text = f.report
	}
	return &llm.CompletionResponse{Text: text, Model: "fake"}, nil
}

func (f *fakeLLM) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c.Prompt, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeLLM) find(prefix string) (llm.CompletionRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.HasPrefix(c.Prompt, prefix) {
			return c, true
		}
	}
	return llm.CompletionRequest{}, false
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	result  string
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

type fakePages struct {
	page *model.Page
	err  error
	urls []string
}

func (f *fakePages) FetchPage(_ context.Context, rawURL string) (*model.Page, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

var errMissing = errors.New("missing")

// memBackend is an in-memory reputation table
type memBackend struct {
	mu      sync.Mutex
	records map[string]model.ReputationRecord
	upserts int
}

func newMemBackend(recs ...model.ReputationRecord) *memBackend {
	b := &memBackend{records: make(map[string]model.ReputationRecord)}
	for _, r := range recs {
		b.records[r.Domain] = r
	}
	return b
}

func (b *memBackend) GetReputation(_ context.Context, domain string) (*model.ReputationRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[domain]
	if !ok {
		return nil, errMissing
	}
	return &rec, nil
}

func (b *memBackend) UpsertReputation(_ context.Context, rec model.ReputationRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upserts++
	b.records[rec.Domain] = rec
	return nil
}

type fakeHistory struct {
	mu        sync.Mutex
	entries   []model.HistoryEntry
	logs      []model.SourceLogEntry
	insertErr error
	logsErr   error
}

func (f *fakeHistory) InsertHistory(_ context.Context, entry model.HistoryEntry) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.entries = append(f.entries, entry)
	return uint(len(f.entries)), nil
}

func (f *fakeHistory) InsertSourceLogs(_ context.Context, logs []model.SourceLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logsErr != nil {
		return f.logsErr
	}
	f.logs = append(f.logs, logs...)
	return nil
}

type countingObserver struct {
	mu        sync.Mutex
	nodes     []string
	runs      int
	fallbacks int
	retries   int
}

func (o *countingObserver) NodeDone(node string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nodes = append(o.nodes, node)
}

func (o *countingObserver) RunDone(model.InputType, model.Verdict) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
}

func (o *countingObserver) VerdictFallback() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks++
}

func (o *countingObserver) CritiqueRetry() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries++
}

type eventLog struct {
	mu     sync.Mutex
	events []model.Event
}

func (l *eventLog) emit(e model.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) nodes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		if e.Type == model.EventStep {
			out = append(out, e.ActiveNode)
		}
	}
	return out
}

func (l *eventLog) last() model.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}
