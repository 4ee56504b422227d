package pipeline

import (
	"context"

	"github.com/ppiankov/satyamitra/internal/llm"
	"github.com/ppiankov/satyamitra/internal/model"
)

// Completer is the language-generation and vision collaborator
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Searcher returns a ranked snippet block for a query
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// PageFetcher fetches and parses a web page
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*model.Page, error)
}

// ReputationCache is the domain reputation lookup and write surface
type ReputationCache interface {
	Lookup(ctx context.Context, rawURL string) (*model.ReputationRecord, bool)
	Upsert(ctx context.Context, rawURL string, verdict model.Verdict, claim string) error
}

// HistoryStore persists completed runs
type HistoryStore interface {
	InsertHistory(ctx context.Context, entry model.HistoryEntry) (uint, error)
	InsertSourceLogs(ctx context.Context, logs []model.SourceLogEntry) error
}

// RateLimiter paces outbound requests per host
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}
