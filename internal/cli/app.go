package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ppiankov/satyamitra/internal/cache"
	"github.com/ppiankov/satyamitra/internal/extract"
	"github.com/ppiankov/satyamitra/internal/llm"
	"github.com/ppiankov/satyamitra/internal/metrics"
	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/pipeline"
	"github.com/ppiankov/satyamitra/internal/reputation"
	"github.com/ppiankov/satyamitra/internal/search"
	"github.com/ppiankov/satyamitra/internal/store"
	"github.com/ppiankov/satyamitra/internal/worker"
)

// app holds the wired collaborators shared by the commands
type app struct {
	cfg        *model.Config
	logger     *slog.Logger
	store      *store.Store
	metrics    *metrics.Metrics
	reputation *reputation.Cache
	pipeline   *pipeline.Pipeline
}

// newStoreApp opens storage and the reputation cache only
func newStoreApp(ctx context.Context, cfg *model.Config, logger *slog.Logger, repOpts ...reputation.Option) (*app, error) {
	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := append([]reputation.Option{
		reputation.WithLogger(logger),
		reputation.WithObserver(m.ReputationLookup),
		reputation.WithNotFound(store.ErrNotFound),
	}, repOpts...)
	rep := reputation.New(st, opts...)

	return &app{cfg: cfg, logger: logger, store: st, metrics: m, reputation: rep}, nil
}

// newToolApp opens storage for the standalone tool server. Its cache has no
// memory layer: upserts come from other processes and must be visible at once.
func newToolApp(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*app, error) {
	return newStoreApp(ctx, cfg, logger, reputation.WithTTL(0))
}

// newApp wires the full verification pipeline
func newApp(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*app, error) {
	a, err := newStoreApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	llmCfg := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	limiter := worker.NewLimiter(2, 4)
	if u, err := url.Parse(cfg.Search.Endpoint); err == nil && u.Hostname() != "" && cfg.Search.RateLimit > 0 {
		limiter.SetDomainRate(u.Hostname(), cfg.Search.RateLimit, 1)
	}

	searcher := search.NewDuckDuckGo(cfg.Search, cfg.HTTP,
		search.WithCache(cache.New(cfg.Search.CacheTTL, cfg.Search.CacheDir)),
		search.WithLimiter(limiter),
		search.WithClassifier(search.NewClassifier(&cfg.Authority)),
		search.WithLogger(logger),
	)

	fetcher := pipeline.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.RespectRobots,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy, pipeline.WithRateLimiter(limiter))
	pages := pipeline.NewPageSource(fetcher, extract.NewPageExtractor(0, 0))

	p, err := pipeline.New(pipeline.Deps{
		LLM:        provider,
		Search:     searcher,
		Pages:      pages,
		Reputation: a.reputation,
		History:    a.store,
	}, pipeline.ConfigFromModel(cfg.Pipeline, llm.VisionModelName(llmCfg)),
		pipeline.WithLogger(logger),
		pipeline.WithObserver(a.metrics),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.pipeline = p

	logger.Debug("Pipeline ready", "provider", provider.Name(), "model", cfg.LLM.Model, "database", cfg.Database.Driver)
	return a, nil
}

// Close releases the store
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
