// Package pipeline runs a claim through the verification state machine:
// claim extraction, reputation lookup, research, critique and reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/reputation"
)

// Deps are the external collaborators of a pipeline
type Deps struct {
	LLM        Completer
	Search     Searcher
	Pages      PageFetcher
	Reputation ReputationCache
	History    HistoryStore
}

// Config holds the state machine limits
type Config struct {
	MaxRevisions    int
	ExtractChars    int
	URLQueryChars   int
	ImageQueryChars int
	VisionModel     string
}

// ConfigFromModel builds a Config from the file configuration
func ConfigFromModel(cfg model.PipelineConfig, visionModel string) Config {
	return Config{
		MaxRevisions:    cfg.MaxRevisions,
		ExtractChars:    cfg.ExtractChars,
		URLQueryChars:   cfg.URLQueryChars,
		ImageQueryChars: cfg.ImageQueryChars,
		VisionModel:     visionModel,
	}
}

// Result is the outcome of a completed run
type Result struct {
	RunID     string                  `json:"run_id"`
	Report    string                  `json:"report"`
	Verdict   model.Verdict           `json:"verdict"`
	State     model.VerificationState `json:"state"`
	HistoryID uint                    `json:"history_id,omitempty"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// Pipeline drives one claim at a time through the state machine.
// A Pipeline is safe for concurrent use; each Run owns its state.
type Pipeline struct {
	extractor  *ClaimExtractor
	gatherer   *EvidenceGatherer
	critic     *Critic
	reporter   *Reporter
	reputation ReputationCache

	logger   *slog.Logger
	observer Observer
	origin   OriginPicker
	runID    func() string
	now      func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver sets the telemetry observer
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithOriginPicker replaces the random history origin
func WithOriginPicker(fn OriginPicker) Option {
	return func(p *Pipeline) { p.origin = fn }
}

// WithRunIDs replaces the run identifier generator
func WithRunIDs(fn func() string) Option {
	return func(p *Pipeline) { p.runID = fn }
}

// WithClock replaces the history timestamp source
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) { p.now = fn }
}

// New wires a pipeline from its collaborators
func New(deps Deps, cfg Config, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.LLM == nil:
		return nil, errors.New("pipeline: language model is required")
	case deps.Search == nil:
		return nil, errors.New("pipeline: searcher is required")
	case deps.Pages == nil:
		return nil, errors.New("pipeline: page fetcher is required")
	case deps.Reputation == nil:
		return nil, errors.New("pipeline: reputation cache is required")
	case deps.History == nil:
		return nil, errors.New("pipeline: history store is required")
	}

	p := &Pipeline{
		reputation: deps.Reputation,
		logger:     slog.Default(),
		observer:   nopObserver{},
		origin:     RandomOrigin,
		runID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.extractor = NewClaimExtractor(deps.LLM, deps.Pages, cfg.ExtractChars, p.logger)
	p.gatherer = NewEvidenceGatherer(deps.LLM, deps.Search, cfg.VisionModel, cfg.URLQueryChars, cfg.ImageQueryChars)
	p.critic = NewCritic(deps.LLM, cfg.MaxRevisions)
	p.reporter = NewReporter(deps.LLM, deps.Reputation, deps.History, cfg.VisionModel, p.logger)
	p.reporter.origin = p.origin
	p.reporter.observer = p.observer
	p.reporter.now = p.now
	return p, nil
}

type run struct {
	state  model.VerificationState
	report *Report
}

// Run verifies req, emitting one step event per node followed by exactly one
// result or error event. emit may be nil.
func (p *Pipeline) Run(ctx context.Context, req model.Request, emit func(model.Event)) (*Result, error) {
	if emit == nil {
		emit = func(model.Event) {}
	}

	r := &run{state: model.NewState(p.runID(), req)}
	logger := p.logger.With("run_id", r.state.RunID)
	logger.Info("Verification started", "input_type", r.state.InputType, "role", r.state.UserRole)

	fail := func(node Node, err error) (*Result, error) {
		err = fmt.Errorf("%s: %w", node, err)
		logger.Error("Verification failed", "node", node, "error", err)
		emit(model.ErrorEvent(ErrorMessage(err)))
		return nil, err
	}

	node := NodeStart
	for steps := 1; ; steps++ {
		if steps > maxTransitions {
			return fail(node, ErrTransitionLimit)
		}
		if err := ctx.Err(); err != nil {
			return fail(node, err)
		}

		started := time.Now()
		details, err := p.exec(ctx, r, node)
		p.observer.NodeDone(string(node), time.Since(started), err)
		if err != nil {
			return fail(node, err)
		}
		logger.Debug("Node complete", "node", node, "elapsed", time.Since(started))
		emit(model.StepEvent(string(node), node.Status(), details))

		if node == NodeEnd {
			break
		}
		following, err := next(node, r.state)
		if err != nil {
			return fail(node, err)
		}
		node = following
	}

	emit(model.ResultEvent(r.report.Text))
	p.observer.RunDone(r.state.InputType, r.report.Verdict)
	logger.Info("Verification complete", "verdict", r.report.Verdict, "revisions", r.state.RevisionCount)

	return &Result{
		RunID:     r.state.RunID,
		Report:    r.report.Text,
		Verdict:   r.report.Verdict,
		State:     r.state,
		HistoryID: r.report.HistoryID,
		Warnings:  r.report.Warnings,
	}, nil
}

// exec runs node against r and returns the step event details
func (p *Pipeline) exec(ctx context.Context, r *run, node Node) (string, error) {
	switch node {
	case NodeStart:
		return r.state.OriginalInput, nil

	case NodePreProcessor:
		claim, err := p.extractor.Extract(ctx, r.state)
		if err != nil {
			return "", err
		}
		r.state = r.state.WithClaim(claim)
		return claim, nil

	case NodeDBAnalyst:
		rec, ok := p.reputation.Lookup(ctx, r.state.OriginalInput)
		if !ok {
			return reputation.NoRecord, nil
		}
		status := reputation.DomainStatus(rec)
		r.state, _ = autoApprove(r.state.WithDomainStatus(&status))
		return status, nil

	case NodeResearcher:
		research, err := p.gatherer.Research(ctx, r.state)
		if err != nil {
			return "", err
		}
		r.state = r.state.WithMessage(model.MessageAssistant, research)
		return research, nil

	case NodeSkeptic:
		st, rejected, err := p.critic.Review(ctx, r.state)
		if err != nil {
			return "", err
		}
		if rejected {
			p.observer.CritiqueRetry()
		}
		r.state = st
		return st.LastMessage(), nil

	case NodeReporter:
		rep, err := p.reporter.Report(ctx, r.state)
		if err != nil {
			return "", err
		}
		r.report = rep
		r.state = r.state.WithVerdict(rep.Verdict).WithMessage(model.MessageAssistant, rep.Text)
		return rep.Text, nil

	case NodeEnd:
		if r.report == nil {
			return "", errors.New("reached end without a report")
		}
		return string(r.report.Verdict), nil
	}
	return "", fmt.Errorf("unknown node %q", node)
}
