package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/satyamitra/internal/llm"
	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/reputation"
)

// Source identifiers recorded in the source log
const (
	searchEngineSource = "DuckDuckGo/Search Engine"
	internalDBSource   = "satyamitra.db (MCP)"
)

// Origin is the coarse location attached to a history entry
type Origin struct {
	City    string
	Country string
}

// Origins is the fixed set of mocked claim origins
var Origins = []Origin{
	{"Mumbai", "India"},
	{"New York", "USA"},
	{"London", "UK"},
	{"Bengaluru", "India"},
}

// OriginPicker chooses the origin for a new history entry
type OriginPicker func() Origin

// RandomOrigin picks uniformly from Origins
func RandomOrigin() Origin {
	return Origins[rand.IntN(len(Origins))]
}

// Report is the reporter's output for one run
type Report struct {
	Text      string
	Verdict   model.Verdict
	HistoryID uint
	Warnings  []string
}

// Reporter drafts the final report and records the outcome
type Reporter struct {
	llm         Completer
	reputation  ReputationCache
	history     HistoryStore
	visionModel string
	origin      OriginPicker
	observer    Observer
	logger      *slog.Logger
	now         func() time.Time
}

// NewReporter creates a reporter with a random origin picker
func NewReporter(completer Completer, rep ReputationCache, history HistoryStore, visionModel string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		llm:         completer,
		reputation:  rep,
		history:     history,
		visionModel: visionModel,
		origin:      RandomOrigin,
		observer:    nopObserver{},
		logger:      logger,
		now:         time.Now,
	}
}

// Report drafts the report for st, then applies the reputation write policy
// and records history. Only the drafting call can fail the run.
func (r *Reporter) Report(ctx context.Context, st model.VerificationState) (*Report, error) {
	resp, err := r.llm.Complete(ctx, llm.CompletionRequest{Prompt: reportPrompt(researchFor(st), st.ClaimText)})
	if err != nil {
		return nil, providerFailure("report", err)
	}

	verdict, ok := ParseVerdict(resp.Text)
	if !ok {
		r.observer.VerdictFallback()
		r.logger.Warn("Verdict token not recognised, defaulting to UNVERIFIED", "run_id", st.RunID)
	}

	out := &Report{Text: resp.Text, Verdict: verdict}
	r.updateReputation(ctx, st, verdict)
	r.recordHistory(ctx, st, out)
	return out, nil
}

func (r *Reporter) updateReputation(ctx context.Context, st model.VerificationState, verdict model.Verdict) {
	if !canWriteReputation(st) {
		if st.InputType == model.InputURL {
			r.logger.Info("Reputation write blocked", "run_id", st.RunID, "role", st.UserRole)
		}
		return
	}
	if err := r.reputation.Upsert(ctx, st.OriginalInput, verdict, st.ClaimText); err != nil {
		r.logger.Warn("Reputation update failed", "run_id", st.RunID, "error", err)
		return
	}
	r.logger.Info("Reputation updated", "run_id", st.RunID,
		"domain", reputation.NormalizeDomain(st.OriginalInput), "verdict", verdict)
}

func (r *Reporter) recordHistory(ctx context.Context, st model.VerificationState, out *Report) {
	origin := r.origin()
	id, err := r.history.InsertHistory(ctx, model.HistoryEntry{
		UserID:        st.RequesterID,
		ClaimText:     st.ClaimText,
		Verdict:       out.Verdict,
		OriginCity:    origin.City,
		OriginCountry: origin.Country,
		UserRole:      st.UserRole,
		InputType:     st.InputType,
		Timestamp:     r.now(),
	})
	if err != nil {
		r.logger.Warn("History insert failed", "run_id", st.RunID, "error", err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("history not recorded: %v", err))
		return
	}
	out.HistoryID = id

	if err := r.history.InsertSourceLogs(ctx, sourceLogs(st, id, out.Verdict, r.visionModel)); err != nil {
		r.logger.Warn("Source log insert failed", "run_id", st.RunID, "history_id", id, "error", err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("source logs not recorded: %v", err))
	}
}

// canWriteReputation is the only access-control gate for reputation writes
func canWriteReputation(st model.VerificationState) bool {
	if st.InputType != model.InputURL || st.UserRole != model.RoleAdmin {
		return false
	}
	raw := strings.TrimSpace(st.OriginalInput)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Host != ""
}

// researchFor selects the evidence the report is drafted from
func researchFor(st model.VerificationState) string {
	if st.DomainStatus != nil {
		return *st.DomainStatus
	}
	if n := len(st.Conversation); n >= 2 {
		return st.Conversation[n-2].Content
	}
	return st.LastMessage()
}

func sourceLogs(st model.VerificationState, claimID uint, verdict model.Verdict, visionModel string) []model.SourceLogEntry {
	var logs []model.SourceLogEntry
	add := func(sourceType, identifier string) {
		logs = append(logs, model.SourceLogEntry{
			ClaimID:          claimID,
			SourceType:       sourceType,
			SourceIdentifier: identifier,
			Verdict:          verdict,
		})
	}

	if st.InputType == model.InputText || st.InputType == model.InputURL {
		add(model.SourceExternalWeb, searchEngineSource)
	}
	if st.InputType == model.InputURL {
		domain := reputation.NormalizeDomain(st.OriginalInput)
		if domain == "" {
			domain = "N/A"
		}
		add(model.SourceScraping, domain)
	}
	if st.InputType == model.InputImage {
		add(model.SourceVision, visionModel)
	}
	add(model.SourceInternalDB, internalDBSource)
	return logs
}
