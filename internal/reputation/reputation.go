// Package reputation maps domains to cached trust classifications.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/satyamitra/internal/model"
)

// Backend is the durable reputation table
type Backend interface {
	GetReputation(ctx context.Context, domain string) (*model.ReputationRecord, error)
	UpsertReputation(ctx context.Context, rec model.ReputationRecord) error
}

// LookupObserver is notified of every lookup outcome: "hit", "miss" or "error"
type LookupObserver func(result string)

// NoRecord is the tool sentence for an unknown domain
const NoRecord = "NO RECORD: This domain is not in SatyaMitra's archives. Proceed with external verification."

// errNotFound stands in until WithNotFound names the backend's sentinel
var errNotFound = errors.New("reputation: not found")

// Cache reads reputation records through a short-lived memory layer.
// Lookups never fail: storage errors degrade to "no record".
type Cache struct {
	backend  Backend
	memory   *gocache.Cache
	logger   *slog.Logger
	observe  LookupObserver
	notFound error

	// writes counts committed upserts per domain; a lookup only fills
	// memory when no upsert committed while it was reading the backend
	mu     sync.Mutex
	writes map[string]uint64
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a lookup observer (metrics)
func WithObserver(fn LookupObserver) Option {
	return func(c *Cache) { c.observe = fn }
}

// WithNotFound sets the backend's not-found sentinel, which is treated as a miss without a warning
func WithNotFound(err error) Option {
	return func(c *Cache) { c.notFound = err }
}

// WithTTL sets how long records stay in the memory layer; zero disables it
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl <= 0 {
			c.memory = nil
			return
		}
		c.memory = gocache.New(ttl, 2*ttl)
	}
}

// New creates a reputation cache over backend
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend:  backend,
		memory:   gocache.New(time.Minute, 2*time.Minute),
		logger:   slog.Default(),
		notFound: errNotFound,
		writes:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "reputation")
	return c
}

// Lookup returns the record for the domain of rawURL, or false when there is none
func (c *Cache) Lookup(ctx context.Context, rawURL string) (*model.ReputationRecord, bool) {
	domain := NormalizeDomain(rawURL)
	if domain == "" {
		c.record("miss")
		return nil, false
	}

	if c.memory != nil {
		if v, ok := c.memory.Get(domain); ok {
			rec := v.(model.ReputationRecord)
			c.record("hit")
			return &rec, true
		}
	}

	seen := c.writeCount(domain)
	rec, err := c.backend.GetReputation(ctx, domain)
	switch {
	case err == nil && rec != nil:
		c.remember(domain, *rec, seen)
		c.record("hit")
		return rec, true
	case err == nil, errors.Is(err, c.notFound):
		c.record("miss")
		return nil, false
	default:
		c.logger.Warn("Reputation lookup failed, treating as no record", "domain", domain, "error", err)
		c.record("error")
		return nil, false
	}
}

// Upsert overwrites the domain's record with the status mapped from verdict
func (c *Cache) Upsert(ctx context.Context, rawURL string, verdict model.Verdict, claim string) error {
	domain := NormalizeDomain(rawURL)
	if domain == "" {
		return fmt.Errorf("reputation: no domain in %q", rawURL)
	}

	status, confidence := StatusFor(verdict)
	rec := model.ReputationRecord{Domain: domain, Status: status, Confidence: confidence}

	if err := c.backend.UpsertReputation(ctx, rec); err != nil {
		return fmt.Errorf("reputation upsert %s: %w", domain, err)
	}

	c.mu.Lock()
	c.writes[domain]++
	if c.memory != nil {
		c.memory.Delete(domain)
	}
	c.mu.Unlock()

	c.logger.Info("Reputation updated", "domain", domain, "status", status, "confidence", confidence, "claim", truncate(claim, 80))
	return nil
}

func (c *Cache) writeCount(domain string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[domain]
}

// remember caches rec unless an upsert for domain committed after seen was taken
func (c *Cache) remember(domain string, rec model.ReputationRecord, seen uint64) {
	if c.memory == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writes[domain] == seen {
		c.memory.SetDefault(domain, rec)
	}
}

// Describe returns the tool sentence for the domain of rawURL
func (c *Cache) Describe(ctx context.Context, rawURL string) string {
	rec, ok := c.Lookup(ctx, rawURL)
	if !ok {
		return NoRecord
	}
	return fmt.Sprintf("INTERNAL RECORD FOUND: %s is classified as %s with %d%% confidence.", rec.Domain, rec.Status, rec.Confidence)
}

// DomainStatus renders the reputation hit carried on the verification state
func DomainStatus(rec *model.ReputationRecord) string {
	return fmt.Sprintf("INTERNAL RECORD FOUND: %s is confirmed as **%s** (Confidence: %d%%).", rec.Domain, rec.Status, rec.Confidence)
}

// StatusFor maps a verdict token to the (status, confidence) stored for a domain
func StatusFor(v model.Verdict) (model.ReputationStatus, int) {
	switch v {
	case model.VerdictTrue:
		return model.StatusTrusted, 90
	case model.VerdictFalse:
		return model.StatusPropaganda, 95
	case model.VerdictMisleading:
		return model.StatusUnverified, 70
	default:
		return model.StatusUnverified, 50
	}
}

// NormalizeDomain reduces a URL or bare host to its lowercase host without
// scheme, port or leading "www.". Unparseable input falls back to the text
// before the first path separator.
func NormalizeDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	host := ""
	if u, err := url.Parse(candidate); err == nil {
		host = u.Hostname()
	}
	if host == "" {
		rest := raw
		if _, after, found := strings.Cut(rest, "//"); found {
			rest = after
		}
		host, _, _ = strings.Cut(rest, "/")
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return strings.TrimPrefix(host, "www.")
}

func (c *Cache) record(result string) {
	if c.observe != nil {
		c.observe(result)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
