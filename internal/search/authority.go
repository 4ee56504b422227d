package search

import (
	"net/url"
	"strings"

	"github.com/ppiankov/satyamitra/internal/model"
)

// Classifier tags search hits with an authority tier so the synthesis
// prompt can weigh official and wire sources above blogs and forums
type Classifier struct {
	domainMap map[string]model.AuthorityTier
	primary   []string
	secondary []string
}

// NewClassifier creates a classifier; nil uses the default authority lists
func NewClassifier(cfg *model.AuthorityConfig) *Classifier {
	if cfg == nil {
		cfg = &model.DefaultConfig().Authority
	}

	c := &Classifier{
		domainMap: make(map[string]model.AuthorityTier, len(cfg.DomainMap)),
		primary:   normalizeList(cfg.PrimaryDomains),
		secondary: normalizeList(cfg.SecondaryDomains),
	}
	for host, tier := range cfg.DomainMap {
		c.domainMap[strings.ToLower(host)] = parseTier(tier)
	}
	return c
}

// Classify returns the authority tier of rawURL
func (c *Classifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return model.TierUnknown
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	if tier, ok := c.domainMap[host]; ok {
		return tier
	}
	if matchesAny(host, c.primary) {
		return model.TierPrimary
	}
	if matchesAny(host, c.secondary) {
		return model.TierSecondary
	}

	// official and academic TLDs
	for _, suffix := range []string{".gov", ".edu", ".ac.uk", ".gov.in", ".nic.in", ".int"} {
		if strings.HasSuffix(host, suffix) {
			return model.TierPrimary
		}
	}

	return model.TierTertiary
}

// matchesAny reports whether host equals or is a subdomain of a listed domain
func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

func parseTier(tier string) model.AuthorityTier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
