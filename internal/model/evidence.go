package model

import "time"

// Page is the extracted content of a fetched web page
type Page struct {
	URL    string   `json:"url"`
	Title  string   `json:"title"`
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
}

// SearchResult is one ranked hit from the web-search collaborator
type SearchResult struct {
	Title     string        `json:"title"`
	URL       string        `json:"url"`
	Snippet   string        `json:"snippet"`
	Authority AuthorityTier `json:"authority"`
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Government, academic, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, wire services, established fact-checkers
	TierTertiary  AuthorityTier = 3 // Blogs, forums, unknown sites
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// ReputationStatus is the cached trust classification of a domain
type ReputationStatus string

const (
	StatusTrusted    ReputationStatus = "TRUSTED"
	StatusSatire     ReputationStatus = "SATIRE"
	StatusPropaganda ReputationStatus = "PROPAGANDA"
	StatusUnverified ReputationStatus = "UNVERIFIED"
)

// ReputationRecord is the persisted classification for a normalized domain
type ReputationRecord struct {
	Domain     string           `json:"domain"`
	Status     ReputationStatus `json:"status"`
	Confidence int              `json:"confidence"` // 0-100
}

// HistoryEntry is one completed run in the audit trail
type HistoryEntry struct {
	ID            uint      `json:"id"`
	UserID        string    `json:"user_id"`
	ClaimText     string    `json:"claim_text"`
	Verdict       Verdict   `json:"verdict"`
	OriginCity    string    `json:"origin_city"`
	OriginCountry string    `json:"origin_country"`
	UserRole      Role      `json:"user_role"`
	InputType     InputType `json:"input_type"`
	Timestamp     time.Time `json:"timestamp"`
}

// SourceLogEntry attributes a verdict to one evidence channel of a history entry
type SourceLogEntry struct {
	ClaimID          uint    `json:"claim_id"`
	SourceType       string  `json:"source_type"`
	SourceIdentifier string  `json:"source_identifier"`
	Verdict          Verdict `json:"verdict"`
}

// Evidence channel names recorded in the source log
const (
	SourceExternalWeb = "External Web"
	SourceScraping    = "Website Scraping"
	SourceVision      = "AI Vision Model"
	SourceInternalDB  = "Internal DB"
)
