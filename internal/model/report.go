package model

// Request is a verification request as received from a caller
type Request struct {
	Text        string    `json:"text"`
	RequesterID string    `json:"user_id"`
	InputType   InputType `json:"input_type"`
	ImageData   string    `json:"image_data,omitempty"`
	UserRole    Role      `json:"user_role"`
}

// Event types on the verification response stream
const (
	EventStep   = "step"
	EventResult = "result"
	EventError  = "error"
)

// Event is one line of the verification response stream.
// Step events carry Status/Details/ActiveNode, the single result event carries Verdict
// (the full two-section report), an error event carries Message.
type Event struct {
	Type       string `json:"type"`
	Status     string `json:"status,omitempty"`
	Details    string `json:"details,omitempty"`
	ActiveNode string `json:"active_node,omitempty"`
	Verdict    string `json:"verdict,omitempty"`
	Message    string `json:"message,omitempty"`
}

// StepEvent builds a step event
func StepEvent(node, status, details string) Event {
	return Event{Type: EventStep, Status: status, Details: details, ActiveNode: node}
}

// ResultEvent builds the terminal result event
func ResultEvent(report string) Event {
	return Event{Type: EventResult, Verdict: report}
}

// ErrorEvent builds the terminal error event
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

// Analytics aggregates persisted history and source logs
type Analytics struct {
	TotalVerifications int                       `json:"total_verifications"`
	VerdictBreakdown   map[string]int            `json:"verdict_breakdown"`
	Recent             []RecentVerification      `json:"recent_verifications"`
	Origins            []OriginCount             `json:"origin_of_claim"`
	SourceAccuracy     map[string]map[string]int `json:"source_accuracy_breakdown"`
	RoleBreakdown      map[string]int            `json:"user_role_breakdown"`
	HourlyCounts       map[string]int            `json:"hourly_counts"`
}

// RecentVerification is a trimmed history row for the analytics feed
type RecentVerification struct {
	ID        uint   `json:"id"`
	UserID    string `json:"user_id"`
	ClaimText string `json:"claim_text"`
	Verdict   string `json:"verdict"`
	Timestamp string `json:"timestamp"`
}

// OriginCount counts history rows per origin location
type OriginCount struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Count   int    `json:"count"`
}
