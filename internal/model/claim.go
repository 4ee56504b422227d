package model

import "strings"

// InputType is the modality of the raw input submitted for verification
type InputType string

const (
	InputText  InputType = "text"
	InputURL   InputType = "url"
	InputImage InputType = "image"
)

// ParseInputType maps a wire value to an InputType, defaulting to text
func ParseInputType(s string) InputType {
	switch InputType(strings.ToLower(strings.TrimSpace(s))) {
	case InputURL:
		return InputURL
	case InputImage:
		return InputImage
	default:
		return InputText
	}
}

// Role is the requester's role; it gates persistence side effects
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// ParseRole maps a wire value to a Role, defaulting to standard
func ParseRole(s string) Role {
	if Role(strings.ToLower(strings.TrimSpace(s))) == RoleAdmin {
		return RoleAdmin
	}
	return RoleStandard
}

// Verdict is the canonical machine-readable outcome of a run
type Verdict string

const (
	VerdictTrue       Verdict = "TRUE"
	VerdictFalse      Verdict = "FALSE"
	VerdictMisleading Verdict = "MISLEADING"
	VerdictUnverified Verdict = "UNVERIFIED"
)

// AllVerdicts lists the verdict tokens in report order
var AllVerdicts = []Verdict{VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverified}

// Valid reports whether v is one of the four verdict tokens
func (v Verdict) Valid() bool {
	for _, known := range AllVerdicts {
		if v == known {
			return true
		}
	}
	return false
}

// Message is one conversation entry threaded between steps
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles
const (
	MessageUser      = "user"
	MessageAssistant = "assistant"
)

// ImageClaim is the fixed claim used for image inputs; the image itself is analysed by the researcher
const ImageClaim = "Analyze image for authenticity and context."

// VerificationState is the record threaded through every step of a run.
// Steps never mutate a state in place; they return a copy with their own fields merged in.
type VerificationState struct {
	RunID         string    `json:"run_id"`
	ThreadID      string    `json:"thread_id,omitempty"`
	RequesterID   string    `json:"requester_id"`
	OriginalInput string    `json:"original_input"`
	Conversation  []Message `json:"conversation"`
	RevisionCount int       `json:"revision_count"`
	IsVerified    bool      `json:"is_verified"`
	InputType     InputType `json:"input_type"`
	ImageData     string    `json:"image_data,omitempty"`
	DomainStatus  *string   `json:"domain_status,omitempty"`
	ClaimText     string    `json:"claim_text"`
	UserRole      Role      `json:"user_role"`
	Verdict       Verdict   `json:"verdict,omitempty"`
}

// NewState builds the initial state for a request
func NewState(runID string, req Request) VerificationState {
	st := VerificationState{
		RunID:         runID,
		ThreadID:      req.RequesterID,
		RequesterID:   req.RequesterID,
		OriginalInput: req.Text,
		Conversation:  []Message{{Role: MessageUser, Content: req.Text}},
		InputType:     ParseInputType(string(req.InputType)),
		UserRole:      ParseRole(string(req.UserRole)),
	}
	if st.RequesterID == "" {
		st.RequesterID = "anonymous"
	}
	if st.InputType == InputImage {
		st.ImageData = req.ImageData
	}
	return st
}

// LastMessage returns the newest conversation entry content
func (s VerificationState) LastMessage() string {
	if len(s.Conversation) == 0 {
		return ""
	}
	return s.Conversation[len(s.Conversation)-1].Content
}

// WithMessage returns a copy of s with msg appended to the conversation
func (s VerificationState) WithMessage(role, content string) VerificationState {
	conv := make([]Message, len(s.Conversation), len(s.Conversation)+1)
	copy(conv, s.Conversation)
	s.Conversation = append(conv, Message{Role: role, Content: content})
	return s
}

// WithClaim returns a copy of s with the extracted claim set
func (s VerificationState) WithClaim(claim string) VerificationState {
	s.ClaimText = claim
	return s
}

// WithDomainStatus returns a copy of s with the reputation check outcome set
func (s VerificationState) WithDomainStatus(status *string) VerificationState {
	s.DomainStatus = status
	return s
}

// WithReview returns a copy of s carrying the critique outcome
func (s VerificationState) WithReview(verified bool, revisions int) VerificationState {
	s.IsVerified = verified
	s.RevisionCount = revisions
	return s
}

// WithVerdict returns a copy of s with the parsed verdict
func (s VerificationState) WithVerdict(v Verdict) VerificationState {
	s.Verdict = v
	return s
}
