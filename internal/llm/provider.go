package llm

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoResponse is returned when a provider answers with no usable content
var ErrNoResponse = errors.New("llm: empty response")

// Provider defines the interface for language-generation providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a prompt, optionally with one image, and returns the model's text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion call
type CompletionRequest struct {
	// Prompt is the user turn
	Prompt string

	// Image is an optional data URL (data:image/png;base64,...) or http(s) URL
	Image string

	// System is an optional system prompt (provider default when empty)
	System string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse contains the provider's answer
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// VisionModel is used for requests carrying an image (defaults to Model)
	VisionModel string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for each API request
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Timeout:     60,
		MaxTokens:   1500,
		Temperature: 0.3,
	}
}

const defaultSystemPrompt = "You are SatyaMitra, a careful misinformation analyst. Answer precisely and follow the requested output format exactly."

// Tool describes a callable capability exposed to a model or any other caller
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Endpoint    string         `json:"endpoint,omitempty"`
	AuthToken   string         `json:"-"`
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1500
}

// modelFor picks the request model, the vision model for image requests, then the configured one
func (c Config) modelFor(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if req.Image != "" && c.VisionModel != "" {
		return c.VisionModel
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func systemPrompt(req CompletionRequest) string {
	if req.System != "" {
		return req.System
	}
	return defaultSystemPrompt
}

// parseDataURL splits a data URL into its media type and base64 payload
func parseDataURL(s string) (mediaType, data string, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return "", "", false
	}
	meta, payload, found := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return "", "", false
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return mediaType, payload, true
}
