package tool

import (
	"strings"

	"github.com/ppiankov/satyamitra/internal/llm"
)

// NewReputationTool returns the tool definition for the reputation lookup endpoint at baseURL
func NewReputationTool(baseURL, authToken string) *llm.Tool {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")

	return &llm.Tool{
		Type:        "mcp_reputation",
		Name:        ReputationName,
		Description: "Checks the internal SatyaMitra database for the credibility of a news domain. Provide the article or site `url`; returns a classification sentence or a no-record sentence.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "Article URL or bare domain, e.g. https://www.bbc.com/news/x.",
				},
			},
			"required": []string{"url"},
		},
		Endpoint:  base + "/v1/tools/" + ReputationName,
		AuthToken: authToken,
	}
}
