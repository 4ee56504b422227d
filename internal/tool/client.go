package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/satyamitra/internal/llm"
)

// Client invokes a reputation tool endpoint described by an llm.Tool
type Client struct {
	tool       *llm.Tool
	httpClient *http.Client
}

// NewClient creates a client for t
func NewClient(t *llm.Tool, timeout time.Duration) (*Client, error) {
	if t == nil || t.Endpoint == "" {
		return nil, errors.New("tool: endpoint is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{tool: t, httpClient: &http.Client{Timeout: timeout}}, nil
}

// CheckReputation returns the reputation sentence for rawURL
func (c *Client) CheckReputation(ctx context.Context, rawURL string) (string, error) {
	body, err := json.Marshal(ReputationRequest{URL: rawURL})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tool.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tool.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.tool.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", c.tool.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%s returned %d: %s", c.tool.Name, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out ReputationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Result, nil
}
