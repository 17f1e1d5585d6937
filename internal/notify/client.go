// Package notify provides the HTTP client for the notification gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jyang234/mull/internal/core"
)

const defaultTimeout = 10 * time.Second

// Client handles prompt creation against the notification gateway.
// The gateway is expected to be idempotent-safe; this client never
// retries.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type createRequest struct {
	UserID         string    `json:"user_id"`
	TaskID         string    `json:"task_id,omitempty"`
	Question       string    `json:"question"`
	Context        string    `json:"context"`
	TimeOfDay      string    `json:"preferred_time_of_day"`
	CognitiveState string    `json:"preferred_cognitive_state"`
	Priority       float64   `json:"priority"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type createResponse struct {
	ID string `json:"id"`
}

type gatewayError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewClient creates a new gateway client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// Create enqueues one prompt request and returns the gateway's identifier.
func (c *Client) Create(ctx context.Context, req core.PromptRequest) (string, error) {
	body, err := json.Marshal(createRequest{
		UserID:         req.UserID,
		TaskID:         req.TaskID,
		Question:       req.Question,
		Context:        req.Context,
		TimeOfDay:      req.TimeOfDay,
		CognitiveState: req.CognitiveState,
		Priority:       req.Priority,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var gwErr gatewayError
		if json.Unmarshal(respBody, &gwErr) == nil && gwErr.Error.Message != "" {
			return "", fmt.Errorf("gateway error (%d): %s", resp.StatusCode, gwErr.Error.Message)
		}
		return "", fmt.Errorf("gateway error (%d): %s", resp.StatusCode, string(respBody))
	}

	var created createResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("gateway returned no id")
	}

	return created.ID, nil
}
