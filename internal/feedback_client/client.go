package feedback_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client for the feedback-thread messaging service. Suggestion IDs are
// feedback thread IDs, so messages about a suggestion are posted to the
// thread with the same ID.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new feedback service client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type postMessageRequest struct {
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

// PostMessage appends a message to the feedback thread with the given ID.
func (c *Client) PostMessage(ctx context.Context, threadID, authorID, text string) error {
	url := fmt.Sprintf("%s/threads/%s/messages", c.baseURL, threadID)

	body, err := json.Marshal(postMessageRequest{AuthorID: authorID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode thread message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to create request to feedback service", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to make request to feedback service", zap.Error(err))
		return fmt.Errorf("failed to make request to feedback service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("Feedback service returned non-OK status", zap.Int("status", resp.StatusCode), zap.String("thread_id", threadID))
		return fmt.Errorf("feedback service returned status: %d", resp.StatusCode)
	}

	return nil
}
