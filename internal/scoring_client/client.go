package scoring_client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client for the user-scoring service. Contribution scores live there; this
// backend only reports increments.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new scoring service client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type incrementScoreRequest struct {
	UserID        string `json:"user_id"`
	ScoreCategory string `json:"score_category"`
	Delta         int    `json:"delta"`
}

// IncrementScore increases the user's contribution score in the given score
// category by delta.
func (c *Client) IncrementScore(userID, scoreCategory string, delta int) error {
	url := fmt.Sprintf("%s/scores/increment", c.baseURL)

	body, err := json.Marshal(incrementScoreRequest{
		UserID:        userID,
		ScoreCategory: scoreCategory,
		Delta:         delta,
	})
	if err != nil {
		return fmt.Errorf("failed to encode score increment: %w", err)
	}

	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to make request to scoring service", zap.Error(err))
		return fmt.Errorf("failed to make request to scoring service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Scoring service returned non-OK status", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("scoring service returned status: %d", resp.StatusCode)
	}

	c.logger.Info("Incremented author score",
		zap.String("user_id", userID),
		zap.String("score_category", scoreCategory),
		zap.Int("delta", delta))
	return nil
}
