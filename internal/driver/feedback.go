package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// pollFeedback polls the feedback endpoint until the result is ready or the
// attempt budget runs out.
func pollFeedback(ctx context.Context, client *HTTPClient, config *Config, sessionID string) (FeedbackResult, error) {
	url := config.BaseURL + "/sessions/" + sessionID + "/feedback"

	for attempt := 0; attempt < config.FeedbackAttempts; attempt++ {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return FeedbackResult{}, fmt.Errorf("feedback request failed: %w", err)
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return FeedbackResult{}, fmt.Errorf("failed to read feedback response: %w", err)
		}

		switch resp.StatusCode {
		case StatusOK:
			var result FeedbackResult
			if err := json.Unmarshal(body, &result); err != nil {
				return FeedbackResult{}, fmt.Errorf("failed to decode feedback: %w", err)
			}
			return result, nil
		case StatusAccepted:
			// Still processing; wait and retry.
		default:
			return FeedbackResult{}, fmt.Errorf("feedback request failed with status: %d", resp.StatusCode)
		}

		select {
		case <-ctx.Done():
			return FeedbackResult{}, ctx.Err()
		case <-time.After(config.FeedbackInterval):
		}
	}

	return FeedbackResult{}, fmt.Errorf("feedback not ready after %d attempts", config.FeedbackAttempts)
}

// verifyFeedback checks the structural invariants of a derived result.
func verifyFeedback(result FeedbackResult) error {
	if result.Status == "" {
		return fmt.Errorf("feedback result has no status")
	}
	if result.Feedback == nil {
		if result.Status == "error" {
			return nil
		}
		return fmt.Errorf("feedback result %q carries no payload", result.Status)
	}

	score, ok := result.Feedback["overall_score"].(float64)
	if !ok {
		return fmt.Errorf("feedback payload has no overall score")
	}
	if score < scoreMin || score > scoreMax {
		return fmt.Errorf("overall score %.0f outside [%d, %d]", score, scoreMin, scoreMax)
	}
	return nil
}
