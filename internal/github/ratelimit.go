package github

import (
	"context"
	"time"

	"commit-insights/internal/model"
)

const rateLimitQuery = `
query {
  rateLimit {
    limit
    remaining
    resetAt
    used
    cost
  }
}`

type rateLimitData struct {
	RateLimit *struct {
		Limit     int       `json:"limit"`
		Remaining int       `json:"remaining"`
		ResetAt   time.Time `json:"resetAt"`
		Used      int       `json:"used"`
		Cost      int       `json:"cost"`
	} `json:"rateLimit"`
}

// CheckRateLimit returns the GraphQL quota of token, or nil when it cannot be determined.
// Failures are logged and never returned; callers treat nil as "unknown, proceed".
func (c *Client) CheckRateLimit(ctx context.Context, token string) *model.RateLimit {
	gh, err := c.forToken(ctx, token)
	if err != nil {
		c.logger.Error("Failed to build GitHub client for rate limit check", "error", err)
		return nil
	}

	var data rateLimitData
	if err := c.query(ctx, gh, rateLimitQuery, nil, &data); err != nil {
		c.logger.Error("Failed to check rate limit", "error", err)
		return nil
	}

	rl := data.RateLimit
	if rl == nil {
		c.logger.Warn("Rate limit missing from response")
		return nil
	}
	return &model.RateLimit{
		Limit:     rl.Limit,
		Remaining: rl.Remaining,
		Used:      rl.Used,
		Cost:      rl.Cost,
		ResetAt:   rl.ResetAt,
	}
}
