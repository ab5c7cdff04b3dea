// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// graphQLPath is resolved against the REST base URL: it lands on /graphql for
// api.github.com and on /api/graphql for enterprise hosts (/api/v3/).
const graphQLPath = "../graphql"

// Client is a wrapper around the go-github client that speaks GitHub's GraphQL API.
// Each call is authenticated with the token of the user being synced.
type Client struct {
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates and configures a new Client instance.
// An empty baseURL targets public GitHub; otherwise baseURL is treated as an enterprise host.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		now:     time.Now,
	}
}

// forToken builds a go-github client whose transport carries the given bearer token.
func (c *Client) forToken(ctx context.Context, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	gh := github.NewClient(tc)
	if c.baseURL == "" {
		return gh, nil
	}
	return gh.WithEnterpriseURLs(c.baseURL, c.baseURL)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query posts a GraphQL document and decodes the data member into out.
func (c *Client) query(ctx context.Context, gh *github.Client, document string, vars map[string]any, out any) error {
	req, err := gh.NewRequest(http.MethodPost, graphQLPath, &graphQLRequest{Query: document, Variables: vars})
	if err != nil {
		return err
	}

	var resp graphQLResponse
	if _, err := gh.Do(ctx, req, &resp); err != nil {
		return err
	}

	hasData := len(resp.Data) > 0 && string(resp.Data) != "null"
	if len(resp.Errors) > 0 {
		if !hasData {
			return fmt.Errorf("graphql: %s", resp.Errors[0].Message)
		}
		c.logger.Warn("GraphQL response carried partial errors", "error", resp.Errors[0].Message, "count", len(resp.Errors))
	}
	if !hasData {
		return fmt.Errorf("graphql: empty response")
	}
	return json.Unmarshal(resp.Data, out)
}
