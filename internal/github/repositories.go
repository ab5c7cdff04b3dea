package github

import (
	"context"
	"time"

	custom_errors "commit-insights/internal/errors"
	"commit-insights/internal/model"
)

const (
	repositoriesPerPage = 50
	maxRepositories     = 200
	recentActivityDays  = 60
)

const repositoriesQuery = `
query($cursor: String) {
  viewer {
    repositories(first: 50, after: $cursor, orderBy: {field: UPDATED_AT, direction: DESC}) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        databaseId
        name
        nameWithOwner
        isPrivate
        primaryLanguage {
          name
        }
        updatedAt
        owner {
          login
        }
      }
    }
  }
}`

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type repositoryNode struct {
	DatabaseID      int64  `json:"databaseId"`
	Name            string `json:"name"`
	NameWithOwner   string `json:"nameWithOwner"`
	IsPrivate       bool   `json:"isPrivate"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	UpdatedAt time.Time `json:"updatedAt"`
	Owner     struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type repositoriesData struct {
	Viewer struct {
		Repositories struct {
			PageInfo pageInfo         `json:"pageInfo"`
			Nodes    []repositoryNode `json:"nodes"`
		} `json:"repositories"`
	} `json:"viewer"`
}

// ListRecentRepositories returns the viewer's repositories updated in the last 60 days,
// most recently updated first, capped at 200.
//
// Pagination stops at the first page with no recent repository. That relies on GitHub
// ordering by UPDATED_AT descending; if the ordering ever changed, older pages could still
// hold recent repositories and they would be missed.
func (c *Client) ListRecentRepositories(ctx context.Context, token string) ([]model.Repository, error) {
	gh, err := c.forToken(ctx, token)
	if err != nil {
		return nil, &custom_errors.ErrUpstreamFetch{Op: "list repositories", Err: err}
	}

	cutoff := c.now().AddDate(0, 0, -recentActivityDays)
	var (
		repos  []model.Repository
		cursor *string
		page   int
	)

	for len(repos) < maxRepositories {
		page++
		c.logger.Debug("Fetching repositories page", "page", page, "per_page", repositoriesPerPage)

		var data repositoriesData
		if err := c.query(ctx, gh, repositoriesQuery, map[string]any{"cursor": cursor}, &data); err != nil {
			return nil, &custom_errors.ErrUpstreamFetch{Op: "list repositories", Err: err}
		}

		conn := data.Viewer.Repositories
		recent := 0
		for _, node := range conn.Nodes {
			if node.UpdatedAt.Before(cutoff) {
				continue
			}
			recent++
			repos = append(repos, toInternalRepository(node))
		}

		if recent == 0 || !conn.PageInfo.HasNextPage {
			break
		}
		next := conn.PageInfo.EndCursor
		cursor = &next
	}

	if len(repos) > maxRepositories {
		repos = repos[:maxRepositories]
	}

	c.logger.Info("Listed recently updated repositories", "count", len(repos), "pages", page)
	return repos, nil
}

// toInternalRepository translates a GraphQL repository node to our internal model.Repository.
func toInternalRepository(n repositoryNode) model.Repository {
	var language *string
	if n.PrimaryLanguage != nil && n.PrimaryLanguage.Name != "" {
		name := n.PrimaryLanguage.Name
		language = &name
	}
	return model.Repository{
		GithubRepoID: n.DatabaseID,
		Owner:        n.Owner.Login,
		Name:         n.Name,
		FullName:     n.NameWithOwner,
		Private:      n.IsPrivate,
		Language:     language,
		UpdatedAt:    n.UpdatedAt,
	}
}
