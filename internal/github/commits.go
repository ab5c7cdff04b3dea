package github

import (
	"context"
	"time"

	custom_errors "commit-insights/internal/errors"
	"commit-insights/internal/model"
)

const (
	commitsPerPage = 50
	maxCommitPages = 3
	unknownAuthor  = "Unknown"
)

const commitHistoryQuery = `
query($owner: String!, $name: String!, $since: GitTimestamp, $cursor: String) {
  repository(owner: $owner, name: $name) {
    defaultBranchRef {
      target {
        ... on Commit {
          history(first: 50, after: $cursor, since: $since) {
            pageInfo {
              hasNextPage
              endCursor
            }
            nodes {
              oid
              message
              committedDate
              author {
                name
                email
              }
              additions
              deletions
              changedFilesIfAvailable
              files(first: 100) {
                nodes {
                  path
                  additions
                  deletions
                }
              }
            }
          }
        }
      }
    }
  }
}`

type commitNode struct {
	OID           string    `json:"oid"`
	Message       string    `json:"message"`
	CommittedDate time.Time `json:"committedDate"`
	Author        *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"author"`
	Additions               int  `json:"additions"`
	Deletions               int  `json:"deletions"`
	ChangedFilesIfAvailable *int `json:"changedFilesIfAvailable"`
	Files                   *struct {
		Nodes []struct {
			Path      string `json:"path"`
			Additions int    `json:"additions"`
			Deletions int    `json:"deletions"`
		} `json:"nodes"`
	} `json:"files"`
}

type commitHistory struct {
	PageInfo pageInfo     `json:"pageInfo"`
	Nodes    []commitNode `json:"nodes"`
}

type commitHistoryData struct {
	Repository *struct {
		DefaultBranchRef *struct {
			Target *struct {
				History *commitHistory `json:"history"`
			} `json:"target"`
		} `json:"defaultBranchRef"`
	} `json:"repository"`
}

func (d commitHistoryData) history() *commitHistory {
	if d.Repository == nil || d.Repository.DefaultBranchRef == nil || d.Repository.DefaultBranchRef.Target == nil {
		return nil
	}
	return d.Repository.DefaultBranchRef.Target.History
}

// FetchCommits returns the default branch commits of owner/name since the given time.
// At most maxCommitPages pages of commitsPerPage commits are read per call.
// A repository without a default branch or reachable history yields an empty slice.
func (c *Client) FetchCommits(ctx context.Context, token, owner, name string, since time.Time) ([]model.Commit, error) {
	fullName := owner + "/" + name
	logger := c.logger.With("owner", owner, "repo", name)

	gh, err := c.forToken(ctx, token)
	if err != nil {
		return nil, &custom_errors.ErrUpstreamFetch{Op: "fetch commits", Repo: fullName, Err: err}
	}

	var (
		commits []model.Commit
		cursor  *string
		pages   int
	)

	for pages < maxCommitPages {
		logger.Debug("Fetching commits page", "page", pages+1, "per_page", commitsPerPage)

		vars := map[string]any{
			"owner":  owner,
			"name":   name,
			"since":  since.UTC().Format(time.RFC3339),
			"cursor": cursor,
		}
		var data commitHistoryData
		if err := c.query(ctx, gh, commitHistoryQuery, vars, &data); err != nil {
			return nil, &custom_errors.ErrUpstreamFetch{Op: "fetch commits", Repo: fullName, Err: err}
		}

		history := data.history()
		if history == nil {
			logger.Warn("No commit history found")
			break
		}

		for _, node := range history.Nodes {
			commits = append(commits, toInternalCommit(node))
		}
		pages++

		if !history.PageInfo.HasNextPage {
			break
		}
		next := history.PageInfo.EndCursor
		cursor = &next
	}

	logger.Info("Fetched commits", "count", len(commits), "pages", pages)
	return commits, nil
}

// toInternalCommit translates a GraphQL commit node to our internal model.Commit.
func toInternalCommit(n commitNode) model.Commit {
	commit := model.Commit{
		SHA:         n.OID,
		Message:     n.Message,
		AuthorName:  unknownAuthor,
		CommittedAt: n.CommittedDate,
		Additions:   n.Additions,
		Deletions:   n.Deletions,
	}
	if n.Author != nil {
		if n.Author.Name != "" {
			commit.AuthorName = n.Author.Name
		}
		commit.AuthorEmail = n.Author.Email
	}

	if n.Files != nil {
		for _, f := range n.Files.Nodes {
			commit.Files = append(commit.Files, model.FileChange{
				Path:      f.Path,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}
	}

	if n.ChangedFilesIfAvailable != nil && *n.ChangedFilesIfAvailable > 0 {
		commit.FilesChanged = *n.ChangedFilesIfAvailable
	} else {
		commit.FilesChanged = len(commit.Files)
	}
	return commit
}
