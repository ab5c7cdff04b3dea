// internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrNoGithubToken is returned when no GitHub access token is stored for a user.
var ErrNoGithubToken = stderrors.New("no github token found for user")

// ErrInvalidRepoFormat is returned when a repository full name is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrRateLimitExceeded is returned when the remaining API quota is below the sync threshold.
type ErrRateLimitExceeded struct {
	Remaining int
	ResetAt   time.Time
}

func (e *ErrRateLimitExceeded) Error() string {
	return fmt.Sprintf("rate limit too low: %d remaining, resets at %s", e.Remaining, e.ResetAt.UTC().Format(time.RFC3339))
}

// ErrUpstreamFetch wraps a transport or query failure from the GitHub API.
type ErrUpstreamFetch struct {
	Op   string
	Repo string
	Err  error
}

func (e *ErrUpstreamFetch) Error() string {
	if e.Repo != "" {
		return fmt.Sprintf("failed to %s for %s: %v", e.Op, e.Repo, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ErrUpstreamFetch) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether err is, or wraps, an ErrRateLimitExceeded.
func IsRateLimit(err error) bool {
	var rl *ErrRateLimitExceeded
	return stderrors.As(err, &rl)
}
