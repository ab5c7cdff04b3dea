// internal/syncer/syncer.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"commit-insights/internal/database"
	custom_errors "commit-insights/internal/errors"
	"commit-insights/internal/model"
)

const (
	// Minimum remaining GitHub quota required to start or continue a sync.
	rateLimitThreshold = 200

	DefaultSyncDays = 30
)

// GitHub is the subset of the GitHub client the syncer drives.
type GitHub interface {
	CheckRateLimit(ctx context.Context, token string) *model.RateLimit
	ListRecentRepositories(ctx context.Context, token string) ([]model.Repository, error)
	FetchCommits(ctx context.Context, token, owner, name string, since time.Time) ([]model.Commit, error)
}

// Store is the persistence the syncer writes to.
type Store interface {
	UpsertRepository(ctx context.Context, arg database.UpsertRepositoryParams) (database.Repository, error)
	InsertCommit(ctx context.Context, arg database.InsertCommitParams) (int64, error)
}

// Invalidator drops cached results of a user after their commits change.
type Invalidator interface {
	DeleteUser(userID string) int
}

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

// Result summarises one sync run.
type Result struct {
	CommitsAdded       int  `json:"commitsAdded"`
	RepositoriesSynced int  `json:"repositoriesSynced"` // attempted, failed ones included
	RateLimitRemaining *int `json:"rateLimitRemaining"`
}

// Syncer pulls a user's recent commits from GitHub into the database.
type Syncer struct {
	gh       GitHub
	store    Store
	cache    Invalidator
	logger   *slog.Logger
	throttle time.Duration
	now      func() time.Time
}

// NewSyncer creates a new Syncer instance. cache may be nil.
func NewSyncer(gh GitHub, store Store, cache Invalidator, logger *slog.Logger, throttle time.Duration) *Syncer {
	return &Syncer{
		gh:       gh,
		store:    store,
		cache:    cache,
		logger:   logger,
		throttle: throttle,
		now:      time.Now,
	}
}

// SyncUserData fetches commits of the last days from every recently updated repository
// of the user and stores them with classification "other".
//
// It fails with ErrRateLimitExceeded when the quota is already below the threshold.
// When the quota drops below it mid-run, the remaining repositories are skipped and
// the partial result is returned without error. Repositories and commits that fail
// individually are logged and skipped. Rows written before a failure stay written.
func (s *Syncer) SyncUserData(ctx context.Context, token, userID string, days int) (Result, error) {
	if days <= 0 {
		days = DefaultSyncDays
	}
	logger := s.logger.With("user_id", userID)

	if rl := s.gh.CheckRateLimit(ctx, token); rl != nil && rl.Remaining < rateLimitThreshold {
		logger.Warn("Rate limit too low to start sync", "remaining", rl.Remaining, "reset_at", rl.ResetAt)
		return Result{}, &custom_errors.ErrRateLimitExceeded{Remaining: rl.Remaining, ResetAt: rl.ResetAt}
	}

	repos, err := s.gh.ListRecentRepositories(ctx, token)
	if err != nil {
		return Result{}, err
	}
	since := s.now().AddDate(0, 0, -days)
	logger.Info("Starting sync", "repositories", len(repos), "since", since.Format(time.RFC3339))

	var result Result
	for i, repo := range repos {
		if i > 0 && !s.wait(ctx) {
			logger.Warn("Sync interrupted", "reason", ctx.Err())
			s.invalidate(userID)
			return result, ctx.Err()
		}

		if rl := s.gh.CheckRateLimit(ctx, token); rl != nil && rl.Remaining < rateLimitThreshold {
			logger.Warn("Rate limit reached, stopping sync early",
				"remaining", rl.Remaining, "processed", i, "skipped", len(repos)-i)
			break
		}

		result.RepositoriesSynced++
		added, err := s.syncRepository(ctx, token, userID, repo, since)
		if err != nil {
			logger.Error("Failed to sync repository", "repo", repo.FullName, "error", err)
			continue
		}
		result.CommitsAdded += added
	}

	if rl := s.gh.CheckRateLimit(ctx, token); rl != nil {
		remaining := rl.Remaining
		result.RateLimitRemaining = &remaining
	}

	s.invalidate(userID)
	logger.Info("Sync finished",
		"commits_added", result.CommitsAdded,
		"repositories_synced", result.RepositoriesSynced)
	return result, nil
}

// syncRepository fetches and stores the commits of one repository and returns
// how many of them were new.
func (s *Syncer) syncRepository(ctx context.Context, token, userID string, repo model.Repository, since time.Time) (int, error) {
	id, err := parseRepoIdentifier(repo.FullName)
	if err != nil {
		return 0, err
	}
	logger := s.logger.With("user_id", userID, "owner", id.Owner, "repo", id.Name)

	commits, err := s.gh.FetchCommits(ctx, token, id.Owner, id.Name, since)
	if err != nil {
		return 0, err
	}

	dbRepo, err := s.upsertRepository(ctx, userID, repo)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert repository: %w", err)
	}
	logger = logger.With("repo_id", dbRepo.ID)

	if len(commits) == 0 {
		logger.Debug("No commits in window")
		return 0, nil
	}

	added := 0
	for _, c := range commits {
		n, err := s.store.InsertCommit(ctx, toInsertCommitParams(userID, dbRepo.ID, c))
		if err != nil {
			logger.Error("Failed to insert commit", "sha", c.SHA, "error", err)
			continue
		}
		added += int(n)
	}
	logger.Info("Stored commits", "fetched", len(commits), "added", added)
	return added, nil
}

// upsertRepository creates the repository row or refreshes its mutable fields.
func (s *Syncer) upsertRepository(ctx context.Context, userID string, repo model.Repository) (database.Repository, error) {
	return s.store.UpsertRepository(ctx, database.UpsertRepositoryParams{
		UserID:       userID,
		GithubRepoID: repo.GithubRepoID,
		Name:         repo.Name,
		FullName:     repo.FullName,
		Private:      repo.Private,
		Language:     repo.Language,
		LastSyncAt:   s.now().UTC(),
	})
}

// wait sleeps for the throttle between repositories. It reports false if ctx ends first.
func (s *Syncer) wait(ctx context.Context) bool {
	if s.throttle <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.throttle):
		return true
	}
}

func (s *Syncer) invalidate(userID string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.DeleteUser(userID); n > 0 {
		s.logger.Debug("Invalidated cached results", "user_id", userID, "entries", n)
	}
}

func parseRepoIdentifier(fullName string) (RepoIdentifier, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoIdentifier{}, &custom_errors.ErrInvalidRepoFormat{Repo: fullName}
	}
	return RepoIdentifier{Owner: parts[0], Name: parts[1]}, nil
}

func toInsertCommitParams(userID, repoID string, c model.Commit) database.InsertCommitParams {
	return database.InsertCommitParams{
		UserID:          userID,
		RepositoryID:    repoID,
		GithubCommitSha: c.SHA,
		Message:         c.Message,
		AuthorName:      c.AuthorName,
		AuthorEmail:     c.AuthorEmail,
		CommittedAt:     c.CommittedAt,
		Classification:  string(model.CommitTypeOther),
		FilesChanged:    int32(c.FilesChanged),
		Additions:       int32(c.Additions),
		Deletions:       int32(c.Deletions),
	}
}
