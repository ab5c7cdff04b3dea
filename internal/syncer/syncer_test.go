// internal/syncer/syncer_test.go
package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"commit-insights/internal/classification"
	"commit-insights/internal/database"
	custom_errors "commit-insights/internal/errors"
	"commit-insights/internal/model"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

// MockGitHub is a mock of the GitHub interface.
type MockGitHub struct {
	mock.Mock
}

func (m *MockGitHub) CheckRateLimit(ctx context.Context, token string) *model.RateLimit {
	args := m.Called(ctx, token)
	rl, _ := args.Get(0).(*model.RateLimit)
	return rl
}
func (m *MockGitHub) ListRecentRepositories(ctx context.Context, token string) ([]model.Repository, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]model.Repository), args.Error(1)
}
func (m *MockGitHub) FetchCommits(ctx context.Context, token, owner, name string, since time.Time) ([]model.Commit, error) {
	args := m.Called(ctx, token, owner, name, since)
	return args.Get(0).([]model.Commit), args.Error(1)
}

// memoryStore enforces the same natural keys as the database schema.
type memoryStore struct {
	mu        sync.Mutex
	repos     map[string]database.Repository // user_id/github_repo_id
	commits   map[string]database.InsertCommitParams
	failSHA   string
	failRepos bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		repos:   make(map[string]database.Repository),
		commits: make(map[string]database.InsertCommitParams),
	}
}

func (s *memoryStore) UpsertRepository(_ context.Context, arg database.UpsertRepositoryParams) (database.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRepos {
		return database.Repository{}, errors.New("repositories table locked")
	}
	key := fmt.Sprintf("%s/%d", arg.UserID, arg.GithubRepoID)
	repo, ok := s.repos[key]
	if !ok {
		repo = database.Repository{ID: fmt.Sprintf("repo-%d", len(s.repos)+1), UserID: arg.UserID, GithubRepoID: arg.GithubRepoID}
	}
	lastSync := arg.LastSyncAt
	repo.Name, repo.FullName, repo.Private, repo.Language, repo.LastSyncAt = arg.Name, arg.FullName, arg.Private, arg.Language, &lastSync
	s.repos[key] = repo
	return repo, nil
}

func (s *memoryStore) InsertCommit(_ context.Context, arg database.InsertCommitParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if arg.GithubCommitSha == s.failSHA {
		return 0, errors.New("value too long for type character varying")
	}
	key := arg.UserID + "/" + arg.RepositoryID + "/" + arg.GithubCommitSha
	if _, exists := s.commits[key]; exists {
		return 0, nil
	}
	s.commits[key] = arg
	return 1, nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) DeleteUser(string) int {
	c.calls++
	return 0
}

func newTestSyncer(gh GitHub, store Store, cache Invalidator) *Syncer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewSyncer(gh, store, cache, logger, 0)
	s.now = func() time.Time { return fixedNow }
	return s
}

func quota(remaining int) *model.RateLimit {
	return &model.RateLimit{Limit: 5000, Remaining: remaining, ResetAt: fixedNow.Add(time.Hour)}
}

func repo(id int64, owner, name string) model.Repository {
	return model.Repository{GithubRepoID: id, Owner: owner, Name: name, FullName: owner + "/" + name}
}

func commits(shas ...string) []model.Commit {
	out := make([]model.Commit, len(shas))
	for i, sha := range shas {
		out[i] = model.Commit{SHA: sha, Message: "change " + sha, AuthorName: "Octo", CommittedAt: fixedNow.Add(-time.Duration(i) * time.Hour), FilesChanged: 1}
	}
	return out
}

var since = fixedNow.AddDate(0, 0, -30)

func TestSyncer_SyncUserData(t *testing.T) {
	ctx := context.Background()

	t.Run("fails fast when the quota is below the threshold", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(150)).Once()
		syncer := newTestSyncer(gh, newMemoryStore(), nil)

		_, err := syncer.SyncUserData(ctx, "tok", "u1", 30)

		var rlErr *custom_errors.ErrRateLimitExceeded
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, 150, rlErr.Remaining)
		assert.True(t, custom_errors.IsRateLimit(err))
		gh.AssertNotCalled(t, "ListRecentRepositories", mock.Anything, mock.Anything)
		gh.AssertExpectations(t)
	})

	t.Run("is idempotent across repeated runs", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(4000))
		gh.On("ListRecentRepositories", ctx, "tok").Return([]model.Repository{repo(1, "octo", "alpha"), repo(2, "octo", "beta")}, nil)
		gh.On("FetchCommits", ctx, "tok", "octo", "alpha", since).Return(commits("a1", "a2"), nil)
		gh.On("FetchCommits", ctx, "tok", "octo", "beta", since).Return(commits("b1"), nil)
		store := newMemoryStore()
		inv := &countingInvalidator{}
		syncer := newTestSyncer(gh, store, inv)

		first, err := syncer.SyncUserData(ctx, "tok", "u1", 30)
		require.NoError(t, err)
		second, err := syncer.SyncUserData(ctx, "tok", "u1", 30)
		require.NoError(t, err)

		assert.Equal(t, 3, first.CommitsAdded)
		assert.Equal(t, 2, first.RepositoriesSynced)
		require.NotNil(t, first.RateLimitRemaining)
		assert.Equal(t, 4000, *first.RateLimitRemaining)
		assert.Equal(t, 0, second.CommitsAdded)
		assert.Equal(t, 2, second.RepositoriesSynced)
		assert.Len(t, store.commits, 3)
		assert.Len(t, store.repos, 2)
		assert.Equal(t, 2, inv.calls)
		for _, c := range store.commits {
			assert.Equal(t, "other", c.Classification)
		}
	})

	t.Run("stops early when the quota runs low mid-run", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(500)).Twice()
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(150))
		gh.On("ListRecentRepositories", ctx, "tok").Return([]model.Repository{repo(1, "octo", "alpha"), repo(2, "octo", "beta")}, nil)
		gh.On("FetchCommits", ctx, "tok", "octo", "alpha", since).Return(commits("a1"), nil).Once()
		store := newMemoryStore()
		syncer := newTestSyncer(gh, store, nil)

		res, err := syncer.SyncUserData(ctx, "tok", "u1", 30)

		require.NoError(t, err)
		assert.Equal(t, 1, res.CommitsAdded)
		assert.Equal(t, 1, res.RepositoriesSynced)
		require.NotNil(t, res.RateLimitRemaining)
		assert.Equal(t, 150, *res.RateLimitRemaining)
		gh.AssertNotCalled(t, "FetchCommits", mock.Anything, mock.Anything, "octo", "beta", mock.Anything)
	})

	t.Run("proceeds when the quota is unknown", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", ctx, "tok").Return(nil)
		gh.On("ListRecentRepositories", ctx, "tok").Return([]model.Repository{repo(1, "octo", "alpha")}, nil)
		gh.On("FetchCommits", ctx, "tok", "octo", "alpha", since).Return(commits("a1"), nil)
		syncer := newTestSyncer(gh, newMemoryStore(), nil)

		res, err := syncer.SyncUserData(ctx, "tok", "u1", 0)

		require.NoError(t, err)
		assert.Equal(t, 1, res.CommitsAdded)
		assert.Nil(t, res.RateLimitRemaining)
	})

	t.Run("counts failed repositories as attempted and continues", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(4000))
		gh.On("ListRecentRepositories", ctx, "tok").Return([]model.Repository{
			repo(1, "octo", "alpha"),
			{GithubRepoID: 9, Name: "broken", FullName: "broken"},
			repo(2, "octo", "beta"),
		}, nil)
		fetchErr := &custom_errors.ErrUpstreamFetch{Op: "fetch commits", Repo: "octo/alpha", Err: errors.New("502 Bad Gateway")}
		gh.On("FetchCommits", ctx, "tok", "octo", "alpha", since).Return([]model.Commit(nil), fetchErr)
		gh.On("FetchCommits", ctx, "tok", "octo", "beta", since).Return(commits("b1", "b2"), nil)
		store := newMemoryStore()
		syncer := newTestSyncer(gh, store, nil)

		res, err := syncer.SyncUserData(ctx, "tok", "u1", 30)

		require.NoError(t, err)
		assert.Equal(t, 2, res.CommitsAdded)
		assert.Equal(t, 3, res.RepositoriesSynced)
		assert.Len(t, store.repos, 1)
	})

	t.Run("skips commits that fail to insert", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(4000))
		gh.On("ListRecentRepositories", ctx, "tok").Return([]model.Repository{repo(1, "octo", "alpha")}, nil)
		gh.On("FetchCommits", ctx, "tok", "octo", "alpha", since).Return(commits("a1", "bad", "a3"), nil)
		store := newMemoryStore()
		store.failSHA = "bad"
		syncer := newTestSyncer(gh, store, nil)

		res, err := syncer.SyncUserData(ctx, "tok", "u1", 30)

		require.NoError(t, err)
		assert.Equal(t, 2, res.CommitsAdded)
		assert.Equal(t, 1, res.RepositoriesSynced)
	})

	t.Run("counts repositories that fail to upsert as attempted", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(4000))
		gh.On("ListRecentRepositories", ctx, "tok").Return([]model.Repository{repo(1, "octo", "alpha")}, nil)
		gh.On("FetchCommits", ctx, "tok", "octo", "alpha", since).Return(commits("a1"), nil)
		store := newMemoryStore()
		store.failRepos = true
		syncer := newTestSyncer(gh, store, nil)

		res, err := syncer.SyncUserData(ctx, "tok", "u1", 30)

		require.NoError(t, err)
		assert.Zero(t, res.CommitsAdded)
		assert.Equal(t, 1, res.RepositoriesSynced)
		assert.Empty(t, store.commits)
	})

	t.Run("returns listing failures", func(t *testing.T) {
		gh := new(MockGitHub)
		listErr := &custom_errors.ErrUpstreamFetch{Op: "list repositories", Err: errors.New("401 Bad credentials")}
		gh.On("CheckRateLimit", ctx, "tok").Return(quota(4000))
		gh.On("ListRecentRepositories", ctx, "tok").Return([]model.Repository(nil), listErr)
		inv := &countingInvalidator{}
		syncer := newTestSyncer(gh, newMemoryStore(), inv)

		_, err := syncer.SyncUserData(ctx, "tok", "u1", 30)

		assert.ErrorIs(t, err, listErr)
		assert.Zero(t, inv.calls)
	})

	t.Run("stops when the context is cancelled between repositories", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		gh := new(MockGitHub)
		gh.On("CheckRateLimit", cctx, "tok").Return(quota(4000))
		gh.On("ListRecentRepositories", cctx, "tok").Return([]model.Repository{repo(1, "octo", "alpha"), repo(2, "octo", "beta")}, nil)
		gh.On("FetchCommits", cctx, "tok", "octo", "alpha", since).Return(commits("a1"), nil).Run(func(mock.Arguments) { cancel() })
		store := newMemoryStore()
		syncer := newTestSyncer(gh, store, nil)
		syncer.throttle = time.Hour

		res, err := syncer.SyncUserData(cctx, "tok", "u1", 30)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, res.CommitsAdded)
		assert.Len(t, store.commits, 1)
	})
}

func TestParseRepoIdentifier(t *testing.T) {
	tests := []struct {
		input   string
		want    RepoIdentifier
		wantErr bool
	}{
		{input: "octo/alpha", want: RepoIdentifier{Owner: "octo", Name: "alpha"}},
		{input: "octo", wantErr: true},
		{input: "/alpha", wantErr: true},
		{input: "octo/", wantErr: true},
		{input: "a/b/c", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parseRepoIdentifier(tc.input)
			if tc.wantErr {
				var formatErr *custom_errors.ErrInvalidRepoFormat
				assert.ErrorAs(t, err, &formatErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// MockClassifier is a mock of the Classifier interface.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) ClassifyUnclassified(ctx context.Context, userID string) (classification.Outcome, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(classification.Outcome), args.Error(1)
}

type staticAccounts []database.Account

func (a staticAccounts) ListGithubAccounts(context.Context) ([]database.Account, error) {
	return a, nil
}

func TestScheduler_RunSyncCycle(t *testing.T) {
	ctx := context.Background()
	tokA, tokB := "tok-a", "tok-b"

	gh := new(MockGitHub)
	gh.On("CheckRateLimit", mock.Anything, tokA).Return(quota(4000))
	gh.On("CheckRateLimit", mock.Anything, tokB).Return(quota(100))
	gh.On("ListRecentRepositories", mock.Anything, tokA).Return([]model.Repository{repo(1, "a", "one")}, nil)
	gh.On("FetchCommits", mock.Anything, tokA, "a", "one", since).Return(commits("x1"), nil)

	classifier := new(MockClassifier)
	classifier.On("ClassifyUnclassified", mock.Anything, "user-a").Return(classification.Outcome{Classified: 1}, nil).Once()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sched := NewScheduler(
		staticAccounts{
			{UserID: "user-a", AccessToken: &tokA},
			{UserID: "user-b", AccessToken: &tokB},
			{UserID: "user-c"},
		},
		newTestSyncer(gh, newMemoryStore(), nil),
		classifier, logger, time.Hour, 2, 30,
	)

	sched.runSyncCycle(ctx)

	classifier.AssertExpectations(t)
	classifier.AssertNotCalled(t, "ClassifyUnclassified", mock.Anything, "user-b")
	gh.AssertNotCalled(t, "ListRecentRepositories", mock.Anything, tokB)

	var postponed []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if strings.Contains(line, "postponing scheduled sync") {
			postponed = append(postponed, line)
		}
	}
	require.Len(t, postponed, 1)
	assert.Contains(t, postponed[0], `"user_id":"user-b"`)
	assert.Contains(t, postponed[0], `"level":"WARN"`)
	assert.NotContains(t, logs.String(), "Scheduled sync failed")
}
