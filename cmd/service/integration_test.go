//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"commit-insights/internal/analytics"
	"commit-insights/internal/classification"
	"commit-insights/internal/database"
	custom_errors "commit-insights/internal/errors"
	"commit-insights/internal/github"
	"commit-insights/internal/model"
	"commit-insights/internal/syncer"
)

func setupTestDatabase(ctx context.Context, t *testing.T) *pgxpool.Pool {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(context.Background()))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, runMigrations("file://../../migrations", connStr))

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(dbpool.Close)

	return dbpool
}

// fakeGraphQL answers the three query shapes the client sends.
func fakeGraphQL(t *testing.T, remaining int) http.Handler {
	now := time.Now().UTC()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/graphql", r.URL.Path)

		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.Contains(req.Query, "defaultBranchRef"):
			name := req.Variables["name"].(string)
			nodes := []string{
				commitJSON(name+"-1", "Update README documentation", now.Add(-2*time.Hour)),
				commitJSON(name+"-2", "fix api bug, improve ui layout style", now.Add(-26*time.Hour)),
				commitJSON(name+"-3", "bump version", now.Add(-50*time.Hour)),
			}
			fmt.Fprintf(w, `{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"pageInfo":{"hasNextPage":false,"endCursor":""},"nodes":[%s]}}}}}}`,
				strings.Join(nodes, ","))
		case strings.Contains(req.Query, "viewer"):
			fmt.Fprintf(w, `{"data":{"viewer":{"repositories":{"pageInfo":{"hasNextPage":false,"endCursor":""},"nodes":[%s,%s]}}}}`,
				repoJSON(1, "alpha", now), repoJSON(2, "beta", now))
		default:
			fmt.Fprintf(w, `{"data":{"rateLimit":{"limit":5000,"remaining":%d,"resetAt":%q,"used":1,"cost":1}}}`,
				remaining, now.Add(time.Hour).Format(time.RFC3339))
		}
	})
}

func repoJSON(id int, name string, updated time.Time) string {
	return fmt.Sprintf(`{"databaseId":%d,"name":%q,"nameWithOwner":"octo/%s","isPrivate":false,"primaryLanguage":{"name":"Go"},"updatedAt":%q,"owner":{"login":"octo"}}`,
		id, name, name, updated.Format(time.RFC3339))
}

func commitJSON(sha, message string, at time.Time) string {
	return fmt.Sprintf(`{"oid":%q,"message":%q,"committedDate":%q,"author":{"name":"Octo","email":"octo@example.com"},"additions":10,"deletions":2,"changedFilesIfAvailable":3,"files":{"nodes":[]}}`,
		sha, message, at.Format(time.RFC3339))
}

func TestPipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool := setupTestDatabase(ctx, t)
	queries := database.New(dbpool)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	require.NoError(t, queries.UpsertGithubAccount(ctx, database.UpsertGithubAccountParams{UserID: "u1", AccessToken: "tok"}))
	token, err := queries.GetGithubToken(ctx, "u1")
	require.NoError(t, err)
	_, err = queries.GetGithubToken(ctx, "nobody")
	assert.ErrorIs(t, err, custom_errors.ErrNoGithubToken)
	accounts, err := queries.ListGithubAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, database.GithubProviderID, accounts[0].ProviderID)

	server := httptest.NewServer(fakeGraphQL(t, 4500))
	t.Cleanup(server.Close)

	ghClient := github.NewClient(server.URL, logger)
	appSyncer := syncer.NewSyncer(ghClient, queries, nil, logger, 0)

	// --- ACT ---
	first, err := appSyncer.SyncUserData(ctx, token, "u1", 30)
	require.NoError(t, err)
	second, err := appSyncer.SyncUserData(ctx, token, "u1", 30)
	require.NoError(t, err)

	// --- ASSERT ---
	assert.Equal(t, 6, first.CommitsAdded)
	assert.Equal(t, 2, first.RepositoriesSynced)
	assert.Equal(t, 0, second.CommitsAdded)

	repos, err := queries.ListRepositoriesByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, repos, 2)

	stored, err := queries.ListCommitsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for _, c := range stored {
		assert.Equal(t, "other", c.Classification)
	}

	classifier := classification.NewService(queries, nil, nil, logger)
	outcome, err := classifier.ClassifyUnclassified(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, classification.Outcome{Classified: 4, Skipped: 2}, outcome)

	again, err := classifier.ClassifyUnclassified(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, classification.Outcome{Skipped: 2}, again)

	stats, err := classifier.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats[model.CommitTypeDocs])
	assert.Equal(t, 2, stats[model.CommitTypeFrontend])
	assert.Equal(t, 2, stats[model.CommitTypeOther])

	overview, err := analytics.NewService(queries, logger).Overview(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), overview.Stats.TotalCommits)
	assert.Equal(t, int64(60), overview.Stats.TotalAdditions)
	assert.Equal(t, 3.0, overview.Stats.AvgFilesChanged)
	assert.Equal(t, int64(2), overview.RepositoryStats.TotalRepositories)
	assert.Equal(t, int64(6), overview.Comparison.RecentPeriod)
	assert.GreaterOrEqual(t, overview.Streak.LongestStreak, 2)
	assert.Len(t, overview.Heatmap, 24)

	var distribution float64
	for _, s := range overview.TypeDistribution {
		distribution += s.Percentage
	}
	assert.InDelta(t, 100, distribution, 0.3)
}

func TestPipeline_RateLimitShortCircuit_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool := setupTestDatabase(ctx, t)
	queries := database.New(dbpool)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	server := httptest.NewServer(fakeGraphQL(t, 150))
	t.Cleanup(server.Close)

	appSyncer := syncer.NewSyncer(github.NewClient(server.URL, logger), queries, nil, logger, 0)

	_, err := appSyncer.SyncUserData(ctx, "tok", "u1", 30)

	assert.True(t, custom_errors.IsRateLimit(err))
	repos, err := queries.ListRepositoriesByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, repos)
}
