// internal/database/querier.go
package database

import (
	"context"
)

type Querier interface {
	CountCommitsByClassification(ctx context.Context, userID string) ([]CountCommitsByClassificationRow, error)
	CountCommitsInRange(ctx context.Context, arg CountCommitsInRangeParams) (int64, error)
	CountDistinctRepositories(ctx context.Context, userID string) (int64, error)
	DailyCommitCounts(ctx context.Context, arg DailyCommitCountsParams) ([]DailyCommitCountsRow, error)
	GetCommitTotals(ctx context.Context, userID string) (GetCommitTotalsRow, error)
	GetGithubToken(ctx context.Context, userID string) (string, error)
	HourWeekdayCommitCounts(ctx context.Context, userID string) ([]HourWeekdayCommitCountsRow, error)
	InsertCommit(ctx context.Context, arg InsertCommitParams) (int64, error)
	ListCommitsByType(ctx context.Context, arg ListCommitsByTypeParams) ([]Commit, error)
	ListCommitsByUser(ctx context.Context, userID string) ([]Commit, error)
	ListCommitsByUserAndClassification(ctx context.Context, arg ListCommitsByUserAndClassificationParams) ([]Commit, error)
	ListGithubAccounts(ctx context.Context) ([]Account, error)
	ListRecentCommitMessages(ctx context.Context, arg ListRecentCommitMessagesParams) ([]string, error)
	ListRepositoriesByUser(ctx context.Context, userID string) ([]Repository, error)
	TopRepositoriesByCommits(ctx context.Context, arg TopRepositoriesByCommitsParams) ([]TopRepositoriesByCommitsRow, error)
	UpdateCommitClassification(ctx context.Context, arg UpdateCommitClassificationParams) error
	UpsertGithubAccount(ctx context.Context, arg UpsertGithubAccountParams) error
	UpsertRepository(ctx context.Context, arg UpsertRepositoryParams) (Repository, error)
}

var _ Querier = (*Queries)(nil)
