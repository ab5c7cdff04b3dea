// internal/database/commits.sql.go
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const commitColumns = `id::text, user_id, repository_id::text, github_commit_sha, message, author_name, author_email,
    committed_at, classification, files_changed, additions, deletions, created_at`

func scanCommits(rows pgx.Rows) ([]Commit, error) {
	defer rows.Close()
	var items []Commit
	for rows.Next() {
		var i Commit
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.RepositoryID,
			&i.GithubCommitSha,
			&i.Message,
			&i.AuthorName,
			&i.AuthorEmail,
			&i.CommittedAt,
			&i.Classification,
			&i.FilesChanged,
			&i.Additions,
			&i.Deletions,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertCommit = `
INSERT INTO commits (id, user_id, repository_id, github_commit_sha, message, author_name, author_email,
    committed_at, classification, files_changed, additions, deletions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (user_id, repository_id, github_commit_sha) DO NOTHING
`

type InsertCommitParams struct {
	UserID          string
	RepositoryID    string
	GithubCommitSha string
	Message         string
	AuthorName      string
	AuthorEmail     string
	CommittedAt     time.Time
	Classification  string
	FilesChanged    int32
	Additions       int32
	Deletions       int32
}

// InsertCommit inserts a commit and returns the number of rows written:
// 0 when the (user, repository, sha) key already exists.
func (q *Queries) InsertCommit(ctx context.Context, arg InsertCommitParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertCommit,
		uuid.NewString(),
		arg.UserID,
		arg.RepositoryID,
		arg.GithubCommitSha,
		arg.Message,
		arg.AuthorName,
		arg.AuthorEmail,
		arg.CommittedAt,
		arg.Classification,
		arg.FilesChanged,
		arg.Additions,
		arg.Deletions,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listCommitsByUser = `
SELECT ` + commitColumns + `
FROM commits
WHERE user_id = $1
ORDER BY committed_at
`

func (q *Queries) ListCommitsByUser(ctx context.Context, userID string) ([]Commit, error) {
	rows, err := q.db.Query(ctx, listCommitsByUser, userID)
	if err != nil {
		return nil, err
	}
	return scanCommits(rows)
}

const listCommitsByUserAndClassification = `
SELECT ` + commitColumns + `
FROM commits
WHERE user_id = $1 AND classification = $2
ORDER BY committed_at
`

type ListCommitsByUserAndClassificationParams struct {
	UserID         string
	Classification string
}

func (q *Queries) ListCommitsByUserAndClassification(ctx context.Context, arg ListCommitsByUserAndClassificationParams) ([]Commit, error) {
	rows, err := q.db.Query(ctx, listCommitsByUserAndClassification, arg.UserID, arg.Classification)
	if err != nil {
		return nil, err
	}
	return scanCommits(rows)
}

const listCommitsByType = `
SELECT ` + commitColumns + `
FROM commits
WHERE user_id = $1 AND classification = $2
ORDER BY committed_at
LIMIT $3
`

type ListCommitsByTypeParams struct {
	UserID         string
	Classification string
	Limit          int32
}

func (q *Queries) ListCommitsByType(ctx context.Context, arg ListCommitsByTypeParams) ([]Commit, error) {
	rows, err := q.db.Query(ctx, listCommitsByType, arg.UserID, arg.Classification, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanCommits(rows)
}

const updateCommitClassification = `
UPDATE commits
SET classification = $2
WHERE id = $1
`

type UpdateCommitClassificationParams struct {
	ID             string
	Classification string
}

func (q *Queries) UpdateCommitClassification(ctx context.Context, arg UpdateCommitClassificationParams) error {
	_, err := q.db.Exec(ctx, updateCommitClassification, arg.ID, arg.Classification)
	return err
}

const countCommitsByClassification = `
SELECT classification, COUNT(*)
FROM commits
WHERE user_id = $1
GROUP BY classification
ORDER BY COUNT(*) DESC, classification
`

type CountCommitsByClassificationRow struct {
	Classification string
	Count          int64
}

func (q *Queries) CountCommitsByClassification(ctx context.Context, userID string) ([]CountCommitsByClassificationRow, error) {
	rows, err := q.db.Query(ctx, countCommitsByClassification, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountCommitsByClassificationRow
	for rows.Next() {
		var i CountCommitsByClassificationRow
		if err := rows.Scan(&i.Classification, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
