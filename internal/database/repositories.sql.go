// internal/database/repositories.sql.go
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const upsertRepository = `
INSERT INTO repositories (id, user_id, github_repo_id, name, full_name, private, language, last_sync_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, github_repo_id) DO UPDATE SET
    name = EXCLUDED.name,
    full_name = EXCLUDED.full_name,
    private = EXCLUDED.private,
    language = EXCLUDED.language,
    last_sync_at = EXCLUDED.last_sync_at
RETURNING id::text, user_id, github_repo_id, name, full_name, private, language, last_sync_at, created_at
`

type UpsertRepositoryParams struct {
	UserID       string
	GithubRepoID int64
	Name         string
	FullName     string
	Private      bool
	Language     *string
	LastSyncAt   time.Time
}

// UpsertRepository inserts a repository or, when (user_id, github_repo_id) already
// exists, updates its mutable fields in place and keeps the existing id.
func (q *Queries) UpsertRepository(ctx context.Context, arg UpsertRepositoryParams) (Repository, error) {
	row := q.db.QueryRow(ctx, upsertRepository,
		uuid.NewString(),
		arg.UserID,
		arg.GithubRepoID,
		arg.Name,
		arg.FullName,
		arg.Private,
		arg.Language,
		arg.LastSyncAt,
	)
	var i Repository
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.GithubRepoID,
		&i.Name,
		&i.FullName,
		&i.Private,
		&i.Language,
		&i.LastSyncAt,
		&i.CreatedAt,
	)
	return i, err
}

const listRepositoriesByUser = `
SELECT id::text, user_id, github_repo_id, name, full_name, private, language, last_sync_at, created_at
FROM repositories
WHERE user_id = $1
ORDER BY full_name
`

func (q *Queries) ListRepositoriesByUser(ctx context.Context, userID string) ([]Repository, error) {
	rows, err := q.db.Query(ctx, listRepositoriesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Repository
	for rows.Next() {
		var i Repository
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.GithubRepoID,
			&i.Name,
			&i.FullName,
			&i.Private,
			&i.Language,
			&i.LastSyncAt,
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
