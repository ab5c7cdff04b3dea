// internal/database/accounts.sql.go
package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	custom_errors "commit-insights/internal/errors"
)

const getGithubToken = `
SELECT access_token
FROM accounts
WHERE user_id = $1 AND provider_id = $2
LIMIT 1
`

// GetGithubToken returns the stored GitHub access token of a user, or
// custom_errors.ErrNoGithubToken when none is stored.
func (q *Queries) GetGithubToken(ctx context.Context, userID string) (string, error) {
	row := q.db.QueryRow(ctx, getGithubToken, userID, GithubProviderID)
	var token *string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", custom_errors.ErrNoGithubToken
		}
		return "", err
	}
	if token == nil || *token == "" {
		return "", custom_errors.ErrNoGithubToken
	}
	return *token, nil
}

const listGithubAccounts = `
SELECT user_id, provider_id, access_token, updated_at
FROM accounts
WHERE provider_id = $1 AND access_token IS NOT NULL AND access_token <> ''
ORDER BY user_id
`

func (q *Queries) ListGithubAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.Query(ctx, listGithubAccounts, GithubProviderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.UserID, &i.ProviderID, &i.AccessToken, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertGithubAccount = `
INSERT INTO accounts (user_id, provider_id, access_token, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id, provider_id) DO UPDATE SET
    access_token = EXCLUDED.access_token,
    updated_at = NOW()
`

type UpsertGithubAccountParams struct {
	UserID      string
	AccessToken string
}

func (q *Queries) UpsertGithubAccount(ctx context.Context, arg UpsertGithubAccountParams) error {
	_, err := q.db.Exec(ctx, upsertGithubAccount, arg.UserID, GithubProviderID, arg.AccessToken)
	return err
}
