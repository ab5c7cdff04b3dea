// internal/database/analytics.sql.go
package database

import (
	"context"
	"time"
)

// All calendar grouping below is done in UTC.

const dailyCommitCounts = `
SELECT (committed_at AT TIME ZONE 'UTC')::date AS day, COUNT(*)
FROM commits
WHERE user_id = $1 AND ($2::timestamptz IS NULL OR committed_at >= $2::timestamptz)
GROUP BY day
ORDER BY day
`

type DailyCommitCountsParams struct {
	UserID string
	Since  *time.Time
}

type DailyCommitCountsRow struct {
	Day   time.Time
	Count int64
}

// DailyCommitCounts returns per-day commit counts in ascending date order.
// Days without commits are absent. A nil Since covers the whole history.
func (q *Queries) DailyCommitCounts(ctx context.Context, arg DailyCommitCountsParams) ([]DailyCommitCountsRow, error) {
	rows, err := q.db.Query(ctx, dailyCommitCounts, arg.UserID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailyCommitCountsRow
	for rows.Next() {
		var i DailyCommitCountsRow
		if err := rows.Scan(&i.Day, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const hourWeekdayCommitCounts = `
SELECT EXTRACT(HOUR FROM committed_at AT TIME ZONE 'UTC')::int AS hour,
       EXTRACT(DOW FROM committed_at AT TIME ZONE 'UTC')::int AS weekday,
       COUNT(*)
FROM commits
WHERE user_id = $1
GROUP BY hour, weekday
ORDER BY hour, weekday
`

type HourWeekdayCommitCountsRow struct {
	Hour    int32
	Weekday int32 // 0 = Sunday
	Count   int64
}

func (q *Queries) HourWeekdayCommitCounts(ctx context.Context, userID string) ([]HourWeekdayCommitCountsRow, error) {
	rows, err := q.db.Query(ctx, hourWeekdayCommitCounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []HourWeekdayCommitCountsRow
	for rows.Next() {
		var i HourWeekdayCommitCountsRow
		if err := rows.Scan(&i.Hour, &i.Weekday, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCommitTotals = `
SELECT COUNT(*),
       COALESCE(SUM(additions), 0)::bigint,
       COALESCE(SUM(deletions), 0)::bigint,
       COALESCE(AVG(files_changed), 0)::float8,
       MIN(committed_at),
       MAX(committed_at)
FROM commits
WHERE user_id = $1
`

type GetCommitTotalsRow struct {
	TotalCommits    int64
	TotalAdditions  int64
	TotalDeletions  int64
	AvgFilesChanged float64
	FirstCommit     *time.Time
	LastCommit      *time.Time
}

func (q *Queries) GetCommitTotals(ctx context.Context, userID string) (GetCommitTotalsRow, error) {
	row := q.db.QueryRow(ctx, getCommitTotals, userID)
	var i GetCommitTotalsRow
	err := row.Scan(
		&i.TotalCommits,
		&i.TotalAdditions,
		&i.TotalDeletions,
		&i.AvgFilesChanged,
		&i.FirstCommit,
		&i.LastCommit,
	)
	return i, err
}

const topRepositoriesByCommits = `
SELECT r.id::text, r.name, COUNT(*) AS commit_count,
       COALESCE(SUM(c.additions), 0)::bigint,
       COALESCE(SUM(c.deletions), 0)::bigint
FROM commits c
JOIN repositories r ON r.id = c.repository_id
WHERE c.user_id = $1
GROUP BY r.id, r.name
ORDER BY commit_count DESC, r.name
LIMIT $2
`

type TopRepositoriesByCommitsParams struct {
	UserID string
	Limit  int32
}

type TopRepositoriesByCommitsRow struct {
	RepositoryID   string
	Name           string
	CommitCount    int64
	TotalAdditions int64
	TotalDeletions int64
}

func (q *Queries) TopRepositoriesByCommits(ctx context.Context, arg TopRepositoriesByCommitsParams) ([]TopRepositoriesByCommitsRow, error) {
	rows, err := q.db.Query(ctx, topRepositoriesByCommits, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopRepositoriesByCommitsRow
	for rows.Next() {
		var i TopRepositoriesByCommitsRow
		if err := rows.Scan(&i.RepositoryID, &i.Name, &i.CommitCount, &i.TotalAdditions, &i.TotalDeletions); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countCommitsInRange = `
SELECT COUNT(*)
FROM commits
WHERE user_id = $1
  AND committed_at >= $2
  AND ($3::timestamptz IS NULL OR committed_at < $3::timestamptz)
`

type CountCommitsInRangeParams struct {
	UserID string
	From   time.Time
	Before *time.Time
}

// CountCommitsInRange counts commits in [From, Before); a nil Before is open-ended.
func (q *Queries) CountCommitsInRange(ctx context.Context, arg CountCommitsInRangeParams) (int64, error) {
	row := q.db.QueryRow(ctx, countCommitsInRange, arg.UserID, arg.From, arg.Before)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countDistinctRepositories = `
SELECT COUNT(DISTINCT repository_id)
FROM commits
WHERE user_id = $1
`

func (q *Queries) CountDistinctRepositories(ctx context.Context, userID string) (int64, error) {
	row := q.db.QueryRow(ctx, countDistinctRepositories, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listRecentCommitMessages = `
SELECT message
FROM commits
WHERE user_id = $1
ORDER BY committed_at DESC
LIMIT $2
`

type ListRecentCommitMessagesParams struct {
	UserID string
	Limit  int32
}

func (q *Queries) ListRecentCommitMessages(ctx context.Context, arg ListRecentCommitMessagesParams) ([]string, error) {
	rows, err := q.db.Query(ctx, listRecentCommitMessages, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, err
		}
		items = append(items, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
