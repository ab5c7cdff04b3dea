// internal/database/models.go
package database

import (
	"time"
)

const GithubProviderID = "github"

type Account struct {
	UserID      string
	ProviderID  string
	AccessToken *string
	UpdatedAt   time.Time
}

type Repository struct {
	ID           string
	UserID       string
	GithubRepoID int64
	Name         string
	FullName     string
	Private      bool
	Language     *string
	LastSyncAt   *time.Time
	CreatedAt    time.Time
}

type Commit struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	RepositoryID    string    `json:"repository_id"`
	GithubCommitSha string    `json:"sha"`
	Message         string    `json:"message"`
	AuthorName      string    `json:"author_name"`
	AuthorEmail     string    `json:"author_email"`
	CommittedAt     time.Time `json:"committed_at"`
	Classification  string    `json:"classification"`
	FilesChanged    int32     `json:"files_changed"`
	Additions       int32     `json:"additions"`
	Deletions       int32     `json:"deletions"`
	CreatedAt       time.Time `json:"created_at"`
}
