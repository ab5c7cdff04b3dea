// internal/model/models.go
package model

import (
	"time"
)

// CommitType is the category assigned to a commit by the classification engine.
type CommitType string

const (
	CommitTypeFrontend CommitType = "frontend"
	CommitTypeBackend  CommitType = "backend"
	CommitTypeDocs     CommitType = "docs"
	CommitTypeConfig   CommitType = "config"
	CommitTypeTest     CommitType = "test"
	CommitTypeOther    CommitType = "other"
)

// AllCommitTypes returns every commit type in display order.
func AllCommitTypes() []CommitType {
	return []CommitType{
		CommitTypeFrontend,
		CommitTypeBackend,
		CommitTypeDocs,
		CommitTypeConfig,
		CommitTypeTest,
		CommitTypeOther,
	}
}

// Valid reports whether t is one of the known commit types.
func (t CommitType) Valid() bool {
	switch t {
	case CommitTypeFrontend, CommitTypeBackend, CommitTypeDocs, CommitTypeConfig, CommitTypeTest, CommitTypeOther:
		return true
	}
	return false
}

// DisplayName returns the human readable label for t.
func (t CommitType) DisplayName() string {
	switch t {
	case CommitTypeFrontend:
		return "Frontend"
	case CommitTypeBackend:
		return "Backend"
	case CommitTypeDocs:
		return "Documentation"
	case CommitTypeConfig:
		return "Configuration"
	case CommitTypeTest:
		return "Testing"
	default:
		return "Other"
	}
}

// Color returns the hex chart color for t.
func (t CommitType) Color() string {
	switch t {
	case CommitTypeFrontend:
		return "#3B82F6"
	case CommitTypeBackend:
		return "#10B981"
	case CommitTypeDocs:
		return "#8B5CF6"
	case CommitTypeConfig:
		return "#F59E0B"
	case CommitTypeTest:
		return "#EC4899"
	default:
		return "#6B7280"
	}
}

// Repository represents a GitHub repository as returned by the repository listing.
type Repository struct {
	GithubRepoID int64
	Owner        string
	Name         string
	FullName     string // owner/name
	Private      bool
	Language     *string
	UpdatedAt    time.Time
}

// Commit represents a commit fetched from a repository's default branch history.
type Commit struct {
	SHA          string
	Message      string
	AuthorName   string
	AuthorEmail  string
	CommittedAt  time.Time
	FilesChanged int
	Additions    int
	Deletions    int
	Files        []FileChange
}

// FileChange is a per-file diff stat attached to a fetched commit.
type FileChange struct {
	Path      string
	Additions int
	Deletions int
}

// RateLimit is the GraphQL quota snapshot of a token.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Cost      int       `json:"cost"`
	ResetAt   time.Time `json:"resetAt"`
}
