package classification

import (
	"context"
	"fmt"
	"log/slog"

	"commit-insights/internal/database"
	"commit-insights/internal/model"
)

const defaultCommitsByTypeLimit = 10

// Store is the slice of database.Querier the classification service needs.
type Store interface {
	ListCommitsByUser(ctx context.Context, userID string) ([]database.Commit, error)
	ListCommitsByUserAndClassification(ctx context.Context, arg database.ListCommitsByUserAndClassificationParams) ([]database.Commit, error)
	ListCommitsByType(ctx context.Context, arg database.ListCommitsByTypeParams) ([]database.Commit, error)
	UpdateCommitClassification(ctx context.Context, arg database.UpdateCommitClassificationParams) error
	CountCommitsByClassification(ctx context.Context, userID string) ([]database.CountCommitsByClassificationRow, error)
}

// Invalidator drops cached results of a user after their commits change.
type Invalidator interface {
	DeleteUser(userID string) int
}

// Outcome tallies a classifyUnclassified run.
type Outcome struct {
	Classified int `json:"classified"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// ReclassifyOutcome tallies a reclassifyAll run.
type ReclassifyOutcome struct {
	Classified int `json:"classified"`
	Errors     int `json:"errors"`
}

// Service applies the engine to a user's stored commits.
type Service struct {
	store  Store
	engine *Engine
	cache  Invalidator
	logger *slog.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(store Store, engine *Engine, cache Invalidator, logger *slog.Logger) *Service {
	if engine == nil {
		engine = defaultEngine
	}
	return &Service{
		store:  store,
		engine: engine,
		cache:  cache,
		logger: logger,
	}
}

// ClassifyUnclassified classifies the user's commits still labelled "other".
// A commit is written only when it gets a real category; otherwise it counts as skipped.
// Per-commit failures are logged and counted, never returned.
func (s *Service) ClassifyUnclassified(ctx context.Context, userID string) (Outcome, error) {
	logger := s.logger.With("user_id", userID)

	commits, err := s.store.ListCommitsByUserAndClassification(ctx, database.ListCommitsByUserAndClassificationParams{
		UserID:         userID,
		Classification: string(model.CommitTypeOther),
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to list unclassified commits: %w", err)
	}
	logger.Info("Starting classification", "unclassified", len(commits))

	var out Outcome
	for _, c := range commits {
		result := s.engine.Classify(c.Message)
		if result.Type == model.CommitTypeOther {
			out.Skipped++
			continue
		}

		err := s.store.UpdateCommitClassification(ctx, database.UpdateCommitClassificationParams{
			ID:             c.ID,
			Classification: string(result.Type),
		})
		if err != nil {
			logger.Error("Failed to classify commit", "commit_id", c.ID, "error", err)
			out.Errors++
			continue
		}
		out.Classified++
	}

	s.invalidate(userID)
	logger.Info("Classification complete", "classified", out.Classified, "skipped", out.Skipped, "errors", out.Errors)
	return out, nil
}

// ReclassifyAll classifies every commit of the user and overwrites the stored
// label unconditionally, including back to "other".
func (s *Service) ReclassifyAll(ctx context.Context, userID string) (ReclassifyOutcome, error) {
	logger := s.logger.With("user_id", userID)

	commits, err := s.store.ListCommitsByUser(ctx, userID)
	if err != nil {
		return ReclassifyOutcome{}, fmt.Errorf("failed to list commits: %w", err)
	}
	logger.Info("Reclassifying all commits", "count", len(commits))

	var out ReclassifyOutcome
	for _, c := range commits {
		result := s.engine.Classify(c.Message)
		err := s.store.UpdateCommitClassification(ctx, database.UpdateCommitClassificationParams{
			ID:             c.ID,
			Classification: string(result.Type),
		})
		if err != nil {
			logger.Error("Failed to reclassify commit", "commit_id", c.ID, "error", err)
			out.Errors++
			continue
		}
		out.Classified++
	}

	s.invalidate(userID)
	logger.Info("Reclassification complete", "classified", out.Classified, "errors", out.Errors)
	return out, nil
}

// Stats counts the user's commits per type. Every type is present in the result.
func (s *Service) Stats(ctx context.Context, userID string) (map[model.CommitType]int, error) {
	rows, err := s.store.CountCommitsByClassification(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count commits by classification: %w", err)
	}

	stats := make(map[model.CommitType]int, len(model.AllCommitTypes()))
	for _, t := range model.AllCommitTypes() {
		stats[t] = 0
	}
	for _, row := range rows {
		stats[model.CommitType(row.Classification)] += int(row.Count)
	}
	return stats, nil
}

// CommitsByType lists up to limit commits of the given type, oldest first.
func (s *Service) CommitsByType(ctx context.Context, userID string, t model.CommitType, limit int) ([]database.Commit, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown commit type %q", t)
	}
	if limit <= 0 {
		limit = defaultCommitsByTypeLimit
	}
	commits, err := s.store.ListCommitsByType(ctx, database.ListCommitsByTypeParams{
		UserID:         userID,
		Classification: string(t),
		Limit:          int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s commits: %w", t, err)
	}
	return commits, nil
}

func (s *Service) invalidate(userID string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.DeleteUser(userID); n > 0 {
		s.logger.Debug("Invalidated cached results", "user_id", userID, "entries", n)
	}
}
