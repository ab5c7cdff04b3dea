package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"commit-insights/internal/classification"
	"commit-insights/internal/database"
	custom_errors "commit-insights/internal/errors"
)

// AccountStore lists the users that have a GitHub token on file.
type AccountStore interface {
	ListGithubAccounts(ctx context.Context) ([]database.Account, error)
}

// Classifier labels freshly synced commits.
type Classifier interface {
	ClassifyUnclassified(ctx context.Context, userID string) (classification.Outcome, error)
}

// Scheduler periodically syncs and classifies every user with a stored token.
type Scheduler struct {
	accounts    AccountStore
	syncer      *Syncer
	classifier  Classifier
	logger      *slog.Logger
	interval    time.Duration
	concurrency int
	days        int
}

// NewScheduler creates a Scheduler. concurrency bounds how many users sync at once.
func NewScheduler(accounts AccountStore, s *Syncer, classifier Classifier, logger *slog.Logger, interval time.Duration, concurrency, days int) *Scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scheduler{
		accounts:    accounts,
		syncer:      s,
		classifier:  classifier,
		logger:      logger,
		interval:    interval,
		concurrency: concurrency,
		days:        days,
	}
}

// Start runs a cycle immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler", "interval", s.interval.String(), "concurrency", s.concurrency)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runSyncCycle(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSyncCycle(ctx)
		case <-ctx.Done():
			s.logger.Info("Scheduler shutting down", "reason", ctx.Err())
			return
		}
	}
}

// runSyncCycle syncs all accounts concurrently. A failing user never stops the others.
func (s *Scheduler) runSyncCycle(ctx context.Context) {
	accounts, err := s.accounts.ListGithubAccounts(ctx)
	if err != nil {
		s.logger.Error("Failed to list accounts", "error", err)
		return
	}
	s.logger.Info("Starting new sync cycle", "users", len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, acc := range accounts {
		if acc.AccessToken == nil {
			continue
		}
		acc := acc
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			s.syncAccount(gctx, acc.UserID, *acc.AccessToken)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("Sync cycle finished with an error", "error", err)
	} else {
		s.logger.Info("Sync cycle finished")
	}
}

func (s *Scheduler) syncAccount(ctx context.Context, userID, token string) {
	logger := s.logger.With("user_id", userID)

	if _, err := s.syncer.SyncUserData(ctx, token, userID, s.days); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case custom_errors.IsRateLimit(err):
			logger.Warn("Rate limit too low, postponing scheduled sync", "error", err)
		default:
			logger.Error("Scheduled sync failed", "error", err)
		}
		return
	}
	if _, err := s.classifier.ClassifyUnclassified(ctx, userID); err != nil {
		logger.Error("Scheduled classification failed", "error", err)
	}
}
