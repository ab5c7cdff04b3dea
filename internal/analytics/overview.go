package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Overview computes every view concurrently. The first failing view cancels the rest.
func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var o Overview
	g.Go(func() error {
		var err error
		o.TypeDistribution, err = s.TypeDistribution(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.CommitsOverTime, err = s.CommitsOverTime(gctx, userID, defaultTimelineDays)
		return err
	})
	g.Go(func() error {
		var err error
		o.Heatmap, err = s.Heatmap(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.Stats, err = s.OverallStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.TopRepositories, err = s.TopRepositories(gctx, userID, defaultTopRepos)
		return err
	})
	g.Go(func() error {
		var err error
		o.Comparison, err = s.PeriodComparison(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.Streak, err = s.ContributionStreak(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.RepositoryStats, err = s.RepositoryStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.Productivity, err = s.ProductivityStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.Frequency, err = s.FrequencyStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.Languages, err = s.LanguageStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.WeeklyPattern, err = s.WeeklyPattern(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		o.HourlyPattern, err = s.HourlyPattern(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Debug("Computed analytics overview", "user_id", userID, "duration", time.Since(start))
	return &o, nil
}
