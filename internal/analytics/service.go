// Package analytics derives read-only dashboard views from a user's stored commits.
// Calendar dates, weekdays and hours are all taken in UTC.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"commit-insights/internal/database"
	"commit-insights/internal/model"
)

const (
	defaultTimelineDays   = 30
	defaultTopRepos       = 5
	comparisonWindowDays  = 30
	languageSampleCommits = 100
	topLanguages          = 3
	notAvailable          = "N/A"
)

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Store is the slice of database.Querier the aggregations read from.
type Store interface {
	CountCommitsByClassification(ctx context.Context, userID string) ([]database.CountCommitsByClassificationRow, error)
	DailyCommitCounts(ctx context.Context, arg database.DailyCommitCountsParams) ([]database.DailyCommitCountsRow, error)
	HourWeekdayCommitCounts(ctx context.Context, userID string) ([]database.HourWeekdayCommitCountsRow, error)
	GetCommitTotals(ctx context.Context, userID string) (database.GetCommitTotalsRow, error)
	TopRepositoriesByCommits(ctx context.Context, arg database.TopRepositoriesByCommitsParams) ([]database.TopRepositoriesByCommitsRow, error)
	CountCommitsInRange(ctx context.Context, arg database.CountCommitsInRangeParams) (int64, error)
	CountDistinctRepositories(ctx context.Context, userID string) (int64, error)
	ListRecentCommitMessages(ctx context.Context, arg database.ListRecentCommitMessagesParams) ([]string, error)
}

// Service computes the analytics views. Every method is independent and safe for concurrent use.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// TypeDistribution returns the share of each classification present in the user's commits.
// The result is empty when the user has no commits.
func (s *Service) TypeDistribution(ctx context.Context, userID string) ([]TypeShare, error) {
	rows, err := s.store.CountCommitsByClassification(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count commits by type: %w", err)
	}

	var total int64
	for _, r := range rows {
		total += r.Count
	}
	if total == 0 {
		return []TypeShare{}, nil
	}

	shares := make([]TypeShare, 0, len(rows))
	for _, r := range rows {
		t := model.CommitType(r.Classification)
		shares = append(shares, TypeShare{
			Type:       t,
			Name:       t.DisplayName(),
			Count:      r.Count,
			Percentage: roundTo(float64(r.Count)/float64(total)*100, 1),
			Color:      t.Color(),
		})
	}
	return shares, nil
}

// CommitsOverTime returns daily counts for the trailing days, ascending.
// Days without commits are absent from the series.
func (s *Service) CommitsOverTime(ctx context.Context, userID string, days int) ([]DailyCount, error) {
	if days <= 0 {
		days = defaultTimelineDays
	}
	since := s.now().AddDate(0, 0, -days)

	rows, err := s.store.DailyCommitCounts(ctx, database.DailyCommitCountsParams{UserID: userID, Since: &since})
	if err != nil {
		return nil, fmt.Errorf("failed to load daily commit counts: %w", err)
	}

	series := make([]DailyCount, 0, len(rows))
	for _, r := range rows {
		series = append(series, DailyCount{Date: r.Day.UTC().Format(time.DateOnly), Commits: r.Count})
	}
	return series, nil
}

// Heatmap returns a dense 24x7 matrix of commit counts by hour and weekday.
func (s *Service) Heatmap(ctx context.Context, userID string) ([]HeatmapRow, error) {
	grid, err := s.hourWeekdayGrid(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows := make([]HeatmapRow, 24)
	for h := range grid {
		rows[h] = HeatmapRow{Hour: h, Counts: grid[h]}
	}
	return rows, nil
}

// OverallStats returns commit and line totals. All values are zero when there are no commits.
func (s *Service) OverallStats(ctx context.Context, userID string) (OverallStats, error) {
	t, err := s.store.GetCommitTotals(ctx, userID)
	if err != nil {
		return OverallStats{}, fmt.Errorf("failed to load commit totals: %w", err)
	}
	return OverallStats{
		TotalCommits:    t.TotalCommits,
		TotalAdditions:  t.TotalAdditions,
		TotalDeletions:  t.TotalDeletions,
		AvgFilesChanged: roundTo(t.AvgFilesChanged, 1),
		FirstCommit:     t.FirstCommit,
		LastCommit:      t.LastCommit,
	}, nil
}

func (s *Service) TopRepositories(ctx context.Context, userID string, limit int) ([]RepositoryActivity, error) {
	if limit <= 0 {
		limit = defaultTopRepos
	}
	rows, err := s.store.TopRepositoriesByCommits(ctx, database.TopRepositoriesByCommitsParams{UserID: userID, Limit: int32(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to load top repositories: %w", err)
	}

	repos := make([]RepositoryActivity, 0, len(rows))
	for _, r := range rows {
		repos = append(repos, RepositoryActivity{
			ID:        r.RepositoryID,
			Name:      r.Name,
			Commits:   r.CommitCount,
			Additions: r.TotalAdditions,
			Deletions: r.TotalDeletions,
		})
	}
	return repos, nil
}

// PeriodComparison counts commits of the trailing 30 days against the 30 days before.
func (s *Service) PeriodComparison(ctx context.Context, userID string) (PeriodComparison, error) {
	now := s.now()
	recentFrom := now.AddDate(0, 0, -comparisonWindowDays)
	previousFrom := now.AddDate(0, 0, -2*comparisonWindowDays)

	recent, err := s.store.CountCommitsInRange(ctx, database.CountCommitsInRangeParams{UserID: userID, From: recentFrom})
	if err != nil {
		return PeriodComparison{}, fmt.Errorf("failed to count recent commits: %w", err)
	}
	previous, err := s.store.CountCommitsInRange(ctx, database.CountCommitsInRangeParams{UserID: userID, From: previousFrom, Before: &recentFrom})
	if err != nil {
		return PeriodComparison{}, fmt.Errorf("failed to count previous commits: %w", err)
	}

	return PeriodComparison{
		RecentPeriod:     recent,
		PreviousPeriod:   previous,
		PercentageChange: percentageChange(recent, previous),
	}, nil
}

func percentageChange(recent, previous int64) int {
	if previous == 0 {
		if recent > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(recent-previous) / float64(previous) * 100))
}

// ContributionStreak reports the current and longest runs of consecutive commit days.
// The current streak only counts when the latest commit day is today or yesterday.
func (s *Service) ContributionStreak(ctx context.Context, userID string) (Streak, error) {
	rows, err := s.store.DailyCommitCounts(ctx, database.DailyCommitCountsParams{UserID: userID})
	if err != nil {
		return Streak{}, fmt.Errorf("failed to load commit days: %w", err)
	}
	if len(rows) == 0 {
		return Streak{}, nil
	}

	// Newest first.
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[len(rows)-1-i] = truncateDay(r.Day)
	}
	last := dates[0]

	return Streak{
		CurrentStreak:  currentStreak(dates, truncateDay(s.now())),
		LongestStreak:  longestStreak(dates),
		LastCommitDate: &last,
	}, nil
}

// currentStreak walks distinct commit days, newest first, until the first gap.
func currentStreak(dates []time.Time, today time.Time) int {
	if daysBetween(today, dates[0]) > 1 {
		return 0
	}

	streak := 0
	check := dates[0]
	for _, d := range dates {
		switch daysBetween(check, d) {
		case 0:
			streak++
		case 1:
			streak++
			check = d
		default:
			return streak
		}
	}
	return streak
}

func longestStreak(dates []time.Time) int {
	longest, run := 0, 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) == 1 {
			run++
			continue
		}
		longest = max(longest, run)
		run = 1
	}
	return max(longest, run)
}

// RepositoryStats reports how many repositories have commits and which one has the most.
func (s *Service) RepositoryStats(ctx context.Context, userID string) (RepositoryStats, error) {
	total, err := s.store.CountDistinctRepositories(ctx, userID)
	if err != nil {
		return RepositoryStats{}, fmt.Errorf("failed to count repositories: %w", err)
	}
	top, err := s.store.TopRepositoriesByCommits(ctx, database.TopRepositoriesByCommitsParams{UserID: userID, Limit: 1})
	if err != nil {
		return RepositoryStats{}, fmt.Errorf("failed to load most active repository: %w", err)
	}

	stats := RepositoryStats{TotalRepositories: total, MostActiveRepo: notAvailable}
	if len(top) > 0 {
		stats.MostActiveRepo = top[0].Name
		stats.MostActiveRepoCommits = top[0].CommitCount
	}
	return stats, nil
}

// ProductivityStats finds the busiest weekday and the busiest hour independently.
func (s *Service) ProductivityStats(ctx context.Context, userID string) (ProductivityStats, error) {
	grid, err := s.hourWeekdayGrid(ctx, userID)
	if err != nil {
		return ProductivityStats{}, err
	}

	var byDay [7]int64
	var byHour [24]int64
	for h, row := range grid {
		for d, n := range row {
			byDay[d] += n
			byHour[h] += n
		}
	}

	stats := ProductivityStats{MostProductiveDay: notAvailable}
	if d, n := argmax(byDay[:]); n > 0 {
		stats.MostProductiveDay = weekdayNames[d]
		stats.MostProductiveDayCount = n
	}
	if h, n := argmax(byHour[:]); n > 0 {
		stats.MostProductiveHour = h
		stats.MostProductiveHourCount = n
	}
	return stats, nil
}

// FrequencyStats reports the average daily rate, the busiest month and a consistency score.
//
// The consistency score is 100 - 10*stddev of the per-day counts of active days,
// clamped to [0, 100]; days without commits are not part of the population.
func (s *Service) FrequencyStats(ctx context.Context, userID string) (FrequencyStats, error) {
	totals, err := s.store.GetCommitTotals(ctx, userID)
	if err != nil {
		return FrequencyStats{}, fmt.Errorf("failed to load commit totals: %w", err)
	}
	daily, err := s.store.DailyCommitCounts(ctx, database.DailyCommitCountsParams{UserID: userID})
	if err != nil {
		return FrequencyStats{}, fmt.Errorf("failed to load daily commit counts: %w", err)
	}

	stats := FrequencyStats{MostActiveMonth: notAvailable}

	if totals.FirstCommit != nil && totals.LastCommit != nil {
		span := math.Ceil(totals.LastCommit.Sub(*totals.FirstCommit).Hours() / 24)
		stats.AvgCommitsPerDay = float64(totals.TotalCommits) / math.Max(1, span)
	}

	// Rows arrive in ascending date order so months are visited chronologically.
	var months []string
	perMonth := make(map[string]int64)
	counts := make([]float64, 0, len(daily))
	for _, r := range daily {
		m := r.Day.UTC().Format("2006-01")
		if _, ok := perMonth[m]; !ok {
			months = append(months, m)
		}
		perMonth[m] += r.Count
		counts = append(counts, float64(r.Count))
	}
	for _, m := range months {
		if perMonth[m] > stats.MostActiveMonthCount {
			stats.MostActiveMonth = m
			stats.MostActiveMonthCount = perMonth[m]
		}
	}

	if len(counts) > 0 {
		score := 100 - 10*populationStdDev(counts)
		stats.ConsistencyScore = int(math.Round(math.Max(0, math.Min(100, score))))
	}
	return stats, nil
}

func populationStdDev(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}

// WeeklyPattern returns the commit count of every weekday, Sunday first.
func (s *Service) WeeklyPattern(ctx context.Context, userID string) ([]WeekdayCount, error) {
	grid, err := s.hourWeekdayGrid(ctx, userID)
	if err != nil {
		return nil, err
	}

	pattern := make([]WeekdayCount, 7)
	for d := range pattern {
		pattern[d].Day = weekdayNames[d][:3]
		for h := range grid {
			pattern[d].Commits += grid[h][d]
		}
	}
	return pattern, nil
}

// HourlyPattern returns the commit count of every hour with 12-hour labels ("12a", "1p").
func (s *Service) HourlyPattern(ctx context.Context, userID string) ([]HourCount, error) {
	grid, err := s.hourWeekdayGrid(ctx, userID)
	if err != nil {
		return nil, err
	}

	pattern := make([]HourCount, 24)
	for h := range pattern {
		pattern[h] = HourCount{Hour: hourLabel(h), HourNum: h}
		for _, n := range grid[h] {
			pattern[h].Commits += n
		}
	}
	return pattern, nil
}

func hourLabel(h int) string {
	switch {
	case h == 0:
		return "12a"
	case h == 12:
		return "12p"
	case h > 12:
		return fmt.Sprintf("%dp", h-12)
	default:
		return fmt.Sprintf("%da", h)
	}
}

// hourWeekdayGrid loads commit counts into a zero-filled [hour][weekday] matrix.
func (s *Service) hourWeekdayGrid(ctx context.Context, userID string) ([24][7]int64, error) {
	var grid [24][7]int64
	rows, err := s.store.HourWeekdayCommitCounts(ctx, userID)
	if err != nil {
		return grid, fmt.Errorf("failed to load hourly commit counts: %w", err)
	}
	for _, r := range rows {
		if r.Hour < 0 || r.Hour > 23 || r.Weekday < 0 || r.Weekday > 6 {
			s.logger.Warn("Ignoring out of range activity bucket", "hour", r.Hour, "weekday", r.Weekday)
			continue
		}
		grid[r.Hour][r.Weekday] += r.Count
	}
	return grid, nil
}

// argmax returns the first index holding the largest value.
func argmax(xs []int64) (int, int64) {
	idx, best := 0, int64(0)
	for i, x := range xs {
		if x > best {
			idx, best = i, x
		}
	}
	return idx, best
}

func roundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from b to a; both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(math.Floor(a.Sub(b).Hours() / 24))
}
