package analytics

import (
	"time"

	"commit-insights/internal/model"
)

// TypeShare is one slice of the commit type distribution.
type TypeShare struct {
	Type       model.CommitType `json:"type"`
	Name       string           `json:"name"`
	Count      int64            `json:"value"`
	Percentage float64          `json:"percentage"`
	Color      string           `json:"color"`
}

// DailyCount is the number of commits on one UTC calendar date.
type DailyCount struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Commits int64  `json:"commits"`
}

// HeatmapRow holds the commit counts of one hour of the day, indexed by weekday (0 = Sunday).
type HeatmapRow struct {
	Hour   int      `json:"hour"`
	Counts [7]int64 `json:"counts"`
}

type OverallStats struct {
	TotalCommits    int64      `json:"totalCommits"`
	TotalAdditions  int64      `json:"totalAdditions"`
	TotalDeletions  int64      `json:"totalDeletions"`
	AvgFilesChanged float64    `json:"avgFilesChanged"`
	FirstCommit     *time.Time `json:"firstCommit"`
	LastCommit      *time.Time `json:"lastCommit"`
}

type RepositoryActivity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Commits   int64  `json:"commits"`
	Additions int64  `json:"additions"`
	Deletions int64  `json:"deletions"`
}

// PeriodComparison compares the trailing 30 days with the 30 days before them.
type PeriodComparison struct {
	RecentPeriod     int64 `json:"recentPeriod"`
	PreviousPeriod   int64 `json:"previousPeriod"`
	PercentageChange int   `json:"percentageChange"`
}

type Streak struct {
	CurrentStreak  int        `json:"currentStreak"`
	LongestStreak  int        `json:"longestStreak"`
	LastCommitDate *time.Time `json:"lastCommitDate"`
}

type RepositoryStats struct {
	TotalRepositories     int64  `json:"totalRepositories"`
	MostActiveRepo        string `json:"mostActiveRepo"`
	MostActiveRepoCommits int64  `json:"mostActiveRepoCommits"`
}

type ProductivityStats struct {
	MostProductiveDay       string `json:"mostProductiveDay"`
	MostProductiveDayCount  int64  `json:"mostProductiveDayCount"`
	MostProductiveHour      int    `json:"mostProductiveHour"`
	MostProductiveHourCount int64  `json:"mostProductiveHourCount"`
}

type FrequencyStats struct {
	AvgCommitsPerDay     float64 `json:"avgCommitsPerDay"`
	MostActiveMonth      string  `json:"mostActiveMonth"`
	MostActiveMonthCount int64   `json:"mostActiveMonthCount"`
	ConsistencyScore     int     `json:"consistencyScore"`
}

type LanguageShare struct {
	Language   string `json:"language"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type WeekdayCount struct {
	Day     string `json:"day"`
	Commits int64  `json:"commits"`
}

type HourCount struct {
	Hour    string `json:"hour"`
	HourNum int    `json:"hourNum"`
	Commits int64  `json:"commits"`
}

// Overview bundles every view for the dashboard.
type Overview struct {
	TypeDistribution []TypeShare          `json:"typeDistribution"`
	CommitsOverTime  []DailyCount         `json:"commitsOverTime"`
	Heatmap          []HeatmapRow         `json:"heatmap"`
	Stats            OverallStats         `json:"stats"`
	TopRepositories  []RepositoryActivity `json:"topRepositories"`
	Comparison       PeriodComparison     `json:"comparison"`
	Streak           Streak               `json:"streak"`
	RepositoryStats  RepositoryStats      `json:"repositoryStats"`
	Productivity     ProductivityStats    `json:"productivity"`
	Frequency        FrequencyStats       `json:"frequency"`
	Languages        []LanguageShare      `json:"languages"`
	WeeklyPattern    []WeekdayCount       `json:"weeklyPattern"`
	HourlyPattern    []HourCount          `json:"hourlyPattern"`
}
