package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"commit-insights/internal/database"
)

// languageHints maps a language to substrings that suggest it in a commit message.
// Order matters: ties in the ranking keep this order.
var languageHints = []struct {
	name  string
	hints []string
}{
	{"TypeScript", []string{".ts", ".tsx", "typescript"}},
	{"JavaScript", []string{".js", ".jsx", "javascript"}},
	{"Python", []string{".py", "python"}},
	{"Java", []string{".java"}},
	{"Go", []string{".go"}},
	{"Rust", []string{".rs", "rust"}},
	{"C/C++", []string{".cpp", ".c"}},
	{"Ruby", []string{".rb", "ruby"}},
	{"PHP", []string{".php"}},
	{"CSS", []string{".css", ".scss"}},
	{"HTML", []string{".html"}},
	{"Markdown", []string{".md", "markdown"}},
}

// LanguageStats guesses the user's top languages from hints in their most recent
// commit messages. It inspects messages only, never diffs, so it is an approximation.
// Percentages are relative to the hits of the returned languages.
func (s *Service) LanguageStats(ctx context.Context, userID string) ([]LanguageShare, error) {
	messages, err := s.store.ListRecentCommitMessages(ctx, database.ListRecentCommitMessagesParams{
		UserID: userID,
		Limit:  languageSampleCommits,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent commit messages: %w", err)
	}
	return rankLanguages(messages), nil
}

func rankLanguages(messages []string) []LanguageShare {
	counts := make([]LanguageShare, len(languageHints))
	for i, l := range languageHints {
		counts[i].Language = l.name
	}

	for _, msg := range messages {
		msg = strings.ToLower(msg)
		for i, l := range languageHints {
			for _, h := range l.hints {
				if strings.Contains(msg, h) {
					counts[i].Count++
					break
				}
			}
		}
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })

	top := make([]LanguageShare, 0, topLanguages)
	total := 0
	for _, c := range counts {
		if c.Count == 0 || len(top) == topLanguages {
			break
		}
		top = append(top, c)
		total += c.Count
	}
	for i := range top {
		top[i].Percentage = int(math.Round(float64(top[i].Count) / float64(total) * 100))
	}
	return top
}
