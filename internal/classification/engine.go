// Package classification assigns a commit type to commit messages with a
// deterministic keyword and pattern scorer, and applies it to stored commits.
package classification

import (
	"fmt"
	"math"
	"strings"

	"commit-insights/internal/model"
)

const maxReasonKeywords = 3

// Result is the outcome of classifying one message.
type Result struct {
	Type            model.CommitType `json:"type"`
	Confidence      float64          `json:"confidence"`
	MatchedKeywords []string         `json:"matched_keywords"`
	Reasoning       string           `json:"reasoning"`
}

// Engine scores messages against an ordered rule set. It holds no mutable state.
type Engine struct {
	rules    []Rule
	maxScore int
}

// NewEngine builds an engine over rules. Confidence is normalised by the largest
// rule weight times three, whatever the number of keywords a rule has.
func NewEngine(rules []Rule) *Engine {
	maxScore := 0
	for _, r := range rules {
		maxScore = max(maxScore, r.Weight*3)
	}
	return &Engine{rules: rules, maxScore: maxScore}
}

var defaultEngine = NewEngine(DefaultRules)

// Classify classifies message with the default rule set.
func Classify(message string) Result {
	return defaultEngine.Classify(message)
}

// Classify returns the highest scoring commit type for message.
func (e *Engine) Classify(message string) Result {
	if strings.TrimSpace(message) == "" {
		return Result{
			Type:            model.CommitTypeOther,
			MatchedKeywords: []string{},
			Reasoning:       "Empty commit message",
		}
	}

	lower := strings.ToLower(message)

	bestType := model.CommitTypeOther
	bestScore := 0
	bestKeywords := []string{}

	for _, rule := range e.rules {
		score := 0
		var matched []string
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				score += rule.Weight
				matched = append(matched, keyword)
			}
		}
		// Patterns count toward the score but are not reported as evidence.
		for _, pattern := range rule.Patterns {
			if pattern.MatchString(message) {
				score += rule.Weight
			}
		}

		if score > bestScore {
			bestScore = score
			bestType = rule.Type
			bestKeywords = matched
		}
	}

	confidence := 0.0
	if bestScore > 0 && e.maxScore > 0 {
		confidence = math.Min(float64(bestScore)/float64(e.maxScore), 1)
	}
	if bestKeywords == nil {
		bestKeywords = []string{}
	}

	return Result{
		Type:            bestType,
		Confidence:      confidence,
		MatchedKeywords: bestKeywords,
		Reasoning:       reasoning(bestType, bestKeywords, confidence),
	}
}

func reasoning(t model.CommitType, keywords []string, confidence float64) string {
	if t == model.CommitTypeOther {
		return "No clear category detected"
	}
	if len(keywords) > maxReasonKeywords {
		keywords = keywords[:maxReasonKeywords]
	}
	return fmt.Sprintf("Classified as %s (%.0f%% confidence) based on: %s",
		t, confidence*100, strings.Join(keywords, ", "))
}
