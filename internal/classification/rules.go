package classification

import (
	"regexp"

	"commit-insights/internal/model"
)

// Rule scores a commit message for one commit type. Each matching keyword and
// each matching pattern adds Weight to the score.
type Rule struct {
	Type     model.CommitType
	Keywords []string
	Patterns []*regexp.Regexp
	Weight   int
}

// DefaultRules is the built-in rule set in evaluation order. Ties between
// equal scores go to the earlier rule. "other" has no rule; it is the fallback.
var DefaultRules = []Rule{
	{
		Type: model.CommitTypeFrontend,
		Keywords: []string{
			"ui", "component", "style", "css", "scss", "tailwind",
			"layout", "page", "view", "button", "form", "modal",
			"responsive", "design", "theme", "animation", "react",
			"vue", "svelte", "jsx", "tsx",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(component|ui|style|css|frontend|client)\b`),
			regexp.MustCompile(`(?i)\.(css|scss|sass|less|jsx|tsx|vue|svelte)$`),
		},
		Weight: 10,
	},
	{
		Type: model.CommitTypeBackend,
		Keywords: []string{
			"api", "server", "backend", "database", "db", "query",
			"route", "controller", "service", "middleware", "auth",
			"endpoint", "model", "schema", "migration", "seed",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(api|server|backend|database|db|route|controller)\b`),
			regexp.MustCompile(`(?i)/(api|server|routes|controllers|services|middleware)/`),
		},
		Weight: 9,
	},
	{
		Type: model.CommitTypeTest,
		Keywords: []string{
			"test", "testing", "spec", "jest", "vitest", "cypress",
			"playwright", "e2e", "unit", "integration", "fixture",
			"mock", "stub",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(test|spec|testing|jest|vitest|cypress|playwright)\b`),
			regexp.MustCompile(`(?i)\.(test|spec)\.(js|ts|jsx|tsx)$`),
			regexp.MustCompile(`(?i)/(test|tests|spec|__tests__|cypress|playwright)/`),
		},
		Weight: 8,
	},
	{
		Type: model.CommitTypeDocs,
		Keywords: []string{
			"doc", "documentation", "readme", "guide", "tutorial",
			"comment", "jsdoc", "markdown", "wiki",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(doc|documentation|readme|guide|tutorial)\b`),
			regexp.MustCompile(`(?i)\.(md|mdx|txt|rst)$`),
			regexp.MustCompile(`(?i)/(docs|documentation|wiki|guides)/`),
		},
		Weight: 7,
	},
	{
		Type: model.CommitTypeConfig,
		Keywords: []string{
			"config", "configuration", "setup", "env", "docker",
			"ci", "cd", "github action", "workflow", "deploy",
			"build", "package", "dependencies", "tsconfig", "eslint",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(config|configuration|setup|env|docker|ci|cd)\b`),
			regexp.MustCompile(`(?i)\.(json|yaml|yml|toml|ini|env|config\.(js|ts))$`),
			regexp.MustCompile(`(?i)/(config|\.github|scripts|tools)/`),
			regexp.MustCompile(`(?i)^(package\.json|package-lock\.json|yarn\.lock|pnpm-lock\.yaml)$`),
		},
		Weight: 6,
	},
}
