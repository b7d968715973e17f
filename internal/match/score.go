// Package match implements the compatibility scoring engine: per-category
// scorers, weighted aggregation, deterministic ranking, and explanation
// generation. Everything here is pure and safe to run in parallel.
package match

import "strings"

// CategoryResult is the outcome of scoring one evaluation dimension.
// Score is always within [0,100]. Missing or absent input yields score 0
// and an explanatory Detail, never an error.
type CategoryResult struct {
	Score   int
	Matched []string
	Missing []string
	Detail  string
}

// nameMatch reports whether two names refer to the same thing using a
// case-insensitive substring check in either direction, so "React" matches
// "React.js" and "postgres" matches "PostgreSQL".
func nameMatch(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// anyMatch reports whether any of names matches want.
func anyMatch(names []string, want string) bool {
	for _, n := range names {
		if nameMatch(n, want) {
			return true
		}
	}
	return false
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
