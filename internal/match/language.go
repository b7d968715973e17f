package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/talentbridge/match-engine/internal/domain"
)

// ScoreLanguages scores the fraction of required languages the candidate
// speaks, scaled to 0-100.
func ScoreLanguages(c domain.CandidateRecord, r domain.JobRequirements) CategoryResult {
	if len(r.Languages) == 0 {
		return CategoryResult{Score: 100, Detail: "no language requirements"}
	}
	if len(c.Languages) == 0 {
		return CategoryResult{
			Score:   0,
			Missing: append([]string{}, r.Languages...),
			Detail:  "candidate profile lists no languages",
		}
	}
	var matched, missing []string
	for _, want := range r.Languages {
		if anyMatch(c.Languages, want) {
			matched = append(matched, want)
		} else {
			missing = append(missing, want)
		}
	}
	score := int(math.Round(100 * float64(len(matched)) / float64(len(r.Languages))))
	detail := fmt.Sprintf("speaks %d of %d required languages", len(matched), len(r.Languages))
	if len(matched) > 0 {
		detail += ": " + strings.Join(matched, ", ")
	}
	if len(missing) > 0 {
		detail += "; missing: " + strings.Join(missing, ", ")
	}
	return CategoryResult{Score: clampScore(score), Matched: matched, Missing: missing, Detail: detail}
}
