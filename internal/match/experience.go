package match

import (
	"fmt"
	"strings"

	"github.com/talentbridge/match-engine/internal/domain"
)

const (
	requiredCredit  = 70
	preferredCredit = 30
)

// ScoreExperience checks the candidate's total years of experience against
// each experience requirement. Meeting a requirement credits 70 (required)
// or 30 (preferred) additively, capped at 100; an unmet requirement
// contributes nothing and records a failure detail.
func ScoreExperience(c domain.CandidateRecord, r domain.JobRequirements) CategoryResult {
	if len(r.Experience) == 0 {
		return CategoryResult{Score: 100, Detail: "no experience requirements"}
	}
	if !c.ExperienceYears.Set {
		return CategoryResult{Score: 0, Detail: "candidate profile lists no work experience"}
	}
	years := c.ExperienceYears.Value

	score := 0
	var matched, missing []string
	var details []string
	for _, req := range r.Experience {
		label := fmt.Sprintf("%.0f+ years", req.Years)
		if req.Field != "" {
			label += " in " + req.Field
		}
		if years >= req.Years {
			if req.Required {
				score += requiredCredit
			} else {
				score += preferredCredit
			}
			matched = append(matched, label)
			details = append(details, fmt.Sprintf("has %.1f years, meets %s", years, label))
		} else {
			missing = append(missing, label)
			details = append(details, fmt.Sprintf("requires %s, candidate has %.1f years", label, years))
		}
	}
	return CategoryResult{
		Score:   clampScore(score),
		Matched: matched,
		Missing: missing,
		Detail:  strings.Join(details, "; "),
	}
}
