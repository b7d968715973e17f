package match

import (
	"fmt"
	"strings"

	"github.com/talentbridge/match-engine/internal/domain"
)

const (
	requiredFieldBonus  = 30
	preferredFieldBonus = 10
)

var levelNames = map[domain.EducationLevel]string{
	domain.EducationHighSchool: "high school",
	domain.EducationAssociate:  "associate",
	domain.EducationBachelor:   "bachelor",
	domain.EducationMaster:     "master",
	domain.EducationDoctorate:  "doctorate",
}

// ScoreEducation compares the candidate's highest attained degree against
// each education requirement. Meeting the level credits 70/30; a field match
// (case-insensitive substring either direction) adds a 30/10 bonus. Capped
// at 100.
func ScoreEducation(c domain.CandidateRecord, r domain.JobRequirements) CategoryResult {
	if len(r.Education) == 0 {
		return CategoryResult{Score: 100, Detail: "no education requirements"}
	}
	if !c.Education.Set {
		return CategoryResult{Score: 0, Detail: "candidate profile lists no recognized education"}
	}
	edu := c.Education.Value

	score := 0
	var matched, missing []string
	var details []string
	for _, req := range r.Education {
		label := levelNames[req.Level]
		if req.Field != "" {
			label += " in " + req.Field
		}
		if edu.Level >= req.Level {
			if req.Required {
				score += requiredCredit
			} else {
				score += preferredCredit
			}
			if req.Field != "" && nameMatch(edu.Field, req.Field) {
				if req.Required {
					score += requiredFieldBonus
				} else {
					score += preferredFieldBonus
				}
				details = append(details, fmt.Sprintf("%s degree in %s satisfies %s", levelNames[edu.Level], edu.Field, label))
			} else {
				details = append(details, fmt.Sprintf("%s degree satisfies %s level", levelNames[edu.Level], label))
			}
			matched = append(matched, label)
		} else {
			missing = append(missing, label)
			details = append(details, fmt.Sprintf("requires %s, candidate holds %s", label, levelNames[edu.Level]))
		}
	}
	return CategoryResult{
		Score:   clampScore(score),
		Matched: matched,
		Missing: missing,
		Detail:  strings.Join(details, "; "),
	}
}
