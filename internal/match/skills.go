package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/talentbridge/match-engine/internal/domain"
)

const (
	requiredSkillWeight  = 0.7
	preferredSkillWeight = 0.3
)

// ScoreSkills compares candidate skills against a posting's skill
// requirements. Required and preferred skills are scored separately as
// matched fractions and blended 70/30. A posting without skill requirements
// is a vacuous match.
func ScoreSkills(c domain.CandidateRecord, r domain.JobRequirements) CategoryResult {
	var required, preferred []string
	for _, s := range r.Skills {
		if s.Required {
			required = append(required, s.Name)
		} else {
			preferred = append(preferred, s.Name)
		}
	}
	if len(required) == 0 && len(preferred) == 0 {
		if len(c.Skills) == 0 {
			return CategoryResult{Score: 100, Detail: "no skills listed on either side"}
		}
		return CategoryResult{Score: 100, Detail: "no skill requirements"}
	}
	if len(c.Skills) == 0 {
		return CategoryResult{
			Score:   0,
			Missing: append(append([]string{}, required...), preferred...),
			Detail:  "candidate profile lists no skills",
		}
	}

	var matched, missing []string
	matchGroup := func(group []string) float64 {
		if len(group) == 0 {
			return 100
		}
		hits := 0
		for _, want := range group {
			if anyMatch(c.Skills, want) {
				matched = append(matched, want)
				hits++
			} else {
				missing = append(missing, want)
			}
		}
		return 100 * float64(hits) / float64(len(group))
	}
	requiredScore := matchGroup(required)
	preferredScore := matchGroup(preferred)

	score := int(math.Round(requiredSkillWeight*requiredScore + preferredSkillWeight*preferredScore))
	detail := fmt.Sprintf("matched %d of %d required and %d of %d preferred skills",
		countIn(matched, required), len(required), countIn(matched, preferred), len(preferred))
	if len(missing) > 0 {
		detail += "; missing: " + strings.Join(missing, ", ")
	}
	return CategoryResult{Score: clampScore(score), Matched: matched, Missing: missing, Detail: detail}
}

func countIn(have, group []string) int {
	n := 0
	for _, h := range have {
		for _, g := range group {
			if h == g {
				n++
				break
			}
		}
	}
	return n
}
