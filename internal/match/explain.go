package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/talentbridge/match-engine/internal/domain"
)

// Explanation rules are deterministic: each rule fires independently on the
// category sub-scores and the reasons are concatenated in a fixed order, so
// the same inputs always produce the same list.

// JobReasons derives human-readable reasons for a job match.
func JobReasons(cats map[domain.Category]CategoryResult) []string {
	var reasons []string
	if sk := cats[domain.CategorySkills]; sk.Score >= 70 && len(sk.Matched) > 0 {
		reasons = append(reasons, "Strong skill match: "+strings.Join(topTwo(sk.Matched), ", "))
	}
	if cats[domain.CategoryExperience].Score >= 70 {
		reasons = append(reasons, "Meets the experience requirements")
	}
	if cats[domain.CategoryEducation].Score >= 70 {
		reasons = append(reasons, "Education requirements satisfied")
	}
	if loc := cats[domain.CategoryLocation]; loc.Score == 100 {
		reasons = append(reasons, "Located in the right place")
	} else if loc.Score >= remoteFallbackScore {
		reasons = append(reasons, "Workable remotely despite location difference")
	}
	if lang := cats[domain.CategoryLanguages]; lang.Score == 100 && len(lang.Matched) > 0 {
		reasons = append(reasons, "Speaks all required languages")
	}
	return reasons
}

// MentorReasons derives human-readable reasons for a mentor match.
func MentorReasons(cats map[domain.Category]CategoryResult, m domain.MentorRecord) []string {
	var reasons []string
	if ex := cats[domain.CategoryExpertise]; float64(ex.Score)/100 > 0.7 && len(ex.Matched) > 0 {
		reasons = append(reasons, "Strong expertise match in "+strings.Join(topTwo(ex.Matched), ", "))
	}
	if float64(cats[domain.CategoryAvailability].Score)/100 > 0.6 {
		reasons = append(reasons, "Compatible schedules for regular meetings")
	}
	if float64(cats[domain.CategoryExperienceCompat].Score)/100 > 0.8 && m.YearsExperience.Set {
		reasons = append(reasons, fmt.Sprintf("%d+ years experience ideal for your level", int(math.Floor(m.YearsExperience.Value))))
	}
	if m.Rating.Set && m.Rating.Value > 4.5 {
		reasons = append(reasons, fmt.Sprintf("Highly rated (%.1f/5.0)", m.Rating.Value))
	}
	if m.Verified {
		reasons = append(reasons, "Verified profile")
	}
	return reasons
}

func topTwo(items []string) []string {
	if len(items) > 2 {
		return items[:2]
	}
	return items
}
