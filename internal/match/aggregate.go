package match

import (
	"math"

	"github.com/talentbridge/match-engine/internal/domain"
)

// Aggregate combines category scores into a single 0-100 compatibility score
// using the given weight vector: round(sum of weight_c * score_c).
// Categories absent from the score map contribute zero.
func Aggregate(cats map[domain.Category]CategoryResult, w WeightVector) int {
	total := 0.0
	for c, weight := range w {
		total += weight * float64(cats[c].Score)
	}
	return clampScore(int(math.Round(total)))
}

// ScoreJobPair runs every job-domain category scorer for one pair.
func ScoreJobPair(c domain.CandidateRecord, r domain.JobRequirements) map[domain.Category]CategoryResult {
	return map[domain.Category]CategoryResult{
		domain.CategorySkills:     ScoreSkills(c, r),
		domain.CategoryExperience: ScoreExperience(c, r),
		domain.CategoryEducation:  ScoreEducation(c, r),
		domain.CategoryLocation:   ScoreLocation(c, r),
		domain.CategoryLanguages:  ScoreLanguages(c, r),
	}
}

// ScoreMentorPair runs every mentor-domain category scorer for one pair.
func ScoreMentorPair(p domain.MenteePreferences, m domain.MentorRecord) map[domain.Category]CategoryResult {
	return map[domain.Category]CategoryResult{
		domain.CategoryExpertise:        ScoreExpertise(p, m),
		domain.CategoryAvailability:     ScoreAvailability(p, m),
		domain.CategoryExperienceCompat: ScoreExperienceCompat(p, m),
	}
}
