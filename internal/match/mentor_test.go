package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentbridge/match-engine/internal/domain"
	"github.com/talentbridge/match-engine/internal/match"
)

func TestScoreExpertise(t *testing.T) {
	t.Parallel()
	p := domain.MenteePreferences{ID: "m", Topics: []string{"Go", "Distributed Systems"}}
	mentor := domain.MentorRecord{ID: "mt", Expertise: []string{"golang", "databases"}}
	res := match.ScoreExpertise(p, mentor)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, []string{"Go"}, res.Matched)

	assert.Equal(t, 100, match.ScoreExpertise(domain.MenteePreferences{ID: "m"}, mentor).Score)
	assert.Equal(t, 0, match.ScoreExpertise(p, domain.MentorRecord{ID: "mt"}).Score)
}

func TestScoreAvailability_AveragesDayAndHourOverlap(t *testing.T) {
	t.Parallel()
	p := domain.MenteePreferences{ID: "m", Availability: domain.Some(domain.Availability{
		Days:  []string{"monday", "wednesday"},
		Hours: []string{"evening"},
	})}
	mentor := domain.MentorRecord{ID: "mt", Availability: domain.Some(domain.Availability{
		Days:  []string{"wednesday", "friday"},
		Hours: []string{"evening", "morning"},
	})}
	// Days 1/2 = 0.5, hours 1/1 = 1.0, average 0.75.
	res := match.ScoreAvailability(p, mentor)
	assert.Equal(t, 75, res.Score)
}

func TestScoreAvailability_DaysOnly(t *testing.T) {
	t.Parallel()
	p := domain.MenteePreferences{ID: "m", Availability: domain.Some(domain.Availability{
		Days: []string{"monday", "tuesday"},
	})}
	mentor := domain.MentorRecord{ID: "mt", Availability: domain.Some(domain.Availability{
		Days: []string{"tuesday"},
	})}
	res := match.ScoreAvailability(p, mentor)
	assert.Equal(t, 50, res.Score)
}

func TestScoreAvailability_MissingSides(t *testing.T) {
	t.Parallel()
	p := domain.MenteePreferences{ID: "m", Availability: domain.Some(domain.Availability{Days: []string{"monday"}})}
	assert.Equal(t, 100, match.ScoreAvailability(domain.MenteePreferences{ID: "m"}, domain.MentorRecord{ID: "mt"}).Score)
	assert.Equal(t, 0, match.ScoreAvailability(p, domain.MentorRecord{ID: "mt"}).Score)
}

func TestScoreExperienceCompat_Bands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		level domain.ExperienceLevel
		years float64
		want  int
	}{
		{"beginner at ideal", domain.LevelBeginner, 5, 100},
		{"beginner above ideal", domain.LevelBeginner, 20, 100},
		{"beginner at min", domain.LevelBeginner, 2, 20},
		{"beginner below min", domain.LevelBeginner, 1, 20},
		{"beginner midband", domain.LevelBeginner, 3.5, 60},
		{"intermediate midband", domain.LevelIntermediate, 7.5, 60},
		{"advanced at min", domain.LevelAdvanced, 10, 20},
		{"advanced at ideal", domain.LevelAdvanced, 15, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := domain.MenteePreferences{ID: "m", ExperienceLevel: domain.Some(tt.level)}
			mentor := domain.MentorRecord{ID: "mt", YearsExperience: domain.Some(tt.years)}
			assert.Equal(t, tt.want, match.ScoreExperienceCompat(p, mentor).Score)
		})
	}
}

func TestScoreExperienceCompat_MissingInputs(t *testing.T) {
	t.Parallel()
	mentor := domain.MentorRecord{ID: "mt", YearsExperience: domain.Some(8.0)}
	assert.Equal(t, 100, match.ScoreExperienceCompat(domain.MenteePreferences{ID: "m"}, mentor).Score)

	p := domain.MenteePreferences{ID: "m", ExperienceLevel: domain.Some(domain.LevelBeginner)}
	assert.Equal(t, 0, match.ScoreExperienceCompat(p, domain.MentorRecord{ID: "mt"}).Score)
}
