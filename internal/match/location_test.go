package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentbridge/match-engine/internal/domain"
	"github.com/talentbridge/match-engine/internal/match"
)

func TestScoreLocation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		candidate domain.Optional[string]
		required  domain.Optional[string]
		workMode  domain.Optional[domain.WorkMode]
		want      int
	}{
		{"no requirement", domain.Some("Berlin"), domain.None[string](), domain.None[domain.WorkMode](), 100},
		{"substring match", domain.Some("Berlin, Germany"), domain.Some("Berlin"), domain.None[domain.WorkMode](), 100},
		{"reverse substring", domain.Some("Berlin"), domain.Some("Berlin, Germany"), domain.None[domain.WorkMode](), 100},
		{"remote fallback", domain.Some("Lisbon"), domain.Some("Berlin"), domain.Some(domain.WorkModeRemote), 80},
		{"hybrid fallback", domain.Some("Lisbon"), domain.Some("Berlin"), domain.Some(domain.WorkModeHybrid), 80},
		{"onsite mismatch", domain.Some("Lisbon"), domain.Some("Berlin"), domain.Some(domain.WorkModeOnsite), 0},
		{"no candidate location", domain.None[string](), domain.Some("Berlin"), domain.None[domain.WorkMode](), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := domain.CandidateRecord{ID: "c", Location: tt.candidate}
			r := domain.JobRequirements{Location: tt.required, WorkMode: tt.workMode}
			res := match.ScoreLocation(c, r)
			assert.Equal(t, tt.want, res.Score)
			assert.NotEmpty(t, res.Detail)
		})
	}
}
