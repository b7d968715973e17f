package match

import (
	"fmt"

	"github.com/talentbridge/match-engine/internal/domain"
)

const remoteFallbackScore = 80

// ScoreLocation compares candidate and posting locations. A substring match
// in either direction scores 100; otherwise a remote or hybrid posting
// scores 80; otherwise 0 with a detail naming both locations.
func ScoreLocation(c domain.CandidateRecord, r domain.JobRequirements) CategoryResult {
	if !r.Location.Set {
		return CategoryResult{Score: 100, Detail: "no location requirement"}
	}
	target := r.Location.Value
	if c.Location.Set && nameMatch(c.Location.Value, target) {
		return CategoryResult{
			Score:   100,
			Matched: []string{target},
			Detail:  fmt.Sprintf("candidate location %q matches %q", c.Location.Value, target),
		}
	}
	if r.WorkMode.Set && (r.WorkMode.Value == domain.WorkModeRemote || r.WorkMode.Value == domain.WorkModeHybrid) {
		return CategoryResult{
			Score:  remoteFallbackScore,
			Detail: fmt.Sprintf("%s work mode compensates for location difference", r.WorkMode.Value),
		}
	}
	candidate := "unspecified"
	if c.Location.Set {
		candidate = c.Location.Value
	}
	return CategoryResult{
		Score:   0,
		Missing: []string{target},
		Detail:  fmt.Sprintf("candidate location %q does not match required %q", candidate, target),
	}
}
