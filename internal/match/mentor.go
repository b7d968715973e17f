package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/talentbridge/match-engine/internal/domain"
)

// ScoreExpertise scores the overlap between a mentee's requested topics and
// a mentor's expertise as a matched fraction scaled to 0-100.
func ScoreExpertise(p domain.MenteePreferences, m domain.MentorRecord) CategoryResult {
	if len(p.Topics) == 0 {
		return CategoryResult{Score: 100, Detail: "no topics requested"}
	}
	if len(m.Expertise) == 0 {
		return CategoryResult{
			Score:   0,
			Missing: append([]string{}, p.Topics...),
			Detail:  "mentor profile lists no expertise",
		}
	}
	var matched, missing []string
	for _, want := range p.Topics {
		if anyMatch(m.Expertise, want) {
			matched = append(matched, want)
		} else {
			missing = append(missing, want)
		}
	}
	score := int(math.Round(100 * float64(len(matched)) / float64(len(p.Topics))))
	detail := fmt.Sprintf("covers %d of %d requested topics", len(matched), len(p.Topics))
	if len(matched) > 0 {
		detail += ": " + strings.Join(matched, ", ")
	}
	return CategoryResult{Score: clampScore(score), Matched: matched, Missing: missing, Detail: detail}
}

// ScoreAvailability averages the day-overlap and hour-overlap fractions
// between mentee and mentor availability, each computed relative to what the
// mentee asked for.
func ScoreAvailability(p domain.MenteePreferences, m domain.MentorRecord) CategoryResult {
	if !p.Availability.Set {
		return CategoryResult{Score: 100, Detail: "no availability preference"}
	}
	if !m.Availability.Set {
		return CategoryResult{Score: 0, Detail: "mentor has no stated availability"}
	}
	want, have := p.Availability.Value, m.Availability.Value

	var fractions []float64
	var parts []string
	if len(want.Days) > 0 {
		overlap := overlapCount(want.Days, have.Days)
		fractions = append(fractions, float64(overlap)/float64(len(want.Days)))
		parts = append(parts, fmt.Sprintf("%d of %d preferred days", overlap, len(want.Days)))
	}
	if len(want.Hours) > 0 {
		overlap := overlapCount(want.Hours, have.Hours)
		fractions = append(fractions, float64(overlap)/float64(len(want.Hours)))
		parts = append(parts, fmt.Sprintf("%d of %d preferred hour slots", overlap, len(want.Hours)))
	}
	sum := 0.0
	for _, f := range fractions {
		sum += f
	}
	score := int(math.Round(100 * sum / float64(len(fractions))))
	return CategoryResult{Score: clampScore(score), Detail: "overlaps " + strings.Join(parts, " and ")}
}

func overlapCount(want, have []string) int {
	n := 0
	for _, w := range want {
		for _, h := range have {
			if w == h {
				n++
				break
			}
		}
	}
	return n
}

// experienceBand is the {min, ideal} mentor-years band for a mentee level.
type experienceBand struct {
	min, ideal float64
}

var experienceBands = map[domain.ExperienceLevel]experienceBand{
	domain.LevelBeginner:     {min: 2, ideal: 5},
	domain.LevelIntermediate: {min: 5, ideal: 10},
	domain.LevelAdvanced:     {min: 10, ideal: 15},
}

const experienceCompatFloor = 0.2

// ScoreExperienceCompat maps the mentee's level to a mentor-years band and
// linearly interpolates a 0.2-1.0 fraction between min and ideal, clamped to
// the floor below min and to 1.0 above ideal.
func ScoreExperienceCompat(p domain.MenteePreferences, m domain.MentorRecord) CategoryResult {
	if !p.ExperienceLevel.Set {
		return CategoryResult{Score: 100, Detail: "no experience level stated"}
	}
	if !m.YearsExperience.Set {
		return CategoryResult{Score: 0, Detail: "mentor has no stated years of experience"}
	}
	band := experienceBands[p.ExperienceLevel.Value]
	years := m.YearsExperience.Value

	frac := experienceCompatFloor
	switch {
	case years >= band.ideal:
		frac = 1.0
	case years >= band.min:
		frac = experienceCompatFloor + (1-experienceCompatFloor)*(years-band.min)/(band.ideal-band.min)
	}
	detail := fmt.Sprintf("%.0f years experience against a %.0f-%.0f year band for %s mentees",
		years, band.min, band.ideal, p.ExperienceLevel.Value)
	return CategoryResult{Score: clampScore(int(math.Round(100 * frac))), Detail: detail}
}
