package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Raw transport shapes. These mirror what the surrounding portal sends and
// stores: every field may be absent or half-filled. Normalization converts
// them exactly once into typed records so the scorers never re-derive
// presence checks inline.

type RawSkill struct {
	Name string `json:"name" validate:"required"`
}

type RawExperience struct {
	Years     *float64 `json:"years,omitempty"`
	Duration  string   `json:"duration,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

type RawEducation struct {
	Degree string `json:"degree"`
	Field  string `json:"field"`
}

type RawLanguage struct {
	Language    string `json:"language" validate:"required"`
	Proficiency string `json:"proficiency,omitempty"`
}

// RawProfile is a candidate profile as supplied by the caller.
type RawProfile struct {
	Skills     []RawSkill      `json:"skills" validate:"required"`
	Experience []RawExperience `json:"experience" validate:"required"`
	Education  []RawEducation  `json:"education" validate:"required"`
	Languages  []RawLanguage   `json:"languages,omitempty"`
	Location   string          `json:"location,omitempty"`
}

type RawSkillRequirement struct {
	Name     string `json:"name" validate:"required"`
	Required bool   `json:"required"`
}

type RawExperienceRequirement struct {
	Years    float64 `json:"years" validate:"gte=0"`
	Field    string  `json:"field,omitempty"`
	Required bool    `json:"required"`
}

type RawEducationRequirement struct {
	Level    string `json:"level" validate:"required"`
	Field    string `json:"field,omitempty"`
	Required bool   `json:"required"`
}

type RawLanguageRequirement struct {
	Language string `json:"language" validate:"required"`
}

type RawRequirements struct {
	Skills     []RawSkillRequirement      `json:"skills"`
	Experience []RawExperienceRequirement `json:"experience"`
	Education  []RawEducationRequirement  `json:"education"`
	Languages  []RawLanguageRequirement   `json:"languages"`
}

// RawJobPosting is a job posting as supplied by the caller.
type RawJobPosting struct {
	Requirements *RawRequirements `json:"requirements" validate:"required"`
	Location     string           `json:"location,omitempty"`
	WorkMode     string           `json:"work_mode,omitempty"`
}

type RawAvailability struct {
	Days     []string `json:"days"`
	Hours    []string `json:"hours"`
	Timezone string   `json:"timezone,omitempty"`
}

// RawMenteePreferences is a mentee's stated preferences.
type RawMenteePreferences struct {
	Topics          []string         `json:"topics" validate:"required"`
	Availability    *RawAvailability `json:"availability,omitempty"`
	ExperienceLevel string           `json:"experience_level,omitempty"`
}

// RawMentorProfile is a mentor profile as stored by the portal.
type RawMentorProfile struct {
	Expertise       []string         `json:"expertise" validate:"required"`
	Availability    *RawAvailability `json:"availability,omitempty"`
	YearsExperience *float64         `json:"years_experience,omitempty"`
	Rating          *float64         `json:"rating,omitempty"`
	Verified        bool             `json:"verified"`
}

// Optional marks a normalized field as provided or missing. Scorers treat a
// missing field as a degraded input (score 0 + detail), never as an error.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Set: true} }

func None[T any]() Optional[T] { return Optional[T]{} }

// EducationLevel is the ordinal degree ladder used by the education scorer.
type EducationLevel int

const (
	EducationUnknown    EducationLevel = 0
	EducationHighSchool EducationLevel = 1
	EducationAssociate  EducationLevel = 2
	EducationBachelor   EducationLevel = 3
	EducationMaster     EducationLevel = 4
	EducationDoctorate  EducationLevel = 5
)

type EducationRecord struct {
	Level EducationLevel
	Field string
}

type WorkMode string

const (
	WorkModeOnsite WorkMode = "onsite"
	WorkModeRemote WorkMode = "remote"
	WorkModeHybrid WorkMode = "hybrid"
)

// CandidateRecord is the normalized form of a candidate profile.
type CandidateRecord struct {
	ID              string
	Skills          []string
	ExperienceYears Optional[float64]
	Education       Optional[EducationRecord]
	Languages       []string
	Location        Optional[string]
}

type SkillRequirement struct {
	Name     string
	Required bool
}

type ExperienceRequirement struct {
	Years    float64
	Field    string
	Required bool
}

type EducationRequirement struct {
	Level    EducationLevel
	Field    string
	Required bool
}

// JobRequirements is the normalized form of a job posting's requirement set.
type JobRequirements struct {
	ID         string
	Skills     []SkillRequirement
	Experience []ExperienceRequirement
	Education  []EducationRequirement
	Languages  []string
	Location   Optional[string]
	WorkMode   Optional[WorkMode]
}

type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
)

type Availability struct {
	Days     []string
	Hours    []string
	Timezone string
}

// MenteePreferences is the normalized form of a mentee's stated preferences.
type MenteePreferences struct {
	ID              string
	Topics          []string
	Availability    Optional[Availability]
	ExperienceLevel Optional[ExperienceLevel]
}

// MentorRecord is the normalized form of a mentor profile.
type MentorRecord struct {
	ID              string
	Expertise       []string
	Availability    Optional[Availability]
	YearsExperience Optional[float64]
	Rating          Optional[float64]
	Verified        bool
}

var durationYearsRe = regexp.MustCompile(`(\d+)\s*year`)

// NormalizeProfile converts a raw candidate profile into a CandidateRecord.
// now anchors open-ended ("present") experience entries.
func NormalizeProfile(id string, raw RawProfile, now time.Time) CandidateRecord {
	rec := CandidateRecord{ID: id}
	for _, s := range raw.Skills {
		if n := strings.TrimSpace(s.Name); n != "" {
			rec.Skills = append(rec.Skills, n)
		}
	}
	if len(raw.Experience) > 0 {
		total := 0.0
		for _, e := range raw.Experience {
			total += experienceEntryYears(e, now)
		}
		rec.ExperienceYears = Some(total)
	}
	if edu, ok := highestEducation(raw.Education); ok {
		rec.Education = Some(edu)
	}
	for _, l := range raw.Languages {
		if n := strings.TrimSpace(l.Language); n != "" {
			rec.Languages = append(rec.Languages, n)
		}
	}
	if loc := strings.TrimSpace(raw.Location); loc != "" {
		rec.Location = Some(loc)
	}
	return rec
}

// experienceEntryYears derives years from one entry: an explicit field wins,
// then a duration string ("5 years"), then the start/end date span.
func experienceEntryYears(e RawExperience, now time.Time) float64 {
	if e.Years != nil {
		return *e.Years
	}
	if m := durationYearsRe.FindStringSubmatch(strings.ToLower(e.Duration)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return float64(n)
		}
	}
	start, ok := parseDate(e.StartDate, now)
	if !ok {
		return 0
	}
	end := now
	if s := strings.ToLower(strings.TrimSpace(e.EndDate)); s != "" && s != "present" {
		if t, ok := parseDate(e.EndDate, now); ok {
			end = t
		}
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours() / (24 * 365.25)
}

func parseDate(s string, _ time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// degreeKeywords maps degree-text fragments to ordinal levels. Checked from
// highest to lowest so "PhD in Engineering (BSc Cambridge)" resolves to 5.
var degreeKeywords = []struct {
	level    EducationLevel
	keywords []string
}{
	{EducationDoctorate, []string{"phd", "ph.d", "doctor"}},
	{EducationMaster, []string{"master", "mba", "msc", "m.sc", "m.s."}},
	{EducationBachelor, []string{"bachelor", "bsc", "b.sc", "b.s.", "ba ", "b.a."}},
	{EducationAssociate, []string{"associate", "diploma"}},
	{EducationHighSchool, []string{"high school", "highschool", "secondary", "ged"}},
}

// ParseDegreeLevel maps free degree text to an ordinal level.
func ParseDegreeLevel(degree string) EducationLevel {
	d := strings.ToLower(degree)
	for _, entry := range degreeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(d, kw) {
				return entry.level
			}
		}
	}
	return EducationUnknown
}

func highestEducation(entries []RawEducation) (EducationRecord, bool) {
	best := EducationRecord{}
	found := false
	for _, e := range entries {
		lvl := ParseDegreeLevel(e.Degree)
		if lvl == EducationUnknown {
			continue
		}
		if !found || lvl > best.Level {
			best = EducationRecord{Level: lvl, Field: strings.TrimSpace(e.Field)}
			found = true
		}
	}
	return best, found
}

// ParseRequirementLevel maps a requirement level name ("bachelor",
// "high_school", ...) to an ordinal, falling back to the degree keyword table.
func ParseRequirementLevel(level string) EducationLevel {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(level), "_", " ")) {
	case "high school", "highschool":
		return EducationHighSchool
	case "associate":
		return EducationAssociate
	case "bachelor", "bachelors":
		return EducationBachelor
	case "master", "masters":
		return EducationMaster
	case "doctorate", "phd":
		return EducationDoctorate
	}
	return ParseDegreeLevel(level)
}

// NormalizeJobPosting converts a raw posting into a JobRequirements record.
func NormalizeJobPosting(id string, raw RawJobPosting) JobRequirements {
	rec := JobRequirements{ID: id}
	if raw.Requirements != nil {
		for _, s := range raw.Requirements.Skills {
			if n := strings.TrimSpace(s.Name); n != "" {
				rec.Skills = append(rec.Skills, SkillRequirement{Name: n, Required: s.Required})
			}
		}
		for _, e := range raw.Requirements.Experience {
			rec.Experience = append(rec.Experience, ExperienceRequirement{
				Years: e.Years, Field: strings.TrimSpace(e.Field), Required: e.Required,
			})
		}
		for _, e := range raw.Requirements.Education {
			rec.Education = append(rec.Education, EducationRequirement{
				Level: ParseRequirementLevel(e.Level), Field: strings.TrimSpace(e.Field), Required: e.Required,
			})
		}
		for _, l := range raw.Requirements.Languages {
			if n := strings.TrimSpace(l.Language); n != "" {
				rec.Languages = append(rec.Languages, n)
			}
		}
	}
	if loc := strings.TrimSpace(raw.Location); loc != "" {
		rec.Location = Some(loc)
	}
	switch strings.ToLower(strings.TrimSpace(raw.WorkMode)) {
	case "remote":
		rec.WorkMode = Some(WorkModeRemote)
	case "hybrid":
		rec.WorkMode = Some(WorkModeHybrid)
	case "onsite", "on-site", "office":
		rec.WorkMode = Some(WorkModeOnsite)
	}
	return rec
}

// NormalizeMenteePreferences converts raw mentee preferences.
func NormalizeMenteePreferences(id string, raw RawMenteePreferences) MenteePreferences {
	rec := MenteePreferences{ID: id}
	for _, t := range raw.Topics {
		if n := strings.TrimSpace(t); n != "" {
			rec.Topics = append(rec.Topics, n)
		}
	}
	if av, ok := normalizeAvailability(raw.Availability); ok {
		rec.Availability = Some(av)
	}
	switch strings.ToLower(strings.TrimSpace(raw.ExperienceLevel)) {
	case string(LevelBeginner):
		rec.ExperienceLevel = Some(LevelBeginner)
	case string(LevelIntermediate):
		rec.ExperienceLevel = Some(LevelIntermediate)
	case string(LevelAdvanced):
		rec.ExperienceLevel = Some(LevelAdvanced)
	}
	return rec
}

// NormalizeMentorProfile converts a raw mentor profile.
func NormalizeMentorProfile(id string, raw RawMentorProfile) MentorRecord {
	rec := MentorRecord{ID: id, Verified: raw.Verified}
	for _, t := range raw.Expertise {
		if n := strings.TrimSpace(t); n != "" {
			rec.Expertise = append(rec.Expertise, n)
		}
	}
	if av, ok := normalizeAvailability(raw.Availability); ok {
		rec.Availability = Some(av)
	}
	if raw.YearsExperience != nil {
		rec.YearsExperience = Some(*raw.YearsExperience)
	}
	if raw.Rating != nil {
		rec.Rating = Some(*raw.Rating)
	}
	return rec
}

func normalizeAvailability(raw *RawAvailability) (Availability, bool) {
	if raw == nil {
		return Availability{}, false
	}
	av := Availability{Timezone: strings.TrimSpace(raw.Timezone)}
	for _, d := range raw.Days {
		if n := strings.ToLower(strings.TrimSpace(d)); n != "" {
			av.Days = append(av.Days, n)
		}
	}
	for _, h := range raw.Hours {
		if n := strings.ToLower(strings.TrimSpace(h)); n != "" {
			av.Hours = append(av.Hours, n)
		}
	}
	if len(av.Days) == 0 && len(av.Hours) == 0 {
		return Availability{}, false
	}
	return av, true
}
