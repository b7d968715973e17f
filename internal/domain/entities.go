package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrInternal        = errors.New("internal error")
)

// MatchDomain identifies which matching configuration applies to a pair.
type MatchDomain string

const (
	MatchDomainJob    MatchDomain = "job"
	MatchDomainMentor MatchDomain = "mentor"
)

// Category names one evaluation dimension scored by the engine.
type Category string

const (
	CategorySkills           Category = "skills"
	CategoryExperience       Category = "experience"
	CategoryEducation        Category = "education"
	CategoryLocation         Category = "location"
	CategoryLanguages        Category = "languages"
	CategoryExpertise        Category = "expertise"
	CategoryAvailability     Category = "availability"
	CategoryExperienceCompat Category = "experience_compat"
)

// MatchResult is one scored subject-target pair.
// Invariant: OverallScore = round(sum of weight_c * CategoryScores[c]) for the
// domain's weight vector, and all scores are within [0,100].
type MatchResult struct {
	Domain         MatchDomain
	SubjectID      string
	TargetID       string
	OverallScore   int
	CategoryScores map[Category]int
	MatchDetails   map[Category]string
	Reasons        []string
	ComputedAt     time.Time
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// ReEvaluationTask is a durable recompute obligation for one subject.
// Invariant: at most one task per (domain, subject) is pending or processing.
type ReEvaluationTask struct {
	ID           string
	Domain       MatchDomain
	SubjectID    string
	TriggerType  string
	Status       TaskStatus
	ScheduledFor time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReEvaluationCompleted is emitted after a task finishes so a notification
// layer can pick it up. The engine publishes but never delivers it.
type ReEvaluationCompleted struct {
	TaskID      string      `json:"task_id"`
	Domain      MatchDomain `json:"domain"`
	SubjectID   string      `json:"subject_id"`
	TriggerType string      `json:"trigger_type"`
	Matches     int         `json:"matches"`
	CompletedAt time.Time   `json:"completed_at"`
}

// PoolFilter narrows the target pool fetched from the repository.
type PoolFilter struct {
	Location string
	Limit    int
}

// Repositories (ports)

type ProfileRepository interface {
	GetCandidate(ctx Context, id string) (CandidateRecord, error)
	ListCandidates(ctx Context, f PoolFilter) ([]CandidateRecord, error)
	GetJobPosting(ctx Context, id string) (JobRequirements, error)
	ListJobPostings(ctx Context, f PoolFilter) ([]JobRequirements, error)
	GetMenteePreferences(ctx Context, id string) (MenteePreferences, error)
	ListMentors(ctx Context, f PoolFilter) ([]MentorRecord, error)
}

type MatchRepository interface {
	Upsert(ctx Context, m MatchResult) error
	Get(ctx Context, dom MatchDomain, subjectID, targetID string) (MatchResult, error)
	ListForSubject(ctx Context, dom MatchDomain, subjectID string) ([]MatchResult, error)
}

type TaskRepository interface {
	// Schedule inserts a pending task unless one is already pending or
	// processing for the same (domain, subject). The insert and the dedupe
	// check are a single atomic statement. Returns the id of the active task
	// and whether a new row was inserted.
	Schedule(ctx Context, t ReEvaluationTask) (string, bool, error)
	// ClaimDue atomically transitions up to limit due pending tasks to
	// processing and returns them. Concurrent workers never claim the same
	// task twice.
	ClaimDue(ctx Context, limit int, now time.Time) ([]ReEvaluationTask, error)
	MarkCompleted(ctx Context, id string) error
	MarkFailed(ctx Context, id, errMsg string) error
	// SweepStuck fails processing tasks that have not progressed within
	// olderThan, returning how many were failed.
	SweepStuck(ctx Context, olderThan time.Duration) (int64, error)
}

// EventPublisher (port)

type EventPublisher interface {
	PublishReEvaluationCompleted(ctx Context, ev ReEvaluationCompleted) error
}

// RecomputeLimiter (port)
// Allow reports whether a recompute for key may run now; when denied it
// returns how long the caller should wait. Backed by a shared store so the
// cooldown holds across instances and restarts.
type RecomputeLimiter interface {
	Allow(ctx Context, key string) (bool, time.Duration, error)
}

// Context is an alias so ports read cleanly; adapters pass context.Context.
type Context = context.Context
