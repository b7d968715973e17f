package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbridge/match-engine/internal/domain"
	"github.com/talentbridge/match-engine/internal/match"
	"github.com/talentbridge/match-engine/internal/usecase"
)

type stubProfiles struct {
	candidates map[string]domain.CandidateRecord
	mentees    map[string]domain.MenteePreferences
	candPool   []domain.CandidateRecord
	jobs       []domain.JobRequirements
	mentors    []domain.MentorRecord
	listErr    error
}

func (s *stubProfiles) GetCandidate(_ domain.Context, id string) (domain.CandidateRecord, error) {
	c, ok := s.candidates[id]
	if !ok {
		return domain.CandidateRecord{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *stubProfiles) ListCandidates(_ domain.Context, _ domain.PoolFilter) ([]domain.CandidateRecord, error) {
	return s.candPool, s.listErr
}

func (s *stubProfiles) GetJobPosting(_ domain.Context, id string) (domain.JobRequirements, error) {
	for _, j := range s.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return domain.JobRequirements{}, domain.ErrNotFound
}

func (s *stubProfiles) ListJobPostings(_ domain.Context, _ domain.PoolFilter) ([]domain.JobRequirements, error) {
	return s.jobs, s.listErr
}

func (s *stubProfiles) GetMenteePreferences(_ domain.Context, id string) (domain.MenteePreferences, error) {
	p, ok := s.mentees[id]
	if !ok {
		return domain.MenteePreferences{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubProfiles) ListMentors(_ domain.Context, _ domain.PoolFilter) ([]domain.MentorRecord, error) {
	return s.mentors, s.listErr
}

type stubMatches struct {
	mu        sync.Mutex
	upserts   []domain.MatchResult
	stored    []domain.MatchResult
	upsertErr error
}

func (s *stubMatches) Upsert(_ domain.Context, m domain.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, m)
	return nil
}

func (s *stubMatches) Get(_ domain.Context, _ domain.MatchDomain, _, _ string) (domain.MatchResult, error) {
	return domain.MatchResult{}, domain.ErrNotFound
}

func (s *stubMatches) ListForSubject(_ domain.Context, _ domain.MatchDomain, _ string) ([]domain.MatchResult, error) {
	return s.stored, nil
}

func (s *stubMatches) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upserts)
}

func newTestService(p *stubProfiles, m *stubMatches) *usecase.MatchService {
	return usecase.NewMatchService(p, m, match.DefaultWeights(), usecase.MatchServiceConfig{
		ScoreWorkers:   4,
		PersistWorkers: 2,
		PersistRetry:   usecase.PersistRetry{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})
}

func validRawProfile() domain.RawProfile {
	return domain.RawProfile{
		Skills:     []domain.RawSkill{{Name: "Go"}},
		Experience: []domain.RawExperience{},
		Education:  []domain.RawEducation{},
	}
}

func TestRankJobsForCandidate(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{jobs: []domain.JobRequirements{
		{ID: "job-rust", Skills: []domain.SkillRequirement{{Name: "Rust", Required: true}}},
		{ID: "job-open"},
	}}
	matches := &stubMatches{}
	svc := newTestService(profiles, matches)

	out, err := svc.RankJobsForCandidate(context.Background(), "c1", validRawProfile(), domain.PoolFilter{}, 0, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// A posting with no requirements scores 100 everywhere; the Rust posting
	// loses the full skills weight: 0.65*100 = 65.
	assert.Equal(t, "job-open", out[0].TargetID)
	assert.Equal(t, 100, out[0].OverallScore)
	assert.Equal(t, "job-rust", out[1].TargetID)
	assert.Equal(t, 65, out[1].OverallScore)

	for _, m := range out {
		assert.Equal(t, domain.MatchDomainJob, m.Domain)
		assert.Equal(t, "c1", m.SubjectID)
		assert.Len(t, m.CategoryScores, 5)
		assert.False(t, m.ComputedAt.IsZero())
	}
	assert.Equal(t, 2, matches.upsertCount())
}

func TestRankJobsForCandidate_ValidationError(t *testing.T) {
	t.Parallel()
	svc := newTestService(&stubProfiles{}, &stubMatches{})

	_, err := svc.RankJobsForCandidate(context.Background(), "c1", domain.RawProfile{}, domain.PoolFilter{}, 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "skills")
}

func TestRankJobsForCandidate_PoolError(t *testing.T) {
	t.Parallel()
	svc := newTestService(&stubProfiles{listErr: errors.New("db down")}, &stubMatches{})

	_, err := svc.RankJobsForCandidate(context.Background(), "c1", validRawProfile(), domain.PoolFilter{}, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=rank.list_jobs")
}

func TestRankJobsForCandidate_PersistFailureStillReturnsRanking(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{jobs: []domain.JobRequirements{{ID: "job-open"}}}
	matches := &stubMatches{upsertErr: errors.New("store unavailable")}
	svc := newTestService(profiles, matches)

	out, err := svc.RankJobsForCandidate(context.Background(), "c1", validRawProfile(), domain.PoolFilter{}, 0, nil)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestRankJobsForCandidate_ThresholdOverride(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{jobs: []domain.JobRequirements{
		{ID: "job-rust", Skills: []domain.SkillRequirement{{Name: "Rust", Required: true}}},
		{ID: "job-open"},
	}}
	svc := newTestService(profiles, &stubMatches{})

	threshold := 70
	out, err := svc.RankJobsForCandidate(context.Background(), "c1", validRawProfile(), domain.PoolFilter{}, 0, &threshold)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "job-open", out[0].TargetID)
}

func TestRankCandidatesForJob(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{candPool: []domain.CandidateRecord{
		{ID: "cand-none"},
		{ID: "cand-go", Skills: []string{"Go"}},
	}}
	matches := &stubMatches{}
	svc := newTestService(profiles, matches)

	raw := domain.RawJobPosting{Requirements: &domain.RawRequirements{
		Skills: []domain.RawSkillRequirement{{Name: "Go", Required: true}},
	}}
	out, err := svc.RankCandidatesForJob(context.Background(), "j1", raw, domain.PoolFilter{}, 0, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "cand-go", out[0].TargetID)
	assert.Equal(t, 100, out[0].OverallScore)
	assert.Equal(t, "cand-none", out[1].TargetID)
	assert.Equal(t, 65, out[1].OverallScore)
	assert.Equal(t, "j1", out[0].SubjectID)
	assert.Equal(t, 2, matches.upsertCount())
}

func TestRankCandidatesForJob_MissingRequirements(t *testing.T) {
	t.Parallel()
	svc := newTestService(&stubProfiles{}, &stubMatches{})

	_, err := svc.RankCandidatesForJob(context.Background(), "j1", domain.RawJobPosting{}, domain.PoolFilter{}, 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRankMentorsForMentee(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{mentors: []domain.MentorRecord{
		{ID: "mt-rust", Expertise: []string{"Rust"}},
		{ID: "mt-go", Expertise: []string{"Go"}, YearsExperience: domain.Some(12.0), Rating: domain.Some(4.8), Verified: true},
	}}
	matches := &stubMatches{}
	svc := newTestService(profiles, matches)

	raw := domain.RawMenteePreferences{Topics: []string{"Go"}}
	out, err := svc.RankMentorsForMentee(context.Background(), "me1", raw, domain.PoolFilter{}, 0, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "mt-go", out[0].TargetID)
	assert.Equal(t, 100, out[0].OverallScore)
	assert.Contains(t, out[0].Reasons, "Verified profile")
	// Expertise miss costs the full 0.40 weight.
	assert.Equal(t, "mt-rust", out[1].TargetID)
	assert.Equal(t, 60, out[1].OverallScore)

	assert.Equal(t, domain.MatchDomainMentor, out[0].Domain)
	assert.Len(t, out[0].CategoryScores, 3)
	assert.Equal(t, 2, matches.upsertCount())
}

func TestRecomputeForSubject_Job(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{
		candidates: map[string]domain.CandidateRecord{"c1": {ID: "c1", Skills: []string{"Go"}}},
		jobs:       []domain.JobRequirements{{ID: "job-open"}},
	}
	matches := &stubMatches{}
	svc := newTestService(profiles, matches)

	n, err := svc.RecomputeForSubject(context.Background(), domain.MatchDomainJob, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, matches.upsertCount())
}

func TestRecomputeForSubject_Mentor(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{
		mentees: map[string]domain.MenteePreferences{"me1": {ID: "me1", Topics: []string{"Go"}}},
		mentors: []domain.MentorRecord{{ID: "mt-go", Expertise: []string{"Go"}}},
	}
	matches := &stubMatches{}
	svc := newTestService(profiles, matches)

	n, err := svc.RecomputeForSubject(context.Background(), domain.MatchDomainMentor, "me1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecomputeForSubject_SubjectNotFound(t *testing.T) {
	t.Parallel()
	svc := newTestService(&stubProfiles{}, &stubMatches{})

	_, err := svc.RecomputeForSubject(context.Background(), domain.MatchDomainJob, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecomputeForSubject_UnknownDomain(t *testing.T) {
	t.Parallel()
	svc := newTestService(&stubProfiles{}, &stubMatches{})

	_, err := svc.RecomputeForSubject(context.Background(), domain.MatchDomain("bogus"), "c1")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRecomputeForSubject_PersistFailureIsReturned(t *testing.T) {
	t.Parallel()
	profiles := &stubProfiles{
		candidates: map[string]domain.CandidateRecord{"c1": {ID: "c1"}},
		jobs:       []domain.JobRequirements{{ID: "job-open"}},
	}
	matches := &stubMatches{upsertErr: errors.New("store unavailable")}
	svc := newTestService(profiles, matches)

	_, err := svc.RecomputeForSubject(context.Background(), domain.MatchDomainJob, "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=match.persist")
}

func TestStoredMatches(t *testing.T) {
	t.Parallel()
	stored := []domain.MatchResult{{Domain: domain.MatchDomainJob, SubjectID: "c1", TargetID: "j1", OverallScore: 88}}
	svc := newTestService(&stubProfiles{}, &stubMatches{stored: stored})

	out, err := svc.StoredMatches(context.Background(), domain.MatchDomainJob, "c1")
	require.NoError(t, err)
	assert.Equal(t, stored, out)
}
