// Package usecase contains application business logic services.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/talentbridge/match-engine/internal/domain"
	"github.com/talentbridge/match-engine/internal/match"
)

// PersistRetry bounds the retry-with-backoff policy for match store writes.
type PersistRetry struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// MatchServiceConfig carries the tunables the service is constructed with.
type MatchServiceConfig struct {
	ScoreWorkers   int
	PersistWorkers int
	PersistRetry   PersistRetry
}

// MatchService orchestrates ranking: it validates and normalizes the subject,
// scores the pool, annotates results with reasons, and persists them.
type MatchService struct {
	Profiles domain.ProfileRepository
	Matches  domain.MatchRepository
	Weights  match.Weights

	cfg      MatchServiceConfig
	validate *validator.Validate
}

// NewMatchService constructs a MatchService with its dependencies. The weight
// vectors must already be validated (config does this at startup).
func NewMatchService(p domain.ProfileRepository, m domain.MatchRepository, w match.Weights, cfg MatchServiceConfig) *MatchService {
	if cfg.ScoreWorkers <= 0 {
		cfg.ScoreWorkers = 8
	}
	if cfg.PersistWorkers <= 0 {
		cfg.PersistWorkers = 4
	}
	if cfg.PersistRetry.MaxAttempts == 0 {
		cfg.PersistRetry = PersistRetry{MaxAttempts: 3, InitialInterval: 100 * time.Millisecond, MaxInterval: 2 * time.Second}
	}
	return &MatchService{
		Profiles: p,
		Matches:  m,
		Weights:  w,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RankJobsForCandidate ranks job postings for one candidate profile.
// Persistence failures are logged but never invalidate the computed ranking.
func (s *MatchService) RankJobsForCandidate(ctx domain.Context, candidateID string, raw domain.RawProfile, f domain.PoolFilter, limit int, threshold *int) ([]domain.MatchResult, error) {
	if err := s.validate.Struct(raw); err != nil {
		return nil, invalidInput(err)
	}
	cand := domain.NormalizeProfile(candidateID, raw, time.Now().UTC())
	pool, err := s.Profiles.ListJobPostings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("op=rank.list_jobs: %w", err)
	}
	results, err := s.rankJobs(ctx, cand, pool, limit, threshold)
	if err != nil {
		return nil, err
	}
	s.persistLenient(ctx, results)
	return results, nil
}

// RankCandidatesForJob ranks candidate profiles for one job posting.
func (s *MatchService) RankCandidatesForJob(ctx domain.Context, jobID string, raw domain.RawJobPosting, f domain.PoolFilter, limit int, threshold *int) ([]domain.MatchResult, error) {
	if err := s.validate.Struct(raw); err != nil {
		return nil, invalidInput(err)
	}
	job := domain.NormalizeJobPosting(jobID, raw)
	pool, err := s.Profiles.ListCandidates(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("op=rank.list_candidates: %w", err)
	}
	scored, err := match.RankPool(ctx, pool,
		func(c domain.CandidateRecord) string { return c.ID },
		func(c domain.CandidateRecord) map[domain.Category]match.CategoryResult { return match.ScoreJobPair(c, job) },
		s.Weights.Job,
		s.rankOptions(limit, threshold, match.DefaultJobThreshold),
	)
	if err != nil {
		return nil, err
	}
	results := buildResults(domain.MatchDomainJob, jobID, scored, func(sc match.Scored) []string {
		return match.JobReasons(sc.Categories)
	})
	s.persistLenient(ctx, results)
	return results, nil
}

// RankMentorsForMentee ranks mentors for one mentee's stated preferences.
func (s *MatchService) RankMentorsForMentee(ctx domain.Context, menteeID string, raw domain.RawMenteePreferences, f domain.PoolFilter, limit int, threshold *int) ([]domain.MatchResult, error) {
	if err := s.validate.Struct(raw); err != nil {
		return nil, invalidInput(err)
	}
	pref := domain.NormalizeMenteePreferences(menteeID, raw)
	pool, err := s.Profiles.ListMentors(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("op=rank.list_mentors: %w", err)
	}
	results, err := s.rankMentors(ctx, pref, pool, limit, threshold)
	if err != nil {
		return nil, err
	}
	s.persistLenient(ctx, results)
	return results, nil
}

// RecomputeForSubject recomputes and persists all matches for a stored
// subject. Unlike the interactive paths, a persistence failure is returned so
// the re-evaluation task can be marked failed.
func (s *MatchService) RecomputeForSubject(ctx domain.Context, dom domain.MatchDomain, subjectID string) (int, error) {
	var results []domain.MatchResult
	switch dom {
	case domain.MatchDomainJob:
		cand, err := s.Profiles.GetCandidate(ctx, subjectID)
		if err != nil {
			return 0, fmt.Errorf("op=recompute.get_candidate: %w", err)
		}
		pool, err := s.Profiles.ListJobPostings(ctx, domain.PoolFilter{})
		if err != nil {
			return 0, fmt.Errorf("op=recompute.list_jobs: %w", err)
		}
		if results, err = s.rankJobs(ctx, cand, pool, 0, nil); err != nil {
			return 0, err
		}
	case domain.MatchDomainMentor:
		pref, err := s.Profiles.GetMenteePreferences(ctx, subjectID)
		if err != nil {
			return 0, fmt.Errorf("op=recompute.get_mentee: %w", err)
		}
		pool, err := s.Profiles.ListMentors(ctx, domain.PoolFilter{})
		if err != nil {
			return 0, fmt.Errorf("op=recompute.list_mentors: %w", err)
		}
		if results, err = s.rankMentors(ctx, pref, pool, 0, nil); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: unknown match domain %q", domain.ErrInvalidArgument, dom)
	}
	if err := s.persist(ctx, results); err != nil {
		return 0, err
	}
	return len(results), nil
}

// StoredMatches returns the persisted matches for a subject.
func (s *MatchService) StoredMatches(ctx domain.Context, dom domain.MatchDomain, subjectID string) ([]domain.MatchResult, error) {
	return s.Matches.ListForSubject(ctx, dom, subjectID)
}

func (s *MatchService) rankJobs(ctx domain.Context, cand domain.CandidateRecord, pool []domain.JobRequirements, limit int, threshold *int) ([]domain.MatchResult, error) {
	scored, err := match.RankPool(ctx, pool,
		func(j domain.JobRequirements) string { return j.ID },
		func(j domain.JobRequirements) map[domain.Category]match.CategoryResult { return match.ScoreJobPair(cand, j) },
		s.Weights.Job,
		s.rankOptions(limit, threshold, match.DefaultJobThreshold),
	)
	if err != nil {
		return nil, err
	}
	return buildResults(domain.MatchDomainJob, cand.ID, scored, func(sc match.Scored) []string {
		return match.JobReasons(sc.Categories)
	}), nil
}

func (s *MatchService) rankMentors(ctx domain.Context, pref domain.MenteePreferences, pool []domain.MentorRecord, limit int, threshold *int) ([]domain.MatchResult, error) {
	mentorsByID := make(map[string]domain.MentorRecord, len(pool))
	for _, m := range pool {
		mentorsByID[m.ID] = m
	}
	scored, err := match.RankPool(ctx, pool,
		func(m domain.MentorRecord) string { return m.ID },
		func(m domain.MentorRecord) map[domain.Category]match.CategoryResult { return match.ScoreMentorPair(pref, m) },
		s.Weights.Mentor,
		s.rankOptions(limit, threshold, match.DefaultMentorThreshold),
	)
	if err != nil {
		return nil, err
	}
	return buildResults(domain.MatchDomainMentor, pref.ID, scored, func(sc match.Scored) []string {
		return match.MentorReasons(sc.Categories, mentorsByID[sc.TargetID])
	}), nil
}

func (s *MatchService) rankOptions(limit int, threshold *int, domainDefault int) match.RankOptions {
	th := domainDefault
	if threshold != nil {
		th = *threshold
	}
	return match.RankOptions{Threshold: th, Limit: limit, Workers: s.cfg.ScoreWorkers}
}

func buildResults(dom domain.MatchDomain, subjectID string, scored []match.Scored, reasons func(match.Scored) []string) []domain.MatchResult {
	now := time.Now().UTC()
	out := make([]domain.MatchResult, 0, len(scored))
	for _, sc := range scored {
		cats := make(map[domain.Category]int, len(sc.Categories))
		details := make(map[domain.Category]string, len(sc.Categories))
		for c, res := range sc.Categories {
			cats[c] = res.Score
			details[c] = res.Detail
		}
		out = append(out, domain.MatchResult{
			Domain:         dom,
			SubjectID:      subjectID,
			TargetID:       sc.TargetID,
			OverallScore:   sc.Overall,
			CategoryScores: cats,
			MatchDetails:   details,
			Reasons:        reasons(sc),
			ComputedAt:     now,
		})
	}
	return out
}

// persist upserts every result with bounded concurrency and bounded
// retry-with-backoff per write.
func (s *MatchService) persist(ctx domain.Context, results []domain.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PersistWorkers)
	for _, m := range results {
		g.Go(func() error {
			expo := backoff.NewExponentialBackOff()
			expo.InitialInterval = s.cfg.PersistRetry.InitialInterval
			expo.MaxInterval = s.cfg.PersistRetry.MaxInterval
			bo := backoff.WithContext(backoff.WithMaxRetries(expo, s.cfg.PersistRetry.MaxAttempts-1), gctx)
			return backoff.Retry(func() error { return s.Matches.Upsert(gctx, m) }, bo)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("op=match.persist: %w", err)
	}
	return nil
}

// persistLenient persists computed results on the interactive paths. The
// ranking is already final: a write failure is logged and the response is
// still returned to the caller. Nothing is written once the caller has gone
// away, so a cancelled request leaves no partial writes.
func (s *MatchService) persistLenient(ctx domain.Context, results []domain.MatchResult) {
	if ctx.Err() != nil {
		return
	}
	if err := s.persist(ctx, results); err != nil {
		slog.Warn("match persistence failed, returning computed ranking anyway",
			slog.Int("results", len(results)), slog.Any("error", err))
	}
}

// invalidInput maps a validator error to the domain taxonomy, naming the
// first missing field.
func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].Field())
		return fmt.Errorf("%w: field %s is %s", domain.ErrInvalidArgument, field, verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
}
