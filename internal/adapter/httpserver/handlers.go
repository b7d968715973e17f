package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/talentbridge/match-engine/internal/adapter/observability"
	"github.com/talentbridge/match-engine/internal/config"
	"github.com/talentbridge/match-engine/internal/domain"
	"github.com/talentbridge/match-engine/internal/usecase"
)

// Server aggregates handlers dependencies.
type Server struct {
	Cfg        config.Config
	Matches    *usecase.MatchService
	ReEvals    *usecase.ReEvaluationService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	KafkaCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, matches *usecase.MatchService, reevals *usecase.ReEvaluationService, dbCheck, redisCheck, kafkaCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Matches: matches, ReEvals: reevals, DBCheck: dbCheck, RedisCheck: redisCheck, KafkaCheck: kafkaCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// acceptsJSON rejects requests that negotiate a non-JSON response type.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
		writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a}}})
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument)
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		return &validationError{fields: verrs}
	}
	return nil
}

type validationError struct{ fields map[string]string }

func (e *validationError) Error() string { return "validation failed" }

// rankRequestOptions are the shared tuning knobs on ranking requests.
type rankRequestOptions struct {
	Location  string `json:"location"`
	PoolLimit int    `json:"pool_limit" validate:"gte=0"`
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
	MinScore  *int   `json:"min_score" validate:"omitempty,gte=0,lte=100"`
}

func (o rankRequestOptions) filter() domain.PoolFilter {
	return domain.PoolFilter{Location: o.Location, Limit: o.PoolLimit}
}

// rankParams applies the configured defaults where the request left the
// limit or minimum score unset.
func (s *Server) rankParams(o rankRequestOptions, cfgThreshold int) (int, *int) {
	limit := o.Limit
	if limit == 0 && s.Cfg.RankLimit > 0 {
		limit = s.Cfg.RankLimit
	}
	minScore := o.MinScore
	if minScore == nil && cfgThreshold > 0 {
		minScore = &cfgThreshold
	}
	return limit, minScore
}

type matchView struct {
	TargetID       string            `json:"target_id"`
	OverallScore   int               `json:"overall_score"`
	CategoryScores map[string]int    `json:"category_scores"`
	MatchDetails   map[string]string `json:"match_details"`
	Reasons        []string          `json:"reasons"`
	ComputedAt     time.Time         `json:"computed_at"`
}

func toViews(results []domain.MatchResult) []matchView {
	views := make([]matchView, 0, len(results))
	for _, m := range results {
		v := matchView{
			TargetID:       m.TargetID,
			OverallScore:   m.OverallScore,
			CategoryScores: make(map[string]int, len(m.CategoryScores)),
			MatchDetails:   make(map[string]string, len(m.MatchDetails)),
			Reasons:        m.Reasons,
			ComputedAt:     m.ComputedAt,
		}
		for c, s := range m.CategoryScores {
			v.CategoryScores[string(c)] = s
		}
		for c, d := range m.MatchDetails {
			v.MatchDetails[string(c)] = d
		}
		views = append(views, v)
	}
	return views
}

func observeResults(dom domain.MatchDomain, results []domain.MatchResult) {
	for _, m := range results {
		observability.ObserveMatch(string(dom), m.OverallScore)
	}
}

func writeRankResponse(w http.ResponseWriter, r *http.Request, dom domain.MatchDomain, subjectID string, results []domain.MatchResult, err error) {
	if err != nil {
		if ve, ok := err.(*validationError); ok {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), ve.fields)
			return
		}
		writeError(w, r, err, nil)
		return
	}
	observeResults(dom, results)
	writeJSON(w, http.StatusOK, map[string]any{
		"domain":     string(dom),
		"subject_id": subjectID,
		"matches":    toViews(results),
	})
}

// MatchJobsHandler ranks job postings for a candidate profile.
func (s *Server) MatchJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req struct {
			CandidateID string            `json:"candidate_id" validate:"required,max=100"`
			Profile     domain.RawProfile `json:"profile"`
			rankRequestOptions
		}
		if err := decodeBody(w, r, &req); err != nil {
			writeRankResponse(w, r, domain.MatchDomainJob, req.CandidateID, nil, err)
			return
		}
		limit, minScore := s.rankParams(req.rankRequestOptions, s.Cfg.JobScoreThreshold)
		results, err := s.Matches.RankJobsForCandidate(r.Context(), req.CandidateID, req.Profile, req.filter(), limit, minScore)
		writeRankResponse(w, r, domain.MatchDomainJob, req.CandidateID, results, err)
	}
}

// MatchCandidatesHandler ranks candidates for a job posting.
func (s *Server) MatchCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req struct {
			JobID   string               `json:"job_id" validate:"required,max=100"`
			Posting domain.RawJobPosting `json:"posting"`
			rankRequestOptions
		}
		if err := decodeBody(w, r, &req); err != nil {
			writeRankResponse(w, r, domain.MatchDomainJob, req.JobID, nil, err)
			return
		}
		limit, minScore := s.rankParams(req.rankRequestOptions, s.Cfg.JobScoreThreshold)
		results, err := s.Matches.RankCandidatesForJob(r.Context(), req.JobID, req.Posting, req.filter(), limit, minScore)
		writeRankResponse(w, r, domain.MatchDomainJob, req.JobID, results, err)
	}
}

// MatchMentorsHandler ranks mentors for a mentee's preferences.
func (s *Server) MatchMentorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req struct {
			MenteeID    string                      `json:"mentee_id" validate:"required,max=100"`
			Preferences domain.RawMenteePreferences `json:"preferences"`
			rankRequestOptions
		}
		if err := decodeBody(w, r, &req); err != nil {
			writeRankResponse(w, r, domain.MatchDomainMentor, req.MenteeID, nil, err)
			return
		}
		limit, minScore := s.rankParams(req.rankRequestOptions, s.Cfg.MentorScoreThreshold)
		results, err := s.Matches.RankMentorsForMentee(r.Context(), req.MenteeID, req.Preferences, req.filter(), limit, minScore)
		writeRankResponse(w, r, domain.MatchDomainMentor, req.MenteeID, results, err)
	}
}

// ScheduleReEvaluationHandler schedules an async recomputation for a subject.
func (s *Server) ScheduleReEvaluationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req struct {
			Domain      string `json:"domain" validate:"required,oneof=job mentor"`
			SubjectID   string `json:"subject_id" validate:"required,max=100"`
			TriggerType string `json:"trigger_type" validate:"required,oneof=profile_update preferences_update manual"`
		}
		if err := decodeBody(w, r, &req); err != nil {
			if ve, ok := err.(*validationError); ok {
				writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), ve.fields)
				return
			}
			writeError(w, r, err, nil)
			return
		}
		taskID, err := s.ReEvals.Schedule(r.Context(), domain.MatchDomain(req.Domain), SanitizeSubjectID(req.SubjectID), req.TriggerType)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "status": string(domain.TaskPending)})
	}
}

// StoredMatchesHandler returns persisted match results for a subject.
func (s *Server) StoredMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		dom := domain.MatchDomain(chi.URLParam(r, "domain"))
		if dom != domain.MatchDomainJob && dom != domain.MatchDomainMentor {
			writeError(w, r, fmt.Errorf("%w: unknown match domain %q", domain.ErrInvalidArgument, string(dom)), nil)
			return
		}
		subjectID := chi.URLParam(r, "subjectID")
		if res := ValidateSubjectID(subjectID); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid subject id", domain.ErrInvalidArgument), res.Errors)
			return
		}
		results, err := s.Matches.StoredMatches(r.Context(), dom, subjectID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"domain":     string(dom),
			"subject_id": subjectID,
			"matches":    toViews(results),
		})
	}
}

// ReadyzHandler returns a readiness handler that probes DB, Redis and Kafka.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 3)
		run := func(name string, probe func(context.Context) error) {
			if probe == nil {
				return
			}
			if err := probe(ctx); err != nil {
				checks = append(checks, check{Name: name, OK: false, Details: err.Error()})
				return
			}
			checks = append(checks, check{Name: name, OK: true})
		}
		run("db", s.DBCheck)
		run("redis", s.RedisCheck)
		run("kafka", s.KafkaCheck)
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
