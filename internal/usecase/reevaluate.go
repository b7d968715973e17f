package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talentbridge/match-engine/internal/domain"
	"github.com/talentbridge/match-engine/internal/observability"
)

// ReEvaluationConfig carries the scheduler tunables.
type ReEvaluationConfig struct {
	PollInterval  time.Duration
	BatchSize     int
	StuckAge      time.Duration
	SweepInterval time.Duration
}

// ReEvaluationService keeps stale matches fresh: it schedules recompute
// tasks when inputs change and processes them in batches with at-least-once
// semantics. Recomputation is a pure function of current inputs, so
// reprocessing a task is always safe.
type ReEvaluationService struct {
	Tasks     domain.TaskRepository
	Matcher   *MatchService
	Publisher domain.EventPublisher
	Limiter   domain.RecomputeLimiter

	cfg ReEvaluationConfig
}

// NewReEvaluationService constructs a ReEvaluationService.
func NewReEvaluationService(t domain.TaskRepository, m *MatchService, pub domain.EventPublisher, lim domain.RecomputeLimiter, cfg ReEvaluationConfig) *ReEvaluationService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.StuckAge <= 0 {
		cfg.StuckAge = 10 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &ReEvaluationService{Tasks: t, Matcher: m, Publisher: pub, Limiter: lim, cfg: cfg}
}

// Schedule records a pending recompute task for a subject. Scheduling is
// idempotent while a task for the subject is still pending or processing:
// the existing task's id is returned and no new row is created. A cooldown
// limiter guards against recompute storms from rapid successive edits.
func (s *ReEvaluationService) Schedule(ctx domain.Context, dom domain.MatchDomain, subjectID, triggerType string) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("%w: subject id required", domain.ErrInvalidArgument)
	}
	if dom != domain.MatchDomainJob && dom != domain.MatchDomainMentor {
		return "", fmt.Errorf("%w: unknown match domain %q", domain.ErrInvalidArgument, dom)
	}
	if s.Limiter != nil {
		allowed, retryAfter, err := s.Limiter.Allow(ctx, fmt.Sprintf("reeval:%s:%s", dom, subjectID))
		if err != nil {
			// The limiter is advisory; a broken limiter must not block freshness.
			slog.Warn("recompute limiter unavailable, allowing", slog.Any("error", err))
		} else if !allowed {
			return "", fmt.Errorf("%w: retry after %s", domain.ErrRateLimited, retryAfter.Round(time.Second))
		}
	}
	now := time.Now().UTC()
	task := domain.ReEvaluationTask{
		ID:           uuid.New().String(),
		Domain:       dom,
		SubjectID:    subjectID,
		TriggerType:  triggerType,
		Status:       domain.TaskPending,
		ScheduledFor: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, inserted, err := s.Tasks.Schedule(ctx, task)
	if err != nil {
		return "", fmt.Errorf("op=reeval.schedule: %w", err)
	}
	if !inserted {
		slog.Debug("re-evaluation already scheduled",
			slog.String("domain", string(dom)), slog.String("subject_id", subjectID), slog.String("task_id", id))
	}
	return id, nil
}

// ProcessBatch claims up to n due tasks and recomputes matches for each.
// A failing task is marked failed with the captured error and is not
// retried automatically; retry requires an explicit new Schedule call.
// Returns how many tasks were claimed.
func (s *ReEvaluationService) ProcessBatch(ctx domain.Context, n int) (int, error) {
	tasks, err := s.Tasks.ClaimDue(ctx, n, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("op=reeval.claim: %w", err)
	}
	for _, t := range tasks {
		s.processTask(ctx, t)
	}
	return len(tasks), nil
}

func (s *ReEvaluationService) processTask(ctx domain.Context, t domain.ReEvaluationTask) {
	log := observability.LoggerFromContext(ctx).With(
		slog.String("task_id", t.ID),
		slog.String("domain", string(t.Domain)),
		slog.String("subject_id", t.SubjectID))

	matches, err := s.Matcher.RecomputeForSubject(ctx, t.Domain, t.SubjectID)
	if err != nil {
		log.Error("re-evaluation failed", slog.Any("error", err))
		if mErr := s.Tasks.MarkFailed(ctx, t.ID, err.Error()); mErr != nil {
			log.Error("failed to mark task failed", slog.Any("error", mErr))
		}
		return
	}
	if err := s.Tasks.MarkCompleted(ctx, t.ID); err != nil {
		log.Error("failed to mark task completed", slog.Any("error", err))
		return
	}
	log.Info("re-evaluation completed", slog.Int("matches", matches))

	if s.Publisher != nil {
		ev := domain.ReEvaluationCompleted{
			TaskID:      t.ID,
			Domain:      t.Domain,
			SubjectID:   t.SubjectID,
			TriggerType: t.TriggerType,
			Matches:     matches,
			CompletedAt: time.Now().UTC(),
		}
		// Best effort: the event is advisory and delivery belongs to the
		// notification layer.
		if err := s.Publisher.PublishReEvaluationCompleted(ctx, ev); err != nil {
			log.Warn("completion event publish failed", slog.Any("error", err))
		}
	}
}

// Run polls for due tasks at a fixed interval until the context is
// cancelled, periodically failing tasks stuck in processing.
func (s *ReEvaluationService) Run(ctx domain.Context) {
	slog.Info("re-evaluation worker started",
		slog.Duration("poll_interval", s.cfg.PollInterval), slog.Int("batch_size", s.cfg.BatchSize))
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(s.cfg.SweepInterval)
	defer sweep.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("re-evaluation worker stopped")
			return
		case <-poll.C:
			if _, err := s.ProcessBatch(ctx, s.cfg.BatchSize); err != nil && ctx.Err() == nil {
				slog.Error("re-evaluation batch failed", slog.Any("error", err))
			}
		case <-sweep.C:
			n, err := s.Tasks.SweepStuck(ctx, s.cfg.StuckAge)
			if err != nil && ctx.Err() == nil {
				slog.Error("stuck task sweep failed", slog.Any("error", err))
			} else if n > 0 {
				slog.Warn("failed stuck re-evaluation tasks", slog.Int64("count", n))
			}
		}
	}
}
