package postgres

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/talentbridge/match-engine/internal/adapter/observability"
	"github.com/talentbridge/match-engine/internal/domain"
)

// TaskRepo persists re-evaluation tasks. The pending-per-subject dedupe and
// the pending->processing claim are single atomic statements so concurrent
// schedulers and workers cannot race each other.
type TaskRepo struct{ Pool PgxPool }

// NewTaskRepo constructs a TaskRepo with the given pool.
func NewTaskRepo(p PgxPool) *TaskRepo { return &TaskRepo{Pool: p} }

const taskColumns = `id, domain, subject_id, trigger_type, status, scheduled_for, completed_at, COALESCE(error_message,''), created_at, updated_at`

// Schedule inserts a pending task unless the subject already has one in
// pending or processing. Returns the active task id and whether a new row
// was inserted.
func (r *TaskRepo) Schedule(ctx domain.Context, t domain.ReEvaluationTask) (string, bool, error) {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.Schedule")
	defer span.End()
	q := `INSERT INTO reevaluation_tasks (id, domain, subject_id, trigger_type, status, scheduled_for, created_at, updated_at)
	SELECT $1, $2, $3, $4, 'pending', $5, $6, $6
	WHERE NOT EXISTS (
		SELECT 1 FROM reevaluation_tasks
		WHERE domain=$2 AND subject_id=$3 AND status IN ('pending','processing')
	)`
	tag, err := r.Pool.Exec(ctx, q, t.ID, t.Domain, t.SubjectID, t.TriggerType, t.ScheduledFor, t.CreatedAt)
	if err != nil {
		return "", false, fmt.Errorf("op=task.schedule: %w", err)
	}
	if tag.RowsAffected() > 0 {
		observability.TaskScheduled(string(t.Domain), true)
		return t.ID, true, nil
	}
	observability.TaskScheduled(string(t.Domain), false)
	// Another task is already active for this subject; hand back its id.
	row := r.Pool.QueryRow(ctx,
		`SELECT id FROM reevaluation_tasks WHERE domain=$1 AND subject_id=$2 AND status IN ('pending','processing') LIMIT 1`,
		t.Domain, t.SubjectID)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", false, fmt.Errorf("op=task.schedule_lookup: %w", err)
	}
	return id, false, nil
}

// ClaimDue transitions up to limit due pending tasks to processing and
// returns them. FOR UPDATE SKIP LOCKED keeps concurrent workers from
// claiming the same row.
func (r *TaskRepo) ClaimDue(ctx domain.Context, limit int, now time.Time) ([]domain.ReEvaluationTask, error) {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.ClaimDue")
	defer span.End()
	q := `UPDATE reevaluation_tasks SET status='processing', updated_at=$2
	WHERE id IN (
		SELECT id FROM reevaluation_tasks
		WHERE status='pending' AND scheduled_for <= $1
		ORDER BY scheduled_for
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + taskColumns
	rows, err := r.Pool.Query(ctx, q, now, now, limit)
	if err != nil {
		return nil, fmt.Errorf("op=task.claim: %w", err)
	}
	defer rows.Close()
	var out []domain.ReEvaluationTask
	for rows.Next() {
		var t domain.ReEvaluationTask
		if err := rows.Scan(&t.ID, &t.Domain, &t.SubjectID, &t.TriggerType, &t.Status, &t.ScheduledFor, &t.CompletedAt, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("op=task.claim: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=task.claim: %w", err)
	}
	for range out {
		observability.StartProcessingTask()
	}
	return out, nil
}

// MarkCompleted finishes a processing task. Completed tasks are retained as
// audit records.
func (r *TaskRepo) MarkCompleted(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.MarkCompleted")
	defer span.End()
	now := time.Now().UTC()
	q := `UPDATE reevaluation_tasks SET status='completed', completed_at=$2, updated_at=$2 WHERE id=$1 AND status='processing'`
	tag, err := r.Pool.Exec(ctx, q, id, now)
	if err != nil {
		return fmt.Errorf("op=task.complete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=task.complete: %w", domain.ErrNotFound)
	}
	observability.CompleteTask()
	return nil
}

// MarkFailed fails a processing task with the captured error. Failed tasks
// are not retried automatically.
func (r *TaskRepo) MarkFailed(ctx domain.Context, id, errMsg string) error {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.MarkFailed")
	defer span.End()
	now := time.Now().UTC()
	q := `UPDATE reevaluation_tasks SET status='failed', error_message=$2, completed_at=$3, updated_at=$3 WHERE id=$1 AND status='processing'`
	tag, err := r.Pool.Exec(ctx, q, id, errMsg, now)
	if err != nil {
		return fmt.Errorf("op=task.fail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=task.fail: %w", domain.ErrNotFound)
	}
	observability.FailTask()
	return nil
}

// SweepStuck fails processing tasks whose last update is older than
// olderThan. A crashed worker leaves its claims in processing; sweeping lets
// an operator see and reschedule them.
func (r *TaskRepo) SweepStuck(ctx domain.Context, olderThan time.Duration) (int64, error) {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.SweepStuck")
	defer span.End()
	now := time.Now().UTC()
	q := `UPDATE reevaluation_tasks SET status='failed', error_message='stuck in processing, worker likely crashed', completed_at=$1, updated_at=$1
	WHERE status='processing' AND updated_at < $2`
	tag, err := r.Pool.Exec(ctx, q, now, now.Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("op=task.sweep: %w", err)
	}
	for i := int64(0); i < tag.RowsAffected(); i++ {
		observability.FailTask()
	}
	return tag.RowsAffected(), nil
}
