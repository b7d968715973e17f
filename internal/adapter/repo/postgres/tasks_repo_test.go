package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbridge/match-engine/internal/domain"
)

func pendingTask(id string) domain.ReEvaluationTask {
	now := time.Now().UTC()
	return domain.ReEvaluationTask{
		ID:           id,
		Domain:       domain.MatchDomainJob,
		SubjectID:    "c1",
		TriggerType:  "profile_update",
		Status:       domain.TaskPending,
		ScheduledFor: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestTaskRepo_Schedule_Inserted(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := NewTaskRepo(pool)

	id, inserted, err := repo.Schedule(context.Background(), pendingTask("t1"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "t1", id)

	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0].sql, "WHERE NOT EXISTS")
	// No lookup query when the insert landed.
	assert.Empty(t, pool.queries)
}

func TestTaskRepo_Schedule_DedupedReturnsActiveID(t *testing.T) {
	t.Parallel()
	pool := &poolStub{
		execTag: pgconn.NewCommandTag("INSERT 0 0"),
		rowData: []any{"t-active"},
	}
	repo := NewTaskRepo(pool)

	id, inserted, err := repo.Schedule(context.Background(), pendingTask("t2"))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "t-active", id)
	require.Len(t, pool.queries, 1)
	assert.Contains(t, pool.queries[0].sql, "status IN ('pending','processing')")
}

func TestTaskRepo_Schedule_ExecError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("connection refused")}
	repo := NewTaskRepo(pool)

	_, _, err := repo.Schedule(context.Background(), pendingTask("t1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=task.schedule")
}

func TestTaskRepo_ClaimDue(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	pool := &poolStub{rowsData: [][]any{
		{"t1", "job", "c1", "profile_update", "processing", now, nil, "", now, now},
		{"t2", "mentor", "me1", "manual", "processing", now, nil, "", now, now},
	}}
	repo := NewTaskRepo(pool)

	tasks, err := repo.ClaimDue(context.Background(), 10, now)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, domain.MatchDomainJob, tasks[0].Domain)
	assert.Equal(t, domain.TaskProcessing, tasks[0].Status)
	assert.Nil(t, tasks[0].CompletedAt)
	assert.Equal(t, domain.MatchDomainMentor, tasks[1].Domain)

	require.Len(t, pool.queries, 1)
	assert.Contains(t, pool.queries[0].sql, "FOR UPDATE SKIP LOCKED")
	assert.Equal(t, []any{now, now, 10}, pool.queries[0].args)
}

func TestTaskRepo_MarkCompleted(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewTaskRepo(pool)

	require.NoError(t, repo.MarkCompleted(context.Background(), "t1"))
	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0].sql, "status='completed'")
	assert.Contains(t, pool.execs[0].sql, "AND status='processing'")
}

func TestTaskRepo_MarkCompleted_NotProcessing(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewTaskRepo(pool)

	err := repo.MarkCompleted(context.Background(), "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRepo_MarkFailed(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewTaskRepo(pool)

	require.NoError(t, repo.MarkFailed(context.Background(), "t1", "boom"))
	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0].sql, "status='failed'")
	assert.Equal(t, "boom", pool.execs[0].args[1])
}

func TestTaskRepo_MarkFailed_NotProcessing(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewTaskRepo(pool)

	err := repo.MarkFailed(context.Background(), "t1", "boom")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRepo_SweepStuck(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 3")}
	repo := NewTaskRepo(pool)

	n, err := repo.SweepStuck(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0].sql, "status='processing' AND updated_at <")
}
