package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbridge/match-engine/internal/domain"
)

func TestProfileRepo_GetCandidate(t *testing.T) {
	t.Parallel()
	doc := []byte(`{
		"skills": [{"name": "Go"}, {"name": "Postgres"}],
		"experience": [{"years": 6}],
		"education": [{"degree": "BSc Computer Science", "field": "Computer Science"}],
		"location": "Berlin"
	}`)
	pool := &poolStub{rowData: []any{doc}}
	repo := NewProfileRepo(pool)

	rec, err := repo.GetCandidate(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", rec.ID)
	assert.Equal(t, []string{"Go", "Postgres"}, rec.Skills)
	require.True(t, rec.ExperienceYears.Set)
	assert.InDelta(t, 6.0, rec.ExperienceYears.Value, 1e-9)
	require.True(t, rec.Education.Set)
	assert.Equal(t, domain.EducationBachelor, rec.Education.Value.Level)
	require.True(t, rec.Location.Set)
	assert.Equal(t, "Berlin", rec.Location.Value)
}

func TestProfileRepo_GetCandidate_NotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{rowErr: pgx.ErrNoRows}
	repo := NewProfileRepo(pool)

	_, err := repo.GetCandidate(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileRepo_ListJobPostings(t *testing.T) {
	t.Parallel()
	doc := []byte(`{
		"requirements": {
			"skills": [{"name": "Go", "required": true}],
			"education": [{"level": "bachelor", "required": true}]
		},
		"location": "Berlin",
		"work_mode": "remote"
	}`)
	pool := &poolStub{rowsData: [][]any{{"j1", doc}}}
	repo := NewProfileRepo(pool)

	out, err := repo.ListJobPostings(context.Background(), domain.PoolFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "j1", out[0].ID)
	require.Len(t, out[0].Skills, 1)
	assert.True(t, out[0].Skills[0].Required)
	require.True(t, out[0].WorkMode.Set)
	assert.Equal(t, domain.WorkModeRemote, out[0].WorkMode.Value)
}

func TestProfileRepo_ListMentors_LocationFilterAndLimit(t *testing.T) {
	t.Parallel()
	pool := &poolStub{}
	repo := NewProfileRepo(pool)

	_, err := repo.ListMentors(context.Background(), domain.PoolFilter{Location: "berlin", Limit: 5})
	require.NoError(t, err)
	require.Len(t, pool.queries, 1)
	assert.Contains(t, pool.queries[0].sql, "ILIKE")
	assert.Contains(t, pool.queries[0].sql, "LIMIT $2")
	assert.Equal(t, []any{"berlin", 5}, pool.queries[0].args)
}

func TestProfileRepo_GetMenteePreferences(t *testing.T) {
	t.Parallel()
	doc := []byte(`{
		"topics": ["Go", "Systems"],
		"availability": {"days": ["Monday"], "hours": ["evening"]},
		"experience_level": "beginner"
	}`)
	pool := &poolStub{rowData: []any{doc}}
	repo := NewProfileRepo(pool)

	pref, err := repo.GetMenteePreferences(context.Background(), "me1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Systems"}, pref.Topics)
	require.True(t, pref.ExperienceLevel.Set)
	assert.Equal(t, domain.LevelBeginner, pref.ExperienceLevel.Value)
}

func TestProfileRepo_UpsertDocument(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := NewProfileRepo(pool)

	err := repo.UpsertDocument(context.Background(), "candidate_profiles", "c1", map[string]any{"skills": []any{}})
	require.NoError(t, err)
	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0].sql, "INSERT INTO candidate_profiles")
	assert.Contains(t, pool.execs[0].sql, "ON CONFLICT (id)")
	assert.Equal(t, "c1", pool.execs[0].args[0])
}

func TestProfileRepo_UpsertDocument_UnknownTable(t *testing.T) {
	t.Parallel()
	repo := NewProfileRepo(&poolStub{})

	err := repo.UpsertDocument(context.Background(), "users; DROP TABLE users", "c1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestValidProfileTable(t *testing.T) {
	t.Parallel()
	for _, table := range []string{"candidate_profiles", "job_postings", "mentor_profiles", "mentee_preferences"} {
		assert.True(t, validProfileTable(table), table)
	}
	assert.False(t, validProfileTable("matches"))
}
