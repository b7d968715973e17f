package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/talentbridge/match-engine/internal/domain"
)

// ProfileRepo loads profiles and requirement sets owned by the surrounding
// portal. Documents are stored as JSONB in their raw transport shape and
// normalized on read, so the engine always scores against the current state.
type ProfileRepo struct{ Pool PgxPool }

// NewProfileRepo constructs a ProfileRepo with the given pool.
func NewProfileRepo(p PgxPool) *ProfileRepo { return &ProfileRepo{Pool: p} }

func (r *ProfileRepo) GetCandidate(ctx domain.Context, id string) (domain.CandidateRecord, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.GetCandidate")
	defer span.End()
	var raw domain.RawProfile
	if err := r.getDocument(ctx, "candidate_profiles", id, &raw); err != nil {
		return domain.CandidateRecord{}, fmt.Errorf("op=candidate.get: %w", err)
	}
	return domain.NormalizeProfile(id, raw, time.Now().UTC()), nil
}

func (r *ProfileRepo) ListCandidates(ctx domain.Context, f domain.PoolFilter) ([]domain.CandidateRecord, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.ListCandidates")
	defer span.End()
	now := time.Now().UTC()
	var out []domain.CandidateRecord
	err := r.listDocuments(ctx, "candidate_profiles", f, func(id string, doc []byte) error {
		var raw domain.RawProfile
		if err := json.Unmarshal(doc, &raw); err != nil {
			return err
		}
		out = append(out, domain.NormalizeProfile(id, raw, now))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	return out, nil
}

func (r *ProfileRepo) GetJobPosting(ctx domain.Context, id string) (domain.JobRequirements, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.GetJobPosting")
	defer span.End()
	var raw domain.RawJobPosting
	if err := r.getDocument(ctx, "job_postings", id, &raw); err != nil {
		return domain.JobRequirements{}, fmt.Errorf("op=job_posting.get: %w", err)
	}
	return domain.NormalizeJobPosting(id, raw), nil
}

func (r *ProfileRepo) ListJobPostings(ctx domain.Context, f domain.PoolFilter) ([]domain.JobRequirements, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.ListJobPostings")
	defer span.End()
	var out []domain.JobRequirements
	err := r.listDocuments(ctx, "job_postings", f, func(id string, doc []byte) error {
		var raw domain.RawJobPosting
		if err := json.Unmarshal(doc, &raw); err != nil {
			return err
		}
		out = append(out, domain.NormalizeJobPosting(id, raw))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("op=job_posting.list: %w", err)
	}
	return out, nil
}

func (r *ProfileRepo) GetMenteePreferences(ctx domain.Context, id string) (domain.MenteePreferences, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.GetMenteePreferences")
	defer span.End()
	var raw domain.RawMenteePreferences
	if err := r.getDocument(ctx, "mentee_preferences", id, &raw); err != nil {
		return domain.MenteePreferences{}, fmt.Errorf("op=mentee.get: %w", err)
	}
	return domain.NormalizeMenteePreferences(id, raw), nil
}

func (r *ProfileRepo) ListMentors(ctx domain.Context, f domain.PoolFilter) ([]domain.MentorRecord, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.ListMentors")
	defer span.End()
	var out []domain.MentorRecord
	err := r.listDocuments(ctx, "mentor_profiles", f, func(id string, doc []byte) error {
		var raw domain.RawMentorProfile
		if err := json.Unmarshal(doc, &raw); err != nil {
			return err
		}
		out = append(out, domain.NormalizeMentorProfile(id, raw))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("op=mentor.list: %w", err)
	}
	return out, nil
}

// UpsertDocument stores a raw profile document under the given table and id.
// The portal writes through this path; the engine itself only reads.
func (r *ProfileRepo) UpsertDocument(ctx domain.Context, table, id string, doc any) error {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.UpsertDocument")
	defer span.End()
	if !validProfileTable(table) {
		return fmt.Errorf("%w: unknown profile table %q", domain.ErrInvalidArgument, table)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("op=profile.upsert: %w", err)
	}
	q := `INSERT INTO ` + table + ` (id, document, updated_at) VALUES ($1,$2,$3)
	ON CONFLICT (id) DO UPDATE SET document=EXCLUDED.document, updated_at=EXCLUDED.updated_at`
	if _, err := r.Pool.Exec(ctx, q, id, b, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=profile.upsert: %w", err)
	}
	return nil
}

func validProfileTable(table string) bool {
	switch table {
	case "candidate_profiles", "job_postings", "mentor_profiles", "mentee_preferences":
		return true
	}
	return false
}

func (r *ProfileRepo) getDocument(ctx domain.Context, table, id string, dst any) error {
	row := r.Pool.QueryRow(ctx, `SELECT document FROM `+table+` WHERE id=$1`, id)
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(doc, dst)
}

// listDocuments streams documents, optionally filtered by a location
// fragment inside the stored document, capped by the filter limit.
func (r *ProfileRepo) listDocuments(ctx domain.Context, table string, f domain.PoolFilter, visit func(id string, doc []byte) error) error {
	q := `SELECT id, document FROM ` + table + ` WHERE ($1 = '' OR document->>'location' ILIKE '%' || $1 || '%') ORDER BY id`
	args := []any{f.Location}
	if f.Limit > 0 {
		q += ` LIMIT $2`
		args = append(args, f.Limit)
	}
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return err
		}
		if err := visit(id, doc); err != nil {
			return err
		}
	}
	return rows.Err()
}
