package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/talentbridge/match-engine/internal/domain"
)

// MatchRepo persists computed match results in PostgreSQL. A pair is a
// single logical record keyed by (domain, subject, target): recomputation
// overwrites in place and never appends a new row.
type MatchRepo struct{ Pool PgxPool }

// NewMatchRepo constructs a MatchRepo with the given pool.
func NewMatchRepo(p PgxPool) *MatchRepo { return &MatchRepo{Pool: p} }

// Upsert inserts or overwrites the result for one pair.
func (r *MatchRepo) Upsert(ctx domain.Context, m domain.MatchResult) error {
	tracer := otel.Tracer("repo.matches")
	ctx, span := tracer.Start(ctx, "matches.Upsert")
	defer span.End()
	scores, err := json.Marshal(m.CategoryScores)
	if err != nil {
		return fmt.Errorf("op=match.upsert: %w", err)
	}
	details, err := json.Marshal(m.MatchDetails)
	if err != nil {
		return fmt.Errorf("op=match.upsert: %w", err)
	}
	reasons, err := json.Marshal(m.Reasons)
	if err != nil {
		return fmt.Errorf("op=match.upsert: %w", err)
	}
	q := `INSERT INTO matches (domain, subject_id, target_id, overall_score, category_scores, match_details, reasons, computed_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	ON CONFLICT (domain, subject_id, target_id)
	DO UPDATE SET overall_score=EXCLUDED.overall_score, category_scores=EXCLUDED.category_scores,
	match_details=EXCLUDED.match_details, reasons=EXCLUDED.reasons, computed_at=EXCLUDED.computed_at`
	_, err = r.Pool.Exec(ctx, q, m.Domain, m.SubjectID, m.TargetID, m.OverallScore, scores, details, reasons, m.ComputedAt)
	if err != nil {
		return fmt.Errorf("op=match.upsert: %w", err)
	}
	return nil
}

// Get loads the result for one pair.
func (r *MatchRepo) Get(ctx domain.Context, dom domain.MatchDomain, subjectID, targetID string) (domain.MatchResult, error) {
	tracer := otel.Tracer("repo.matches")
	ctx, span := tracer.Start(ctx, "matches.Get")
	defer span.End()
	q := `SELECT domain, subject_id, target_id, overall_score, category_scores, match_details, reasons, computed_at
	FROM matches WHERE domain=$1 AND subject_id=$2 AND target_id=$3`
	m, err := scanMatch(r.Pool.QueryRow(ctx, q, dom, subjectID, targetID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.MatchResult{}, fmt.Errorf("op=match.get: %w", domain.ErrNotFound)
		}
		return domain.MatchResult{}, fmt.Errorf("op=match.get: %w", err)
	}
	return m, nil
}

// ListForSubject loads all persisted results for a subject, best first.
func (r *MatchRepo) ListForSubject(ctx domain.Context, dom domain.MatchDomain, subjectID string) ([]domain.MatchResult, error) {
	tracer := otel.Tracer("repo.matches")
	ctx, span := tracer.Start(ctx, "matches.ListForSubject")
	defer span.End()
	q := `SELECT domain, subject_id, target_id, overall_score, category_scores, match_details, reasons, computed_at
	FROM matches WHERE domain=$1 AND subject_id=$2 ORDER BY overall_score DESC, target_id ASC`
	rows, err := r.Pool.Query(ctx, q, dom, subjectID)
	if err != nil {
		return nil, fmt.Errorf("op=match.list: %w", err)
	}
	defer rows.Close()
	var out []domain.MatchResult
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("op=match.list: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=match.list: %w", err)
	}
	return out, nil
}

func scanMatch(row pgx.Row) (domain.MatchResult, error) {
	var m domain.MatchResult
	var scores, details, reasons []byte
	if err := row.Scan(&m.Domain, &m.SubjectID, &m.TargetID, &m.OverallScore, &scores, &details, &reasons, &m.ComputedAt); err != nil {
		return domain.MatchResult{}, err
	}
	if err := json.Unmarshal(scores, &m.CategoryScores); err != nil {
		return domain.MatchResult{}, err
	}
	if err := json.Unmarshal(details, &m.MatchDetails); err != nil {
		return domain.MatchResult{}, err
	}
	if err := json.Unmarshal(reasons, &m.Reasons); err != nil {
		return domain.MatchResult{}, err
	}
	return m, nil
}
