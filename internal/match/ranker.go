package match

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/talentbridge/match-engine/internal/domain"
)

// Rank defaults; callers may override per request.
const (
	DefaultLimit           = 10
	DefaultJobThreshold    = 50
	DefaultMentorThreshold = 30
	defaultWorkers         = 8
)

// RankOptions control filtering, truncation, and scoring parallelism.
type RankOptions struct {
	Threshold int
	Limit     int
	Workers   int
}

// Scored is one pool member with its computed scores.
type Scored struct {
	TargetID   string
	Overall    int
	Categories map[domain.Category]CategoryResult
}

// RankPool scores every target against the subject captured by score,
// filters by threshold, sorts descending by overall score with ties broken
// by ascending target id, and truncates to the limit.
//
// Scoring runs as a bounded-parallel map: pure and independent per pair. A
// panic while scoring one pool member is recovered, logged, and that member
// is excluded; it never aborts the rest of the pool. Pool members are never
// mutated. Context cancellation aborts the whole ranking with ctx.Err().
func RankPool[T any](
	ctx context.Context,
	targets []T,
	targetID func(T) string,
	score func(T) map[domain.Category]CategoryResult,
	weights WeightVector,
	opts RankOptions,
) ([]Scored, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	scored := make([]*Scored, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range targets {
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("scoring panicked, pair excluded",
						slog.String("target_id", targetID(t)),
						slog.Any("recover", rec))
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			cats := score(t)
			scored[i] = &Scored{
				TargetID:   targetID(t),
				Overall:    Aggregate(cats, weights),
				Categories: cats,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Scored, 0, len(scored))
	for _, s := range scored {
		if s != nil && s.Overall >= opts.Threshold {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Overall != out[j].Overall {
			return out[i].Overall > out[j].Overall
		}
		return out[i].TargetID < out[j].TargetID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
