package match

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talentbridge/match-engine/internal/domain"
)

// WeightVector maps categories to fractional weights. A valid vector sums
// to 1.0 within weightEpsilon.
type WeightVector map[domain.Category]float64

const weightEpsilon = 1e-6

// Validate checks that weights are non-negative and sum to 1.0.
func (w WeightVector) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: empty weight vector", domain.ErrInvalidArgument)
	}
	sum := 0.0
	for c, f := range w {
		if f < 0 {
			return fmt.Errorf("%w: negative weight for %s", domain.ErrInvalidArgument, c)
		}
		sum += f
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", domain.ErrInvalidArgument, sum)
	}
	return nil
}

// Weights bundles the per-domain weight vectors. Vectors are named
// configuration validated once at startup, not ad-hoc literals.
type Weights struct {
	Job    WeightVector `yaml:"job"`
	Mentor WeightVector `yaml:"mentor"`
}

// DefaultWeights returns the built-in job and mentor weight vectors.
func DefaultWeights() Weights {
	return Weights{
		Job: WeightVector{
			domain.CategorySkills:     0.35,
			domain.CategoryExperience: 0.25,
			domain.CategoryEducation:  0.20,
			domain.CategoryLocation:   0.10,
			domain.CategoryLanguages:  0.10,
		},
		Mentor: WeightVector{
			domain.CategoryExpertise:        0.40,
			domain.CategoryAvailability:     0.30,
			domain.CategoryExperienceCompat: 0.30,
		},
	}
}

// Validate checks both vectors.
func (w Weights) Validate() error {
	if err := w.Job.Validate(); err != nil {
		return fmt.Errorf("job weights: %w", err)
	}
	if err := w.Mentor.Validate(); err != nil {
		return fmt.Errorf("mentor weights: %w", err)
	}
	return nil
}

// LoadWeights returns the defaults, or the vectors from a YAML override file
// when path is non-empty. Loaded vectors are re-validated.
func LoadWeights(path string) (Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("op=weights.load: %w", err)
	}
	var w Weights
	if err := yaml.Unmarshal(b, &w); err != nil {
		return Weights{}, fmt.Errorf("op=weights.parse: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}
