package recommend

import (
	"errors"
	"fmt"
)

// Weights are the Merge & Rank scoring weights.
type Weights struct {
	Category     float64
	AgeBand      float64
	ReadingLevel float64
	Hint         float64
}

// Max returns the highest attainable score.
func (w Weights) Max() float64 {
	return w.Category + w.AgeBand + w.ReadingLevel + w.Hint
}

// Policy holds the rule engine and ranking constants.
type Policy struct {
	SufficientCandidates int // cache or merged count that short-circuits the pipeline
	MinCandidates        int // below this after widening the outcome is no safe match
	MaxResults           int
	FetchLimit           int // upper bound on records per book store query
	WidenSteps           int
	WidenBands           int
	Weights              Weights
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		SufficientCandidates: 3,
		MinCandidates:        1,
		MaxResults:           5,
		FetchLimit:           50,
		WidenSteps:           1,
		WidenBands:           1,
		Weights: Weights{
			Category:     3,
			AgeBand:      2,
			ReadingLevel: 1,
			Hint:         0.5,
		},
	}
}

// Validate checks thresholds and the weight ordering category > age band > reading level > hint.
func (p *Policy) Validate() error {
	var errs []error
	if p.MinCandidates < 1 {
		errs = append(errs, fmt.Errorf("min_candidates must be >= 1, got %d", p.MinCandidates))
	}
	if p.SufficientCandidates < p.MinCandidates {
		errs = append(errs, fmt.Errorf("sufficient_candidates (%d) must be >= min_candidates (%d)",
			p.SufficientCandidates, p.MinCandidates))
	}
	if p.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("max_results must be >= 1, got %d", p.MaxResults))
	}
	if p.FetchLimit < p.MaxResults {
		errs = append(errs, fmt.Errorf("fetch_limit (%d) must be >= max_results (%d)", p.FetchLimit, p.MaxResults))
	}
	if p.WidenSteps < 0 {
		errs = append(errs, fmt.Errorf("widen_steps must be >= 0, got %d", p.WidenSteps))
	}
	if p.WidenBands < 1 {
		errs = append(errs, fmt.Errorf("widen_bands must be >= 1, got %d", p.WidenBands))
	}
	w := p.Weights
	if w.Hint < 0 || w.ReadingLevel <= w.Hint || w.AgeBand <= w.ReadingLevel || w.Category <= w.AgeBand {
		errs = append(errs, fmt.Errorf(
			"weights must satisfy category > age_band > reading_level > hint >= 0, got %g/%g/%g/%g",
			w.Category, w.AgeBand, w.ReadingLevel, w.Hint))
	}
	return errors.Join(errs...)
}
