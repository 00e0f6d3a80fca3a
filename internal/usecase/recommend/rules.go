package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/response"
	"github.com/kittylit/kittylit/internal/domain/trace"
)

// Rule names, in evaluation order.
const (
	RuleCacheSufficient   = "cache_sufficient"
	RuleDBStrict          = "db_strict"
	RuleMergedSufficient  = "merged_sufficient"
	RuleDBWiden           = "db_widen"
	RuleWidenedSufficient = "widened_sufficient"
	RulePartialMatch      = "partial_match"
	RuleNoSafeMatch       = "no_safe_match"
)

// Pipeline stages that are traced but are not rules.
const (
	StageCacheLookup  = "cache_lookup"
	StageSafetyFilter = "safety_filter"
)

// verdict is the result of one rule evaluation.
type verdict struct {
	fired  bool
	stop   bool
	source string
	count  int
	detail string
}

type rule struct {
	name string
	eval func(ctx context.Context, r *run) (verdict, error)
}

// rules returns the fixed, ordered rule list. The last rule always stops.
func (s *Service) rules() []rule {
	return []rule{
		{name: RuleCacheSufficient, eval: s.cacheSufficient},
		{name: RuleDBStrict, eval: s.dbStrict},
		{name: RuleMergedSufficient, eval: s.mergedSufficient},
		{name: RuleDBWiden, eval: s.dbWiden},
		{name: RuleWidenedSufficient, eval: s.widenedSufficient},
		{name: RulePartialMatch, eval: s.partialMatch},
		{name: RuleNoSafeMatch, eval: s.noSafeMatch},
	}
}

// evaluate runs the rules in order until one stops the pipeline.
func (s *Service) evaluate(ctx context.Context, r *run) error {
	for _, rl := range s.rules() {
		start := time.Now()
		v, err := rl.eval(ctx, r)
		if err != nil {
			r.rule = rl.name
			r.record(ctx, s.sink, stepOf(rl.name, verdict{source: string(candidate.SourceDB), detail: err.Error()}, start))
			return err
		}
		r.record(ctx, s.sink, stepOf(rl.name, v, start))
		if v.stop {
			return nil
		}
	}
	return nil
}

func stepOf(name string, v verdict, start time.Time) trace.Step {
	return trace.Step{
		Rule:    name,
		Fired:   v.fired,
		Source:  v.source,
		Count:   v.count,
		Latency: time.Since(start),
		Detail:  v.detail,
	}
}

func (s *Service) cacheSufficient(_ context.Context, r *run) (verdict, error) {
	n := len(r.cached)
	if n >= s.policy.SufficientCandidates {
		r.choose(r.cached, response.ReasonNone, RuleCacheSufficient)
		return verdict{fired: true, stop: true, source: string(candidate.SourceCache), count: n}, nil
	}
	return verdict{
		source: string(candidate.SourceCache),
		count:  n,
		detail: fmt.Sprintf("%d < %d", n, s.policy.SufficientCandidates),
	}, nil
}

func (s *Service) dbStrict(ctx context.Context, r *run) (verdict, error) {
	r.crit = criteria.Strict(r.q, s.dom, s.policy.FetchLimit)
	found, err := s.fetch(ctx, r, r.crit)
	if err != nil {
		return verdict{}, err
	}
	r.merged = merge(r.cached, found)
	return verdict{
		fired:  true,
		source: string(candidate.SourceDB),
		count:  len(found),
		detail: fmt.Sprintf("merged=%d", len(r.merged)),
	}, nil
}

func (s *Service) mergedSufficient(_ context.Context, r *run) (verdict, error) {
	n := len(r.merged)
	if n >= s.policy.SufficientCandidates {
		r.choose(r.merged, r.cacheReason, RuleMergedSufficient)
		return verdict{fired: true, stop: true, count: n}, nil
	}
	return verdict{count: n, detail: fmt.Sprintf("%d < %d", n, s.policy.SufficientCandidates)}, nil
}

// dbWiden relaxes the criteria one step at a time. The last permitted step, or the
// first step with nothing left to widen, also drops the window bound so that books
// with broad age ranges can still be returned.
func (s *Service) dbWiden(ctx context.Context, r *run) (verdict, error) {
	steps := 0
	for steps < s.policy.WidenSteps && len(r.merged) < s.policy.SufficientCandidates {
		next, ok := r.crit.Widen(s.policy.WidenBands)
		if !ok || steps == s.policy.WidenSteps-1 {
			var released bool
			next, released = next.Unbound()
			ok = ok || released
		}
		if !ok {
			break
		}
		next.Step = r.crit.Step + 1

		found, err := s.fetch(ctx, r, next)
		if err != nil {
			return verdict{}, err
		}
		r.crit = next
		r.merged = merge(r.merged, found)
		steps++
	}
	r.widened = steps > 0

	ages := fmt.Sprintf("%d-%d", r.crit.WindowMin, r.crit.WindowMax)
	if r.crit.Unbounded {
		ages = "any"
	}
	return verdict{
		fired:  r.widened,
		source: string(candidate.SourceDB),
		count:  len(r.merged),
		detail: fmt.Sprintf("steps=%d ages=%s levels=%v", steps, ages, r.crit.ReadingLevels),
	}, nil
}

func (s *Service) widenedSufficient(_ context.Context, r *run) (verdict, error) {
	n := len(r.merged)
	if r.widened && n >= s.policy.SufficientCandidates {
		r.choose(r.merged, response.ReasonWidened, RuleWidenedSufficient)
		return verdict{fired: true, stop: true, count: n}, nil
	}
	return verdict{count: n}, nil
}

func (s *Service) partialMatch(_ context.Context, r *run) (verdict, error) {
	n := len(r.merged)
	if n >= s.policy.MinCandidates {
		r.choose(r.merged, response.ReasonBelowThreshold, RulePartialMatch)
		return verdict{fired: true, stop: true, count: n}, nil
	}
	return verdict{count: n, detail: fmt.Sprintf("%d < %d", n, s.policy.MinCandidates)}, nil
}

func (s *Service) noSafeMatch(_ context.Context, r *run) (verdict, error) {
	r.choose(nil, response.ReasonNoSafeMatch, RuleNoSafeMatch)
	return verdict{fired: true, stop: true, detail: domain.ErrNoSafeMatch.Error()}, nil
}

// fetch queries the book store and accounts the latency and row count to the db stage.
func (s *Service) fetch(ctx context.Context, r *run, c criteria.Criteria) ([]candidate.Candidate, error) {
	start := time.Now()
	books, err := s.store.Query(ctx, c)
	r.addLatency(StageDatabase, time.Since(start))
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			return nil, err
		}
		return nil, domain.NewDataUnavailable(StageDatabase, err)
	}
	r.counts[countDB] += len(books)
	return candidate.FromBooks(books, candidate.SourceDB), nil
}
