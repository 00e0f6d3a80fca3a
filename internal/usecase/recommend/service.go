package recommend

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/lookup"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/domain/response"
	"github.com/kittylit/kittylit/internal/domain/safety"
	"github.com/kittylit/kittylit/internal/domain/trace"
)

// Count keys reported in response metadata.
const (
	countCache    = "cache"
	countDB       = "db"
	countMerged   = "merged"
	countFiltered = "filtered"
	countReturned = "returned"
)

// Latency keys reported in response metadata, besides StageDatabase.
const (
	latencyCache  = "cache"
	latencyRank   = "rank"
	latencySafety = "safety"
	latencyTotal  = "total"
)

var messages = map[response.FallbackReason]string{
	response.ReasonNone:              "recommendations served from the curated cache",
	response.ReasonCacheMiss:         "recommendations served from the catalogue",
	response.ReasonCacheInsufficient: "recommendations served from the catalogue",
	response.ReasonCacheIntegrity:    "recommendations served from the catalogue",
	response.ReasonCacheStale:        "recommendations served from the catalogue",
	response.ReasonWidened:           "recommendations include neighbouring age bands and reading levels",
	response.ReasonBelowThreshold:    "fewer matches than usual, showing the closest safe books",
	response.ReasonNoSafeMatch:       response.MessageNoSafeMatch,
	response.ReasonDataUnavailable:   response.MessageDegraded,
}

// Service orchestrates cache lookup, book store fallback, rule evaluation, ranking and
// the safety filter for one query at a time. It holds no per-request state.
type Service struct {
	cache  Cache
	store  BookStore
	dom    query.Domain
	policy Policy
	safety safety.Ruleset
	rank   ranker
	sink   DecisionSink
	logger *zap.Logger
}

// New creates a recommendation service. policy must already be validated.
func New(
	cache Cache, store BookStore, dom query.Domain, policy Policy,
	rules safety.Ruleset, sink DecisionSink, logger *zap.Logger,
) *Service {
	return &Service{
		cache:  cache,
		store:  store,
		dom:    dom,
		policy: policy,
		safety: rules,
		rank:   ranker{weights: policy.Weights, dom: dom},
		sink:   sink,
		logger: logger,
	}
}

// Recommend answers a validated query. The no-safe-match outcome is a response, not an
// error. When the book store is unavailable the returned response is the degraded one
// and the error wraps domain.ErrDataUnavailable.
func (s *Service) Recommend(ctx context.Context, q query.Query) (response.Response, error) {
	start := time.Now()
	r := newRun(ctx, &q)

	res := s.cache.Lookup(q.Key())
	r.addLatency(latencyCache, time.Since(start))
	r.cached = res.Candidates
	r.cacheReason = cacheReason(res)
	r.counts[countCache] = len(res.Candidates)
	if res.Warning != nil {
		r.warnings = append(r.warnings, fmt.Sprintf("cache_integrity:%s", res.Warning.Key))
	}
	r.record(ctx, s.sink, trace.Step{
		Rule:    StageCacheLookup,
		Fired:   res.Outcome == lookup.Hit,
		Source:  string(candidate.SourceCache),
		Count:   len(res.Candidates),
		Latency: time.Since(start),
		Detail:  string(res.Outcome),
	})

	if err := s.evaluate(ctx, r); err != nil {
		resp := r.degraded(start)
		s.sink.Completed(ctx, &resp)
		s.logger.Warn("Book store unavailable, returning degraded response",
			zap.String("rule", r.rule),
			zap.String("correlation_id", r.corrID),
			zap.Error(err),
		)
		return resp, fmt.Errorf("recommend: %w", err)
	}

	r.counts[countMerged] = len(r.selected)

	rankStart := time.Now()
	ranked := s.rank.rank(r.q, r.selected)
	r.addLatency(latencyRank, time.Since(rankStart))

	safetyStart := time.Now()
	kept, rejected := applySafety(s.safety, q.Age(), ranked)
	r.addLatency(latencySafety, time.Since(safetyStart))
	r.counts[countFiltered] = len(ranked) - len(kept)
	for reason, n := range rejected {
		r.counts[rejectedCountPrefix+string(reason)] = n
	}
	r.record(ctx, s.sink, trace.Step{
		Rule:    StageSafetyFilter,
		Fired:   len(kept) < len(ranked),
		Count:   len(kept),
		Latency: time.Since(safetyStart),
		Detail:  fmt.Sprintf("rejected=%d", len(ranked)-len(kept)),
	})

	if len(kept) == 0 && r.reason != response.ReasonNoSafeMatch {
		r.reason = response.ReasonNoSafeMatch
		r.rule = StageSafetyFilter
	}
	if len(kept) > s.policy.MaxResults {
		kept = kept[:s.policy.MaxResults]
	}

	resp := r.respond(kept, s.confidence(kept), start)
	s.sink.Completed(ctx, &resp)
	return resp, nil
}

func (s *Service) confidence(kept []candidate.Candidate) float64 {
	maxScore := s.policy.Weights.Max()
	if len(kept) == 0 || maxScore <= 0 {
		return 0
	}
	return round3(math.Min(kept[0].Score()/maxScore, 1))
}

func cacheReason(res lookup.Result) response.FallbackReason {
	switch res.Outcome {
	case lookup.Hit:
		return response.ReasonCacheInsufficient
	case lookup.Stale:
		return response.ReasonCacheStale
	case lookup.Corrupt:
		return response.ReasonCacheIntegrity
	default:
		return response.ReasonCacheMiss
	}
}

// run is the per-request state of one Recommend call.
type run struct {
	q      *query.Query
	hash   string
	corrID string

	cached      []candidate.Candidate
	cacheReason response.FallbackReason
	merged      []candidate.Candidate
	crit        criteria.Criteria
	widened     bool

	selected []candidate.Candidate
	reason   response.FallbackReason
	rule     string

	warnings  []string
	trace     trace.Trace
	latencies map[string]time.Duration
	counts    map[string]int
}

func newRun(ctx context.Context, q *query.Query) *run {
	return &run{
		q:         q,
		hash:      q.Hash(),
		corrID:    domain.CorrelationIDFromContext(ctx),
		latencies: make(map[string]time.Duration),
		counts: map[string]int{
			countCache:    0,
			countDB:       0,
			countMerged:   0,
			countFiltered: 0,
			countReturned: 0,
		},
	}
}

func (r *run) choose(cs []candidate.Candidate, reason response.FallbackReason, rule string) {
	r.selected = cs
	r.reason = reason
	r.rule = rule
}

func (r *run) addLatency(stage string, d time.Duration) {
	r.latencies[stage] += d
}

func (r *run) record(ctx context.Context, sink DecisionSink, step trace.Step) {
	r.trace.Add(step)
	sink.Decision(ctx, Event{QueryHash: r.hash, CorrelationID: r.corrID, Step: step})
}

func (r *run) respond(kept []candidate.Candidate, confidence float64, start time.Time) response.Response {
	r.counts[countReturned] = len(kept)
	return response.Response{
		Candidates: response.FromCandidates(kept),
		Explanation: response.Explanation{
			FallbackReason: r.reason,
			Confidence:     confidence,
			Rule:           r.rule,
			Message:        messages[r.reason],
			Warnings:       r.warnings,
		},
		Metadata: r.metadata(start),
	}
}

func (r *run) degraded(start time.Time) response.Response {
	r.reason = response.ReasonDataUnavailable
	r.counts[countReturned] = 0
	return response.Response{
		Candidates: []response.Item{},
		Explanation: response.Explanation{
			FallbackReason: response.ReasonDataUnavailable,
			Rule:           r.rule,
			Message:        response.MessageDegraded,
			Warnings:       r.warnings,
		},
		Metadata: r.metadata(start),
	}
}

func (r *run) metadata(start time.Time) response.Metadata {
	r.addLatency(latencyTotal, time.Since(start))
	ms := make(map[string]float64, len(r.latencies))
	for k, d := range r.latencies {
		ms[k] = float64(d.Microseconds()) / 1000
	}
	return response.Metadata{
		QueryHash:     r.hash,
		CorrelationID: r.corrID,
		Trace:         r.trace.Steps(),
		LatenciesMS:   ms,
		Counts:        r.counts,
	}
}
