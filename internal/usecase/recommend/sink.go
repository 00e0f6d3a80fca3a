package recommend

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/domain/response"
	"github.com/kittylit/kittylit/internal/logger"
	"github.com/kittylit/kittylit/internal/metrics"
)

// rejectedCountPrefix prefixes per-reason safety rejection counts in response metadata.
const rejectedCountPrefix = "rejected_"

// LogSink writes every decision as a structured log event and updates pipeline metrics.
// The request logger from the context is preferred over the fallback logger.
type LogSink struct {
	fallback *zap.Logger
}

// NewLogSink creates a sink logging through l when the context carries no logger.
func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{fallback: l}
}

// Decision logs one decision point.
func (s *LogSink) Decision(ctx context.Context, e Event) {
	metrics.DecisionsTotal.WithLabelValues(e.Step.Rule, strconv.FormatBool(e.Step.Fired)).Inc()
	if e.Step.Latency > 0 {
		metrics.StageDuration.WithLabelValues(e.Step.Rule).Observe(e.Step.Latency.Seconds())
	}

	s.logger(ctx).Info("decision",
		zap.String("rule", e.Step.Rule),
		zap.Bool("fired", e.Step.Fired),
		zap.String("source", e.Step.Source),
		zap.Int("count", e.Step.Count),
		zap.Duration("latency", e.Step.Latency),
		zap.String("detail", e.Step.Detail),
		zap.String("query_hash", e.QueryHash),
		zap.String("correlation_id", e.CorrelationID),
	)
}

// Completed logs the outcome of one request.
func (s *LogSink) Completed(ctx context.Context, resp *response.Response) {
	metrics.ResponsesTotal.WithLabelValues(string(resp.Explanation.FallbackReason)).Inc()
	for k, n := range resp.Metadata.Counts {
		if reason, ok := strings.CutPrefix(k, rejectedCountPrefix); ok && n > 0 {
			metrics.SafetyRejectionsTotal.WithLabelValues(reason).Add(float64(n))
		}
	}

	s.logger(ctx).Info("recommendation",
		zap.String("fallback_reason", string(resp.Explanation.FallbackReason)),
		zap.String("rule", resp.Explanation.Rule),
		zap.Float64("confidence", resp.Explanation.Confidence),
		zap.Int("returned", len(resp.Candidates)),
		zap.Strings("warnings", resp.Explanation.Warnings),
		zap.Any("counts", resp.Metadata.Counts),
		zap.Any("latencies_ms", resp.Metadata.LatenciesMS),
		zap.String("query_hash", resp.Metadata.QueryHash),
		zap.String("correlation_id", resp.Metadata.CorrelationID),
	)
}

func (s *LogSink) logger(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.fallback)
}
