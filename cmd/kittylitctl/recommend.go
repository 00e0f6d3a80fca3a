package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/app"
	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/domain/response"
)

var (
	recAge   int
	recGenre string
	recLevel string
	recHint  string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run one query through the full pipeline and print the response",
	Example: `  kittylitctl recommend --age 7 --genre fantasy --level beginner
  kittylitctl recommend --age 10 --genre mystery --level intermediate --hint detectives`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVar(&recAge, "age", 0, "Reader age in years")
	recommendCmd.Flags().StringVar(&recGenre, "genre", "", "Genre")
	recommendCmd.Flags().StringVar(&recLevel, "level", "", "Reading level")
	recommendCmd.Flags().StringVar(&recHint, "hint", "", "Optional free-text hint")
	_ = recommendCmd.MarkFlagRequired("age")
	_ = recommendCmd.MarkFlagRequired("genre")
	_ = recommendCmd.MarkFlagRequired("level")
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	svc, err := app.Build(&s.cfg, s.stores, s.logger)
	if err != nil {
		return err
	}
	if err := svc.LoadCache(ctx); err != nil {
		s.logger.Warn("Cache load failed, querying the book store only", zap.Error(err))
	}

	age := recAge
	q, err := svc.Normalizer.Normalize(query.Raw{Age: &age, Genre: recGenre, ReadingLevel: recLevel, Hint: recHint})
	if err != nil {
		return err
	}

	ctx = domain.WithCorrelationID(ctx, "cli")
	resp, err := svc.Recommender.Recommend(ctx, q)
	if err != nil && !errors.Is(err, domain.ErrDataUnavailable) {
		return err
	}

	out, mErr := json.MarshalIndent(cliResponse(&resp), "", "  ")
	if mErr != nil {
		return fmt.Errorf("encode response: %w", mErr)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// cliResponse renders a response with snake_case keys matching the HTTP API.
func cliResponse(r *response.Response) map[string]any {
	candidates := make([]map[string]any, len(r.Candidates))
	for i, c := range r.Candidates {
		candidates[i] = map[string]any{
			"id": c.ID, "title": c.Title, "author": c.Author, "score": c.Score, "source": c.Source,
		}
	}
	trace := make([]map[string]any, len(r.Metadata.Trace))
	for i, s := range r.Metadata.Trace {
		trace[i] = map[string]any{
			"rule": s.Rule, "fired": s.Fired, "count": s.Count, "detail": s.Detail,
		}
	}
	return map[string]any{
		"candidates": candidates,
		"explanation": map[string]any{
			"fallback_reason": r.Explanation.FallbackReason,
			"confidence":      r.Explanation.Confidence,
			"rule":            r.Explanation.Rule,
			"message":         r.Explanation.Message,
			"warnings":        r.Explanation.Warnings,
		},
		"metadata": map[string]any{
			"query_hash":     r.Metadata.QueryHash,
			"correlation_id": r.Metadata.CorrelationID,
			"decision_trace": trace,
			"latencies_ms":   r.Metadata.LatenciesMS,
			"counts":         r.Metadata.Counts,
		},
	}
}
