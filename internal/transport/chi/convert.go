package chi

import (
	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/domain/response"
)

func rawFromRequest(req *RecommendationRequest) query.Raw {
	return query.Raw{Age: req.Age, Genre: req.Genre, ReadingLevel: req.ReadingLevel, Hint: req.Hint}
}

func rawFromParams(p *RecommendationParams) query.Raw {
	return query.Raw{
		Age:          p.Age,
		Genre:        deref(p.Genre),
		ReadingLevel: deref(p.ReadingLevel),
		Hint:         deref(p.Hint),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func responseToAPI(r *response.Response) RecommendationResponse {
	candidates := make([]Candidate, len(r.Candidates))
	for i, it := range r.Candidates {
		candidates[i] = Candidate{
			ID:     it.ID,
			Title:  it.Title,
			Author: it.Author,
			Score:  it.Score,
			Source: string(it.Source),
		}
	}

	steps := make([]TraceStep, len(r.Metadata.Trace))
	for i, s := range r.Metadata.Trace {
		steps[i] = TraceStep{
			Rule:      s.Rule,
			Fired:     s.Fired,
			Source:    s.Source,
			Count:     s.Count,
			LatencyMS: float64(s.Latency.Microseconds()) / 1000,
			Detail:    s.Detail,
		}
	}

	warnings := r.Explanation.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return RecommendationResponse{
		Candidates: candidates,
		Explanation: Explanation{
			FallbackReason: string(r.Explanation.FallbackReason),
			Confidence:     r.Explanation.Confidence,
			Rule:           r.Explanation.Rule,
			Message:        r.Explanation.Message,
			Warnings:       warnings,
		},
		Metadata: Metadata{
			QueryHash:     r.Metadata.QueryHash,
			CorrelationID: r.Metadata.CorrelationID,
			DecisionTrace: steps,
			LatenciesMS:   r.Metadata.LatenciesMS,
			Counts:        r.Metadata.Counts,
		},
	}
}

func optionsToAPI(d *query.Domain) OptionsResponse {
	bands := make([]AgeBand, len(d.Bands))
	for i, b := range d.Bands {
		bands[i] = AgeBand{Min: b.Min, Max: b.Max}
	}
	return OptionsResponse{
		MinAge:        d.MinAge,
		MaxAge:        d.MaxAge,
		Genres:        d.Genres,
		ReadingLevels: d.ReadingLevels,
		AgeBands:      bands,
		MaxHintLength: d.MaxHintLength,
	}
}

func fieldErrorsToAPI(fe []domain.FieldError) []FieldError {
	out := make([]FieldError, len(fe))
	for i, f := range fe {
		out[i] = FieldError{Field: f.Field, Message: f.Message}
	}
	return out
}
