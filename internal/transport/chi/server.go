package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/domain/response"
	healthuc "github.com/kittylit/kittylit/internal/usecase/health"
)

// maxBodyBytes bounds the recommendation request body.
const maxBodyBytes = 16 << 10

// queryParams is the enumerated parameter set of GET /v1/recommendations.
var queryParams = map[string]struct{}{
	"age":           {},
	"genre":         {},
	"reading_level": {},
	"hint":          {},
}

// Recommender answers validated queries.
type Recommender interface {
	Recommend(ctx context.Context, q query.Query) (response.Response, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the recommendation HTTP API.
type Server struct {
	recommender   Recommender
	normalizer    *query.Normalizer
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommender Recommender,
	normalizer *query.Normalizer,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommender: recommender,
		normalizer:  normalizer,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrDataUnavailable,
			http.StatusServiceUnavailable, ErrorCodeServiceDegraded, response.MessageDegraded),
	}
	return s
}

// PostRecommendations handles POST /v1/recommendations.
func (s *Server) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	s.recommend(w, r, rawFromRequest(&req))
}

// GetRecommendations handles GET /v1/recommendations.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	params, err := bindRecommendationParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	s.recommend(w, r, rawFromParams(&params))
}

// GetOptions handles GET /v1/options.
func (s *Server) GetOptions(w http.ResponseWriter, _ *http.Request) {
	d := s.normalizer.Domain()
	writeJSON(w, http.StatusOK, optionsToAPI(&d))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request, raw query.Raw) {
	q, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.recommender.Recommend(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responseToAPI(&resp))
}

func bindRecommendationParams(values url.Values) (RecommendationParams, error) {
	var p RecommendationParams
	for name := range values {
		if _, ok := queryParams[name]; !ok {
			return p, fmt.Errorf("unknown query parameter %q", name)
		}
	}
	if err := runtime.BindQueryParameter("form", true, false, "age", values, &p.Age); err != nil {
		return p, fmt.Errorf("invalid format for parameter age: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "genre", values, &p.Genre); err != nil {
		return p, fmt.Errorf("invalid format for parameter genre: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "reading_level", values, &p.ReadingLevel); err != nil {
		return p, fmt.Errorf("invalid format for parameter reading_level: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "hint", values, &p.Hint); err != nil {
		return p, fmt.Errorf("invalid format for parameter hint: %w", err)
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler reports every rejected field with its corrective message.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    ErrorCodeValidationFailed,
		Message: ve.Error(),
		Fields:  fieldErrorsToAPI(ve.Fields),
	})
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// msg is sent instead of the error text so internals never reach the client.
func sentinelHandler(sentinel error, status int, code ErrorCode, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
