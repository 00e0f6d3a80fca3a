package chi

// ErrorCode is the machine-readable error code of an error response.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeServiceDegraded  ErrorCode = "service_degraded"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError names one rejected query field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RecommendationRequest is the JSON body of POST /v1/recommendations.
type RecommendationRequest struct {
	Age          *int   `json:"age"`
	Genre        string `json:"genre"`
	ReadingLevel string `json:"reading_level"`
	Hint         string `json:"hint,omitempty"`
}

// RecommendationParams are the query parameters of GET /v1/recommendations.
type RecommendationParams struct {
	Age          *int    `form:"age,omitempty" json:"age,omitempty"`
	Genre        *string `form:"genre,omitempty" json:"genre,omitempty"`
	ReadingLevel *string `form:"reading_level,omitempty" json:"reading_level,omitempty"`
	Hint         *string `form:"hint,omitempty" json:"hint,omitempty"`
}

// RecommendationResponse is the body of a successful recommendation call.
type RecommendationResponse struct {
	Candidates  []Candidate `json:"candidates"`
	Explanation Explanation `json:"explanation"`
	Metadata    Metadata    `json:"metadata"`
}

// Candidate is one recommended book.
type Candidate struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Explanation is the end-user explainability block.
type Explanation struct {
	FallbackReason string   `json:"fallback_reason"`
	Confidence     float64  `json:"confidence"`
	Rule           string   `json:"rule"`
	Message        string   `json:"message"`
	Warnings       []string `json:"warnings"`
}

// Metadata is the developer-facing block.
type Metadata struct {
	QueryHash     string             `json:"query_hash"`
	CorrelationID string             `json:"correlation_id"`
	DecisionTrace []TraceStep        `json:"decision_trace"`
	LatenciesMS   map[string]float64 `json:"latencies_ms"`
	Counts        map[string]int     `json:"counts"`
}

// TraceStep is one evaluated rule or pipeline stage.
type TraceStep struct {
	Rule      string  `json:"rule"`
	Fired     bool    `json:"fired"`
	Source    string  `json:"source,omitempty"`
	Count     int     `json:"count"`
	LatencyMS float64 `json:"latency_ms"`
	Detail    string  `json:"detail,omitempty"`
}

// OptionsResponse enumerates the accepted query values, for building forms.
type OptionsResponse struct {
	MinAge        int       `json:"min_age"`
	MaxAge        int       `json:"max_age"`
	Genres        []string  `json:"genres"`
	ReadingLevels []string  `json:"reading_levels"`
	AgeBands      []AgeBand `json:"age_bands"`
	MaxHintLength int       `json:"max_hint_length"`
}

// AgeBand is an inclusive age range.
type AgeBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
