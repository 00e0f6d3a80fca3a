package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	for name, keys := range map[string][]string{"nil": nil, "blank": {"", ""}} {
		t.Run(name, func(t *testing.T) {
			handler := APIKeyAuth(keys)(okHandler())

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/recommendations", http.NoBody))

			if rr.Code != http.StatusOK {
				t.Errorf("got %d, want %d", rr.Code, http.StatusOK)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth([]string{"key1", "key2"})(okHandler())

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantMsg    string
	}{
		{"missing", "", "", http.StatusUnauthorized, "missing api key"},
		{"basic scheme", "Authorization", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "authorization header must use Bearer scheme"},
		{"wrong bearer", "Authorization", "Bearer nope", http.StatusUnauthorized, "invalid api key"},
		{"wrong header key", apiKeyHeader, "nope", http.StatusUnauthorized, "invalid api key"},
		{"bearer key1", "Authorization", "Bearer key1", http.StatusOK, ""},
		{"bearer key2", "Authorization", "Bearer key2", http.StatusOK, ""},
		{"header key", apiKeyHeader, "key2", http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/recommendations", http.NoBody)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("got %d, want %d", rr.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK {
				return
			}

			if got := rr.Header().Get("WWW-Authenticate"); got == "" {
				t.Error("expected WWW-Authenticate header")
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != ErrorCodeUnauthorized || errResp.Message != tc.wantMsg {
				t.Errorf("got %s %q, want %s %q", errResp.Code, errResp.Message, ErrorCodeUnauthorized, tc.wantMsg)
			}
		})
	}
}

func TestAPIKeyAuth_PublicPaths(t *testing.T) {
	handler := APIKeyAuth([]string{"secret"})(okHandler())

	for _, path := range []string{"/health", "/metrics", "/v1/options"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))

		if rr.Code != http.StatusOK {
			t.Errorf("public path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}
