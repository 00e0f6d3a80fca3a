package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	bearerPrefix = "Bearer "
	apiKeyHeader = "X-API-Key"
)

// publicPaths bypass authentication: health checks, scraping and the form options.
var publicPaths = map[string]struct{}{
	"/health":     {},
	"/metrics":    {},
	"/v1/options": {},
}

// APIKeyAuth accepts a key either as a Bearer token or in the X-API-Key header.
// Keys are compared as SHA-256 digests in constant time.
// With no non-empty keys configured, authentication is disabled.
func APIKeyAuth(apiKeys []string) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key, msg := presentedKey(r)
			if msg == "" && !knownKey(digests, key) {
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="kittylit"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey extracts the client key; a non-empty message explains a rejection.
func presentedKey(r *http.Request) (key, msg string) {
	if k := r.Header.Get(apiKeyHeader); k != "" {
		return k, ""
	}
	auth := r.Header.Get("Authorization")
	switch {
	case auth == "":
		return "", "missing api key"
	case !strings.HasPrefix(auth, bearerPrefix):
		return "", "authorization header must use Bearer scheme"
	}
	return strings.TrimPrefix(auth, bearerPrefix), ""
}

func knownKey(digests [][sha256.Size]byte, key string) bool {
	d := sha256.Sum256([]byte(key))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(digests[i][:], d[:])
	}
	return found == 1
}
