package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/itchan-dev/askchan/shared/middleware/metrics"
)

const InboundSecretHeader = "X-Inbound-Secret"

// SharedSecret rejects requests whose header doesn't carry the configured secret.
// It has to run before anything that reads the body or spends a rate limit.
func SharedSecret(header, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" || secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				metrics.Reject(metrics.ReasonSecret)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize caps the request body, reads past n bytes fail.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
