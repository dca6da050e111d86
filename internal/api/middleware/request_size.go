package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize is 1MB for public endpoints.
	DefaultMaxBodySize int64 = 1 << 20

	// AdminMaxBodySize is 5MB for admin endpoints.
	AdminMaxBodySize int64 = 5 << 20
)

// RequestSize caps request bodies via http.MaxBytesReader. Oversized
// bodies surface as 413 when the handler reads them.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// PublicRequestSize limits request bodies to 1MB for public endpoints.
func PublicRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}

// AdminRequestSize limits request bodies to 5MB for admin endpoints.
func AdminRequestSize() func(http.Handler) http.Handler {
	return RequestSize(AdminMaxBodySize)
}
