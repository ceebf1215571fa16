package auth

import (
	"context"
	"net/http"

	"github.com/bappa-ai/gateway/internal/api"
)

type contextKey string

const principalKey contextKey = "principal"

// Middleware authenticates the request's bearer credential and stores the
// resulting Principal in the request context.
func Middleware(codec *Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := codec.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				api.HandleError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the authenticated Principal, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
