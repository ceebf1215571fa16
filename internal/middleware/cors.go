package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// defaultDevOrigins are always allowed so local frontends work without any
// configuration.
var defaultDevOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:5175",
	"http://localhost:3000",
}

// OriginPolicy decides which Origin values may make credentialed
// cross-origin calls: the fixed development origins plus the configured
// production origins, exact match only.
type OriginPolicy struct {
	allowed map[string]struct{}
}

func NewOriginPolicy(productionOrigins []string) *OriginPolicy {
	allowed := make(map[string]struct{}, len(defaultDevOrigins)+len(productionOrigins))
	for _, o := range defaultDevOrigins {
		allowed[o] = struct{}{}
	}
	for _, o := range productionOrigins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return &OriginPolicy{allowed: allowed}
}

// Allowed reports whether origin may receive cross-origin response headers.
// An empty origin (curl, server-to-server) is allowed on purpose: the policy
// only gates browsers. A deny withholds the CORS headers and lets the
// browser enforce it; it is never a hard error.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// CORS returns cors.Options wired to the origin policy. Methods and headers
// are restricted to what the chat API actually uses.
func CORS(policy *OriginPolicy) cors.Options {
	return cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return policy.Allowed(origin)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
