package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/bappa-ai/gateway/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import
// cycles.
type HandlerSet struct {
	Chat           http.HandlerFunc
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Environment       string
	Version           string
	CORS              cors.Options
	GlobalRateLimiter func(http.Handler) http.Handler
}

type healthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Version     string    `json:"version"`
}

func NewRouter(cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cfg.CORS))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, ErrEndpointNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, ErrEndpointNotFound)
	})

	// No auth, no rate limit on health.
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, healthStatus{
			Status:      "healthy",
			Timestamp:   time.Now().UTC(),
			Environment: cfg.Environment,
			Version:     cfg.Version,
		})
	}
	r.Get("/health", healthHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Pipeline order on chat: origin policy (CORS above), global per-IP
	// limiter, then authentication. The per-principal daily cap lives in
	// the chat handler itself.
	chatRoutes := func(r chi.Router) {
		if cfg.GlobalRateLimiter != nil {
			r.Use(cfg.GlobalRateLimiter)
		}
		if h.AuthMiddleware != nil {
			r.Use(h.AuthMiddleware)
		}
		r.Post("/chat", h.Chat)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler)
		r.Group(chatRoutes)
	})
	// Bare aliases for clients that skip the /api prefix.
	r.Group(chatRoutes)

	return r
}
