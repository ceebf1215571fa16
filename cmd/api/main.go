package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bappa-ai/gateway/internal/api"
	"github.com/bappa-ai/gateway/internal/auth"
	"github.com/bappa-ai/gateway/internal/chat"
	"github.com/bappa-ai/gateway/internal/completion"
	"github.com/bappa-ai/gateway/internal/config"
	"github.com/bappa-ai/gateway/internal/events"
	"github.com/bappa-ai/gateway/internal/history"
	"github.com/bappa-ai/gateway/internal/middleware"
	"github.com/bappa-ai/gateway/internal/quota"
	iredis "github.com/bappa-ai/gateway/internal/redis"
	"github.com/bappa-ai/gateway/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("validating config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Quota store: shared Redis counters when configured, in-process
	// otherwise.
	var store quota.Store = quota.NewMemoryStore()
	deps := chat.Deps{}
	if cfg.Redis.Enabled {
		redisClient, err := iredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("connecting to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		store = quota.NewRedisStore(redisClient)
		deps.History = history.NewStore(redisClient, 50, 24*time.Hour)
	}

	globalLimiter := quota.NewLimiter(store, cfg.Limits.GlobalMax, cfg.Limits.GlobalWindow)
	dailyLimiter := quota.NewLimiter(store, cfg.Limits.DailyMax, cfg.Limits.DailyWindow)

	// Usage events are optional; chat works without NATS.
	if cfg.NATS.URL != "" {
		usage, err := events.NewClient(ctx, cfg.NATS.URL)
		if err != nil {
			slog.Warn("usage events disabled", "error", err)
		} else {
			defer usage.Close()
			deps.Usage = usage
		}
	}

	codec := auth.NewCodec(cfg.Auth.Secret, cfg.Auth.TokenExpiry)

	deps.Completions = completion.NewClient(cfg.Provider.APIKey, cfg.Provider.BaseURL, cfg.Provider.Model)
	deps.Daily = dailyLimiter
	chatHandler := chat.NewHandler(deps)

	policy := middleware.NewOriginPolicy(cfg.CORS.AllowedOrigins)

	router := api.NewRouter(api.RouterConfig{
		Environment:       cfg.Environment,
		Version:           config.Version,
		CORS:              middleware.CORS(policy),
		GlobalRateLimiter: middleware.RateLimit(globalLimiter),
	}, api.HandlerSet{
		Chat:           chatHandler.Chat,
		AuthMiddleware: auth.Middleware(codec),
	})

	srv := server.New(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
