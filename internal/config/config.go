package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

type Config struct {
	Server      ServerConfig
	Auth        AuthConfig
	Provider    ProviderConfig
	CORS        CORSConfig
	Limits      LimitsConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Log         LogConfig
	Environment string
}

type ServerConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	// Secret signs and verifies bearer tokens (HS256).
	Secret string
	// TokenExpiry is the lifetime of tokens minted by this process.
	TokenExpiry time.Duration
}

type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type CORSConfig struct {
	// AllowedOrigins are the production origins added on top of the fixed
	// development origins. Parsed from a comma-separated FRONTEND_URL.
	AllowedOrigins []string
}

type LimitsConfig struct {
	GlobalMax    int
	GlobalWindow time.Duration
	DailyMax     int
	DailyWindow  time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	// URL of the NATS server for usage events. Empty disables publishing.
	URL string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration once at process start: a .env file when present,
// then environment variables on top. There is no hot reload.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Environment variables override .env
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("port"),
		},
		Auth: AuthConfig{
			Secret: k.String("jwt.secret"),
		},
		Provider: ProviderConfig{
			APIKey:  k.String("groq.api.key"),
			BaseURL: k.String("groq.base.url"),
			Model:   k.String("groq.model"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitOrigins(k.String("frontend.url")),
		},
		Limits: LimitsConfig{
			GlobalMax: k.Int("limits.global.max"),
			DailyMax:  k.Int("limits.daily.max"),
		},
		Redis: RedisConfig{
			Enabled:  k.Bool("redis.enabled"),
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
		Environment: k.String("environment"),
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Limits.GlobalMax == 0 {
		cfg.Limits.GlobalMax = 100
	}
	if cfg.Limits.DailyMax == 0 {
		cfg.Limits.DailyMax = 5
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Parse durations
	cfg.Auth.TokenExpiry, err = parseDuration(k.String("jwt.expiry"), "24h")
	if err != nil {
		return nil, fmt.Errorf("parsing jwt expiry: %w", err)
	}
	cfg.Limits.GlobalWindow, err = parseDuration(k.String("limits.global.window"), "15m")
	if err != nil {
		return nil, fmt.Errorf("parsing global rate window: %w", err)
	}
	cfg.Limits.DailyWindow, err = parseDuration(k.String("limits.daily.window"), "24h")
	if err != nil {
		return nil, fmt.Errorf("parsing daily rate window: %w", err)
	}

	return cfg, nil
}

func parseDuration(s, fallback string) (time.Duration, error) {
	if s == "" {
		s = fallback
	}
	return time.ParseDuration(s)
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
