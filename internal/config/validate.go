package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all problems into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Auth.Secret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters")
	}
	if c.Provider.APIKey == "" {
		errs = append(errs, "GROQ_API_KEY is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.Redis.Enabled && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}
	if c.Limits.GlobalMax < 1 || c.Limits.DailyMax < 1 {
		errs = append(errs, "rate limit maximums must be positive")
	}
	if c.Limits.GlobalWindow <= 0 || c.Limits.DailyWindow <= 0 {
		errs = append(errs, "rate limit windows must be positive")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
