// mktoken mints a signed bearer token for local testing:
//
//	JWT_SECRET=... go run ./cmd/mktoken -user 550e8400-e29b-41d4-a716-446655440000
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/bappa-ai/gateway/internal/auth"
	"github.com/bappa-ai/gateway/internal/config"
)

func main() {
	userID := flag.String("user", "", "user id (uuid); generated when empty")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		os.Exit(1)
	}
	if cfg.Auth.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	id := *userID
	if id == "" {
		id = uuid.NewString()
	}

	token, err := auth.NewCodec(cfg.Auth.Secret, *ttl).Issue(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issuing token:", err)
		os.Exit(1)
	}

	fmt.Println("user:", id)
	fmt.Println("token:", token)
}
