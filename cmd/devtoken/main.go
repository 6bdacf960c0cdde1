// Command devtoken mints a bearer token for an existing user id, signed with the local
// JWT_SECRET, so API calls can be made without going through login.
//
//	devtoken -sub 5b0c...-user-id
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/platform/auth/token"
	"github.com/tripsync/tripsync-api/internal/platform/config"
)

func main() {
	sub := flag.String("sub", "", "user id to put in the token subject")
	ttl := flag.Duration("ttl", 0, "override JWT_EXPIRES_IN")
	flag.Parse()

	if strings.TrimSpace(*sub) == "" {
		log.Fatalf("missing -sub")
	}

	_ = godotenv.Load()
	cfg, err := config.LoadAuthConfigFromEnv()
	if err != nil {
		log.Fatalf("invalid auth config: %v", err)
	}
	if *ttl > 0 {
		cfg.TokenTTL = *ttl
	}

	tok, err := token.New(cfg).Issue(context.Background(), domain.UserID(*sub))
	if err != nil {
		log.Fatalf("issue: %v", err)
	}

	now := time.Now().UTC()
	_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
		"token": tok,
		"sub":   *sub,
		"iss":   cfg.Issuer,
		"exp":   now.Add(cfg.TokenTTL).Unix(),
	})
}
