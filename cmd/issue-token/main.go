package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go-stock-ledger/internal/config"
	"go-stock-ledger/pkg/jwt"

	"github.com/google/uuid"
)

// Prints a signed token for local development, e.g.
//
//	go run ./cmd/issue-token -user 2f1c... -shop "Toko Ayu"
func main() {
	userFlag := flag.String("user", "", "user id (a new one is generated when empty)")
	name := flag.String("name", "", "display name")
	shop := flag.String("shop", "", "shop name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("❌ Invalid user id %q: %v", *userFlag, err)
		}
		userID = parsed
	}

	token, err := jwt.GenerateToken([]byte(cfg.JWTSecret), userID, *name, *shop, *ttl)
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}

	log.Printf("✅ Token for user %s (expires in %s)", userID, *ttl)
	fmt.Println(token)
}
