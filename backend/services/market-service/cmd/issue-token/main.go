// Command issue-token prints a bearer token for a wallet address, signed with
// the market service's JWT secret. Intended for local development and the
// settlement worker.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"arbigrid/backend/services/market-service/internal/auth"
	"arbigrid/backend/services/market-service/internal/config"
)

func main() {
	wallet := flag.String("address", "", "wallet address (0x-prefixed, 20 bytes)")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to jwt.tokenTTL)")
	flag.Parse()

	if *wallet == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lifetime := cfg.JWT.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.NewTokenService(cfg.JWT.Secret, lifetime).GenerateToken(*wallet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).UTC().Format(time.RFC3339))
}
