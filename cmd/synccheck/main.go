// Command synccheck is a connectivity probe: it resolves a user's stored
// credential and lists the ad accounts reachable with it, without
// touching any sync state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/meta"
	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/token"
	"github.com/pranamyajainn/stratapilot-sub001/internal/config"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db"
	"github.com/pranamyajainn/stratapilot-sub001/internal/platform"
)

func main() {
	configPath := flag.String("config", "stratapilot.yaml", "path to config file")
	userID := flag.String("user", meta.DefaultUserID, "user id to probe")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	tokens := token.NewManager(database, meta.GetOAuthConfig(""))
	accessToken, err := tokens.GetAccessToken(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ No credential for user %q: %v\n", *userID, err)
		os.Exit(1)
	}
	if tokens.IsExpired(*userID) {
		fmt.Printf("⚠️ Credential for %q is past its expiry; the probe may fail\n", *userID)
	}

	client := platform.NewClient()
	accounts, err := client.GetAdAccounts(context.Background(), accessToken)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Account listing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Token valid, %d ad accounts reachable:\n", len(accounts))
	for _, account := range accounts {
		fmt.Printf("  %s  %s (%s, %s)\n", account.ID, account.Name, account.Currency, account.TimezoneName)
	}
}
