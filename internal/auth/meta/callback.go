package meta

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/token"
	"gorm.io/gorm"
)

// AccountDiscoverer lists and stores the user's ad accounts right after
// authentication, before any sync occurs.
type AccountDiscoverer interface {
	DiscoverAccounts(ctx context.Context, userID string) (int, error)
}

// HandleCallback processes the OAuth callback from Meta: validates the
// CSRF state, exchanges the code, upgrades to a long-lived token, stores
// the credential and discovers the user's ad accounts.
func HandleCallback(database *gorm.DB, discoverer AccountDiscoverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stateFromCookie, err := r.Cookie(stateCookie)
		if err != nil || r.URL.Query().Get("state") != stateFromCookie.Value {
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}

		userID := DefaultUserID
		if c, err := r.Cookie(userCookie); err == nil && c.Value != "" {
			userID = c.Value
		}

		manager := token.NewManager(database, GetOAuthConfig(redirectURLFor(r)))

		code := r.URL.Query().Get("code")
		tok, err := manager.ExchangeCode(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		shortExpiry := time.Until(tok.Expiry)
		if shortExpiry <= 0 {
			shortExpiry = time.Hour
		}
		accessToken, expiry := manager.UpgradeToLongLived(r.Context(), tok.AccessToken, shortExpiry)

		if err := manager.Store(userID, accessToken, expiry); err != nil {
			http.Error(w, fmt.Sprintf("Failed to save credential: %v", err), http.StatusInternalServerError)
			return
		}

		discovered, err := discoverer.DiscoverAccounts(r.Context(), userID)
		if err != nil {
			// The credential is already stored; discovery can be retried
			// from the accounts endpoint.
			log.Printf("⚠️ Account discovery failed for %s: %v", userID, err)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Connected</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; background: #1a1a2e; color: #eee; }
		.success { color: #4ade80; }
	</style>
</head>
<body>
	<h1 class="success">✅ Meta account connected</h1>
	<p><strong>User:</strong> %s</p>
	<p><strong>Ad accounts discovered:</strong> %d</p>
</body>
</html>`, userID, discovered)
	}
}
