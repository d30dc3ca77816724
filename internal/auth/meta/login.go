package meta

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

const (
	stateCookie = "sp_oauth_state"
	userCookie  = "sp_oauth_user"

	// DefaultUserID is used when the login request does not name a user.
	DefaultUserID = "default"
)

// newStateToken creates a per-login anti-CSRF token.
func newStateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// redirectURLFor builds the callback URL from the incoming request so
// the flow works behind proxies and on non-standard ports.
func redirectURLFor(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/auth/meta/callback", scheme, r.Host)
}

// HandleLogin initiates the Meta OAuth flow by redirecting to the
// provider's consent page. The CSRF state is stored in a short-lived
// cookie and validated by the callback.
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := newStateToken()

	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = DefaultUserID
	}

	expires := time.Now().Add(10 * time.Minute)
	http.SetCookie(w, &http.Cookie{
		Name: stateCookie, Value: state, Path: "/", Expires: expires, HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name: userCookie, Value: userID, Path: "/", Expires: expires, HttpOnly: true,
	})

	config := GetOAuthConfig(redirectURLFor(r))
	http.Redirect(w, r, config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}
