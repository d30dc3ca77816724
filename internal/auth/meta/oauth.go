package meta

import (
	"os"
	"strings"

	"golang.org/x/oauth2"
	metaOAuth "golang.org/x/oauth2/facebook"
)

// App credentials come from the environment; there are no usable
// defaults for the Marketing API.
const (
	EnvAppID     = "META_APP_ID"
	EnvAppSecret = "META_APP_SECRET"
)

// Scopes required for reading the ad-account hierarchy and insights.
var Scopes = []string{
	"ads_read",
	"ads_management",
	"business_management",
}

// GetOAuthConfig returns the OAuth2 config for Meta authentication.
func GetOAuthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv(EnvAppID),
		ClientSecret: os.Getenv(EnvAppSecret),
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     metaOAuth.Endpoint,
	}
}

// HasOAuthCredentials reports whether app credentials are configured.
func HasOAuthCredentials() bool {
	return strings.TrimSpace(os.Getenv(EnvAppID)) != "" &&
		strings.TrimSpace(os.Getenv(EnvAppSecret)) != ""
}
