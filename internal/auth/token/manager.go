package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoCredential is returned when a user has no stored credential.
var ErrNoCredential = errors.New("no credential stored for user")

// TokenExchangeError wraps a failed code-for-token exchange.
type TokenExchangeError struct {
	Err error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// Manager owns the credential lifecycle: consent URL, code exchange,
// long-lived upgrade, and persistence. It is the sole writer of the
// credentials table.
type Manager struct {
	db           *gorm.DB
	oauth        *oauth2.Config
	httpClient   *http.Client
	graphBaseURL string
}

// NewManager creates a token manager over the given store and OAuth config.
func NewManager(database *gorm.DB, oauthConfig *oauth2.Config) *Manager {
	return &Manager{
		db:           database,
		oauth:        oauthConfig,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		graphBaseURL: "https://graph.facebook.com/v19.0",
	}
}

// WithGraphBaseURL overrides the Graph endpoint used for the long-lived
// upgrade call. Used by tests.
func (m *Manager) WithGraphBaseURL(baseURL string, client *http.Client) *Manager {
	m.graphBaseURL = baseURL
	if client != nil {
		m.httpClient = client
	}
	return m
}

// BuildAuthorizationURL returns the provider consent URL embedding the
// caller-supplied anti-CSRF state. The caller is responsible for storing
// and later validating the state.
func (m *Manager) BuildAuthorizationURL(state string) string {
	return m.oauth.AuthCodeURL(state)
}

// ExchangeCode swaps an authorization code for a short-lived token.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, &TokenExchangeError{Err: err}
	}
	return tok, nil
}

// UpgradeToLongLived exchanges a short-lived token for a long-lived one.
// Best-effort: on any failure it logs and returns the short-lived token
// with its original lifetime so the login flow still completes.
func (m *Manager) UpgradeToLongLived(ctx context.Context, shortToken string, shortExpiry time.Duration) (string, time.Duration) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", m.oauth.ClientID)
	params.Set("client_secret", m.oauth.ClientSecret)
	params.Set("fb_exchange_token", shortToken)

	reqURL := m.graphBaseURL + "/oauth/access_token?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Printf("⚠️ Long-lived upgrade request build failed: %v", err)
		return shortToken, shortExpiry
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("⚠️ Long-lived upgrade failed, keeping short-lived token: %v", err)
		return shortToken, shortExpiry
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ Long-lived upgrade returned %d, keeping short-lived token", resp.StatusCode)
		return shortToken, shortExpiry
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.AccessToken == "" {
		log.Printf("⚠️ Long-lived upgrade response unreadable, keeping short-lived token")
		return shortToken, shortExpiry
	}

	expiry := time.Duration(result.ExpiresIn) * time.Second
	if result.ExpiresIn == 0 {
		// Some token types return no expiry; default to 60 days.
		expiry = 60 * 24 * time.Hour
	}
	log.Printf("✅ Upgraded to long-lived token (expires in %s)", expiry)
	return result.AccessToken, expiry
}

// Store computes an absolute expiry (now + expiresIn) and replaces any
// prior credential for the user.
func (m *Manager) Store(userID, accessToken string, expiresIn time.Duration) error {
	credential := models.Credential{
		ID:          uuid.New().String(),
		UserID:      userID,
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(expiresIn),
	}
	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(&credential).Error
}

// GetAccessToken returns the stored token for a user. No expiry check is
// performed here; staleness is the caller's responsibility.
func (m *Manager) GetAccessToken(userID string) (string, error) {
	var credential models.Credential
	if err := m.db.Where("user_id = ?", userID).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoCredential
		}
		return "", err
	}
	return credential.AccessToken, nil
}

// IsExpired reports whether the user's credential is past its expiry.
// A missing credential counts as expired.
func (m *Manager) IsExpired(userID string) bool {
	var credential models.Credential
	if err := m.db.Where("user_id = ?", userID).First(&credential).Error; err != nil {
		return true
	}
	return credential.ExpiresAt.Before(time.Now())
}

// Delete removes the credential. It does not revoke the token upstream
// and does not cascade-delete the user's accounts.
func (m *Manager) Delete(userID string) error {
	return m.db.Where("user_id = ?", userID).Delete(&models.Credential{}).Error
}
