package models

import "time"

// Credential stores the OAuth token for a connected user.
// Exactly one live credential per user; re-authentication replaces it.
type Credential struct {
	ID           string `gorm:"primaryKey"` // UUID
	UserID       string `gorm:"uniqueIndex"`
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
