package models

import "time"

// Campaign is the top level of the platform's targeting hierarchy.
// Upserted wholesale on every sync: the row is the latest known state,
// not an append-only log.
type Campaign struct {
	ID          string `gorm:"primaryKey"` // platform id
	AccountID   string `gorm:"index"`
	Name        string
	Status      string
	Objective   string
	UpdatedTime time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AdSet sits between Campaign and Ad.
type AdSet struct {
	ID               string `gorm:"primaryKey"`
	CampaignID       string `gorm:"index"`
	AccountID        string `gorm:"index"`
	Name             string
	Status           string
	DailyBudget      string // minor units as returned by the platform
	OptimizationGoal string
	UpdatedTime      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ad is the delivery unit; it references its creative by id.
type Ad struct {
	ID          string `gorm:"primaryKey"`
	AdSetID     string `gorm:"index"`
	AccountID   string `gorm:"index"`
	Name        string
	Status      string
	CreativeID  string `gorm:"index"`
	UpdatedTime time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AdCreative is denormalized creative metadata. Fetched lazily: only ids
// not already present in the store are requested, so a creative edited
// upstream after first fetch stays stale until its id disappears from
// the store.
type AdCreative struct {
	ID               string `gorm:"primaryKey"`
	ObjectType       string
	ThumbnailURL     string
	Title            string
	Body             string
	CallToActionType string
	ObjectURL        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
