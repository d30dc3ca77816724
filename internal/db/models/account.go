package models

import "time"

// AdAccount is an advertiser account discovered from the platform.
// The platform account id is the stable external key; rows are created
// on discovery after auth and updated by every successful sync. Accounts
// are never deleted automatically.
type AdAccount struct {
	ID           string `gorm:"primaryKey"` // platform id, e.g. "act_123"
	UserID       string `gorm:"index"`
	Name         string
	Currency     string
	Timezone     string
	Status       string
	SyncEnabled  bool       `gorm:"default:true"`
	LastSyncedAt *time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Consent gates which metric fields may be fetched and stored for an
// account. Written only via the consent endpoint, read by the sync engine.
type Consent struct {
	AccountID        string `gorm:"primaryKey"`
	AllowSpend       bool   `gorm:"default:false"`
	AllowConversions bool   `gorm:"default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
