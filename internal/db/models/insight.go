package models

import "time"

// InsightDaily is one row of daily performance metrics per (scope entity,
// date). The composite key makes overlapping re-syncs idempotent: the same
// day is overwritten, never duplicated.
//
// Spend, CPC and CPM are pointers because they are absent, not zero, when
// the account's consent withholds spend data. Actions is a JSON array of
// conversion actions, empty unless conversion consent is granted.
type InsightDaily struct {
	ScopeID     string `gorm:"primaryKey"` // platform id of the scoped entity (ad level)
	DateStart   string `gorm:"primaryKey"` // YYYY-MM-DD
	ScopeLevel  string `gorm:"index"`      // "ad"
	AccountID   string `gorm:"index"`
	Impressions int64
	Reach       int64
	Frequency   float64
	Clicks      int64
	CTR         float64
	Spend       *float64
	CPC         *float64
	CPM         *float64
	Actions     string // JSON, "" when conversions are not consented
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
