package models

import "time"

// Sync run modes.
const (
	ModeOnDemand  = "ON_DEMAND"
	ModeScheduled = "SCHEDULED"
	ModeBackfill  = "BACKFILL"
)

// Sync run states. PENDING -> IN_PROGRESS -> {COMPLETED, FAILED};
// terminal states are final.
const (
	RunPending    = "PENDING"
	RunInProgress = "IN_PROGRESS"
	RunCompleted  = "COMPLETED"
	RunFailed     = "FAILED"
)

// SyncRun is the audit record for one execution of the ingestion
// pipeline. Callers observe run outcome only through Status and
// ErrorMessage; the trigger call itself never surfaces pipeline errors.
type SyncRun struct {
	ID               string `gorm:"primaryKey"` // UUID
	AccountID        string `gorm:"index"`
	UserID           string
	Mode             string
	Status           string `gorm:"index"`
	StartedAt        *time.Time
	FinishedAt       *time.Time
	RecordsProcessed int
	ErrorMessage     string
	Params           string // JSON of the trigger input
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Terminal reports whether the run has reached a final state.
func (r *SyncRun) Terminal() bool {
	return r.Status == RunCompleted || r.Status == RunFailed
}
