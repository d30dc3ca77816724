package db

import (
	"time"

	"github.com/pranamyajainn/stratapilot-sub001/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Batch upserts for the entity hierarchy. Each call is one transaction
// keyed replace-on-conflict by platform id; commits are independent of
// each other, so a later entity class failing does not roll back an
// earlier one.

// UpsertCampaigns replaces the stored state of the given campaigns.
func UpsertCampaigns(database *gorm.DB, campaigns []models.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}
	return database.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&campaigns).Error
	})
}

// UpsertAdSets replaces the stored state of the given ad sets.
func UpsertAdSets(database *gorm.DB, adSets []models.AdSet) error {
	if len(adSets) == 0 {
		return nil
	}
	return database.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&adSets).Error
	})
}

// UpsertAds replaces the stored state of the given ads.
func UpsertAds(database *gorm.DB, ads []models.Ad) error {
	if len(ads) == 0 {
		return nil
	}
	return database.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&ads).Error
	})
}

// UpsertCreatives stores creative details fetched for ids not already
// present in the store.
func UpsertCreatives(database *gorm.DB, creatives []models.AdCreative) error {
	if len(creatives) == 0 {
		return nil
	}
	return database.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&creatives).Error
	})
}

// UpsertInsights writes daily metric rows keyed (scope_id, date_start).
// Re-running a sync over an overlapping window overwrites those days'
// rows rather than duplicating them.
func UpsertInsights(database *gorm.DB, rows []models.InsightDaily) error {
	if len(rows) == 0 {
		return nil
	}
	return database.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}

// ExistingCreativeIDs returns which of the given creative ids already
// have a stored row, so the sync engine can skip re-fetching them.
func ExistingCreativeIDs(database *gorm.DB, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	var found []string
	if err := database.Model(&models.AdCreative{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// UpsertAdAccounts stores discovered ad accounts, preserving local-only
// columns (sync_enabled, last_synced_at) on conflict.
func UpsertAdAccounts(database *gorm.DB, accounts []models.AdAccount) error {
	if len(accounts) == 0 {
		return nil
	}
	return database.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "name", "currency", "timezone", "status", "updated_at"}),
		}).Create(&accounts).Error
	})
}

// GetConsent returns the consent flags for an account. A missing row
// means nothing has been consented.
func GetConsent(database *gorm.DB, accountID string) models.Consent {
	var consent models.Consent
	if err := database.Where("account_id = ?", accountID).First(&consent).Error; err != nil {
		return models.Consent{AccountID: accountID}
	}
	return consent
}

// DueAccounts returns sync-enabled accounts whose last sync is older
// than the staleness threshold (or that have never synced).
func DueAccounts(database *gorm.DB, staleness time.Duration) ([]models.AdAccount, error) {
	var accounts []models.AdAccount
	cutoff := time.Now().Add(-staleness)
	err := database.
		Where("sync_enabled = ?", true).
		Where("last_synced_at IS NULL OR last_synced_at < ?", cutoff).
		Find(&accounts).Error
	return accounts, err
}

// TouchLastSynced records a successful sync on the account.
func TouchLastSynced(database *gorm.DB, accountID string, at time.Time) error {
	return database.Model(&models.AdAccount{}).
		Where("id = ?", accountID).
		Update("last_synced_at", at).Error
}
