package db

import (
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the ads database and runs migrations. The file is kept
// separate from other subsystems' data files.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate all models
	if err := database.AutoMigrate(
		&models.Config{},
		&models.Credential{},
		&models.AdAccount{},
		&models.Consent{},
		&models.Campaign{},
		&models.AdSet{},
		&models.Ad{},
		&models.AdCreative{},
		&models.InsightDaily{},
		&models.SyncRun{},
	); err != nil {
		return nil, err
	}

	// Ensure API key exists (generate on first run)
	ensureAPIKey(database)

	return database, nil
}

// ensureAPIKey generates an API key if not exists
func ensureAPIKey(database *gorm.DB) {
	var config models.Config
	result := database.Where("key = ?", "api_key").First(&config)

	if result.Error != nil {
		// Generate new API key: sp-<32 hex chars>
		keyBytes := make([]byte, 16)
		rand.Read(keyBytes)
		apiKey := "sp-" + hex.EncodeToString(keyBytes)

		database.Create(&models.Config{
			Key:   "api_key",
			Value: apiKey,
		})
		log.Printf("🔑 Generated new API key: %s", apiKey)
	}
}

// GetAPIKey retrieves the API key from the database
func GetAPIKey(database *gorm.DB) string {
	var config models.Config
	database.Where("key = ?", "api_key").First(&config)
	return config.Value
}

// RegenerateAPIKey creates a new API key
func RegenerateAPIKey(database *gorm.DB) string {
	keyBytes := make([]byte, 16)
	rand.Read(keyBytes)
	apiKey := "sp-" + hex.EncodeToString(keyBytes)

	database.Model(&models.Config{}).Where("key = ?", "api_key").Update("value", apiKey)
	log.Printf("🔑 Regenerated API key: %s", apiKey)
	return apiKey
}
