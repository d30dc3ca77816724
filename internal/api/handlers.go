package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/meta"
	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/token"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db/models"
	syncengine "github.com/pranamyajainn/stratapilot-sub001/internal/sync"
	"github.com/pranamyajainn/stratapilot-sub001/internal/version"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// TriggerSyncHandler starts a sync run for an account and returns the
// run id immediately. The run itself executes out-of-band; poll the
// sync-run endpoint for its status.
func TriggerSyncHandler(engine *syncengine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "id")

		var body struct {
			UserID    string `json:"user_id"`
			Mode      string `json:"mode"`
			DateStart string `json:"date_start"`
			DateStop  string `json:"date_stop"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.UserID == "" {
			body.UserID = meta.DefaultUserID
		}
		if body.Mode == "" {
			body.Mode = models.ModeOnDemand
		}
		if body.DateStart == "" || body.DateStop == "" {
			now := time.Now()
			body.DateStop = now.Format("2006-01-02")
			body.DateStart = now.AddDate(0, 0, -3).Format("2006-01-02")
		}

		runID, err := engine.TriggerSync(body.UserID, accountID, body.Mode, body.DateStart, body.DateStop)
		if err != nil {
			switch {
			case errors.Is(err, syncengine.ErrSyncInProgress):
				writeError(w, http.StatusConflict, err.Error())
			case errors.Is(err, syncengine.ErrRunNotRecorded):
				writeError(w, http.StatusInternalServerError, err.Error())
			default:
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": models.RunPending})
	}
}

// SyncRunHandler returns a run record for status polling.
func SyncRunHandler(engine *syncengine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := engine.GetRun(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "sync run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

// AccountsHandler lists stored ad accounts with their consent flags.
func AccountsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var accounts []models.AdAccount
		if err := database.Order("id").Find(&accounts).Error; err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

// ConsentHandler writes an account's consent flags. This is the only
// writer of the consents table.
func ConsentHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "id")

		var body struct {
			AllowSpend       bool `json:"allow_spend"`
			AllowConversions bool `json:"allow_conversions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		consent := models.Consent{
			AccountID:        accountID,
			AllowSpend:       body.AllowSpend,
			AllowConversions: body.AllowConversions,
		}
		err := database.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"allow_spend", "allow_conversions", "updated_at"}),
		}).Create(&consent).Error
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, consent)
	}
}

// SyncEnabledHandler toggles automatic syncing for an account.
func SyncEnabledHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "id")

		var body struct {
			SyncEnabled bool `json:"sync_enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		result := database.Model(&models.AdAccount{}).
			Where("id = ?", accountID).
			Update("sync_enabled", body.SyncEnabled)
		if result.Error != nil {
			writeError(w, http.StatusInternalServerError, result.Error.Error())
			return
		}
		if result.RowsAffected == 0 {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": accountID, "sync_enabled": body.SyncEnabled})
	}
}

// DisconnectHandler removes the user's stored credential. It does not
// revoke the token upstream or delete the user's accounts.
func DisconnectHandler(tokens *token.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			body.UserID = meta.DefaultUserID
		}
		if err := tokens.Delete(body.UserID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"user_id": body.UserID, "status": "disconnected"})
	}
}

// RegenerateAPIKeyHandler replaces the stored API key and returns the
// new one. The caller authenticates with the current key; the old key
// stops working immediately.
func RegenerateAPIKeyHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"api_key": db.RegenerateAPIKey(database)})
	}
}

// HealthHandler reports liveness and build info.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Version,
			"commit":  version.Commit,
		})
	}
}
