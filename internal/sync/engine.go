package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/token"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db/models"
	"github.com/pranamyajainn/stratapilot-sub001/internal/logging"
	"github.com/pranamyajainn/stratapilot-sub001/internal/platform"
	"github.com/pranamyajainn/stratapilot-sub001/internal/util"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrSyncInProgress is returned by TriggerSync when a run for the same
// account is already executing in this process.
var ErrSyncInProgress = errors.New("a sync for this account is already in progress")

// ErrRunNotRecorded is returned by TriggerSync when the run row cannot
// be persisted. Callers can distinguish it from input validation errors.
var ErrRunNotRecorded = errors.New("failed to record sync run")

// creativeFetchConcurrency bounds parallel creative-detail requests so a
// large ad set cannot trip the provider's rate limits.
const creativeFetchConcurrency = 3

const dateLayout = "2006-01-02"

// RunParams is the serialized input of a sync run, stored on the
// SyncRun record for auditability.
type RunParams struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Mode      string `json:"mode"`
	DateStart string `json:"date_start"`
	DateStop  string `json:"date_stop"`
}

// Engine orchestrates one sync run: credential resolve, hierarchy fetch,
// creative backfill, consent-gated insights, and run bookkeeping. It is
// the sole writer of the entity tables and of SyncRun. Constructed once
// at process start and passed by handle to the route layer and scheduler.
type Engine struct {
	db     *gorm.DB
	client *platform.Client
	tokens *token.Manager

	// Per-account mutual exclusion for runs within this process.
	// Upserts are idempotent per key, but overlapping runs would expose
	// interleaved partial states mid-run.
	busyMu sync.Mutex
	busy   map[string]bool
}

// NewEngine creates the sync engine.
func NewEngine(database *gorm.DB, client *platform.Client, tokens *token.Manager) *Engine {
	return &Engine{
		db:     database,
		client: client,
		tokens: tokens,
		busy:   make(map[string]bool),
	}
}

func (e *Engine) tryAcquire(accountID string) bool {
	e.busyMu.Lock()
	defer e.busyMu.Unlock()
	if e.busy[accountID] {
		return false
	}
	e.busy[accountID] = true
	return true
}

func (e *Engine) release(accountID string) {
	e.busyMu.Lock()
	defer e.busyMu.Unlock()
	delete(e.busy, accountID)
}

// TriggerSync records a PENDING run and starts it out-of-band, returning
// the run id immediately. The trigger fails only if the run cannot be
// recorded (or the input is invalid); pipeline failures surface through
// the run's status and error message.
func (e *Engine) TriggerSync(userID, accountID, mode, dateStart, dateStop string) (string, error) {
	switch mode {
	case models.ModeOnDemand, models.ModeScheduled, models.ModeBackfill:
	default:
		return "", fmt.Errorf("unknown sync mode %q", mode)
	}

	start, err := time.Parse(dateLayout, dateStart)
	if err != nil {
		return "", fmt.Errorf("invalid date_start %q: %w", dateStart, err)
	}
	stop, err := time.Parse(dateLayout, dateStop)
	if err != nil {
		return "", fmt.Errorf("invalid date_stop %q: %w", dateStop, err)
	}
	if stop.Before(start) {
		return "", fmt.Errorf("date_stop %s precedes date_start %s", dateStop, dateStart)
	}

	if !e.tryAcquire(accountID) {
		return "", ErrSyncInProgress
	}

	params := RunParams{
		UserID:    userID,
		AccountID: accountID,
		Mode:      mode,
		DateStart: dateStart,
		DateStop:  dateStop,
	}
	paramsJSON, _ := json.Marshal(params)

	run := models.SyncRun{
		ID:        uuid.New().String(),
		AccountID: accountID,
		UserID:    userID,
		Mode:      mode,
		Status:    models.RunPending,
		Params:    string(paramsJSON),
	}
	if err := e.db.Create(&run).Error; err != nil {
		e.release(accountID)
		return "", fmt.Errorf("%w: %v", ErrRunNotRecorded, err)
	}

	go e.executeSync(run.ID, params)
	return run.ID, nil
}

// GetRun returns the run record for status polling.
func (e *Engine) GetRun(runID string) (*models.SyncRun, error) {
	var run models.SyncRun
	if err := e.db.Where("id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// executeSync drives the run state machine. Every error from the
// pipeline lands here as the single point that writes the terminal
// FAILED status; whatever earlier steps committed remains.
func (e *Engine) executeSync(runID string, params RunParams) {
	ctx := logging.WithRunID(context.Background(), runID)
	tag := logging.ShortID(runID)

	now := time.Now()
	e.updateRun(runID, tag, map[string]interface{}{
		"status":     models.RunInProgress,
		"started_at": now,
	})
	log.Printf("🔄 [%s] Sync started: account=%s mode=%s window=%s..%s",
		tag, params.AccountID, params.Mode, params.DateStart, params.DateStop)

	records, err := e.runPipeline(ctx, params)

	// The flag is released exactly once, before the terminal write, so a
	// caller that polls the run to completion can immediately trigger
	// the next one.
	e.release(params.AccountID)

	finished := time.Now()
	if err != nil {
		e.updateRun(runID, tag, map[string]interface{}{
			"status":        models.RunFailed,
			"finished_at":   finished,
			"error_message": util.TruncateError(err.Error(), util.DefaultErrMaxLen),
		})
		log.Printf("❌ [%s] Sync failed: %v", tag, err)
		return
	}

	e.updateRun(runID, tag, map[string]interface{}{
		"status":            models.RunCompleted,
		"finished_at":       finished,
		"records_processed": records,
	})
	log.Printf("✅ [%s] Sync completed: %d insight rows in %s", tag, records, finished.Sub(now).Round(time.Millisecond))
}

// updateRun writes run bookkeeping fields. A failed write would strand
// the run record in its previous state, so it is at least logged.
func (e *Engine) updateRun(runID, tag string, fields map[string]interface{}) {
	if err := e.db.Model(&models.SyncRun{}).Where("id = ?", runID).Updates(fields).Error; err != nil {
		log.Printf("⚠️ [%s] Failed to update sync run record: %v", tag, err)
	}
}

// runPipeline executes steps 3-8: token, hierarchy, creatives, insights,
// account touch. Each entity class commits in its own transaction; a
// later failure does not roll back earlier commits (at-least-partial,
// not all-or-nothing).
func (e *Engine) runPipeline(ctx context.Context, params RunParams) (int, error) {
	accessToken, err := e.tokens.GetAccessToken(params.UserID)
	if err != nil {
		return 0, fmt.Errorf("resolve credential for user %s: %w", params.UserID, err)
	}

	if err := e.syncCampaigns(ctx, accessToken, params.AccountID); err != nil {
		return 0, err
	}
	if err := e.syncAdSets(ctx, accessToken, params.AccountID); err != nil {
		return 0, err
	}
	creativeIDs, err := e.syncAds(ctx, accessToken, params.AccountID)
	if err != nil {
		return 0, err
	}

	e.syncCreatives(ctx, accessToken, creativeIDs)

	records, err := e.syncInsights(ctx, accessToken, params)
	if err != nil {
		return 0, err
	}

	if err := db.TouchLastSynced(e.db, params.AccountID, time.Now()); err != nil {
		return 0, fmt.Errorf("update last_synced_at: %w", err)
	}
	return records, nil
}

func (e *Engine) syncCampaigns(ctx context.Context, accessToken, accountID string) error {
	data, err := e.client.GetCampaigns(ctx, accessToken, accountID)
	if err != nil {
		return fmt.Errorf("fetch campaigns: %w", err)
	}
	campaigns := make([]models.Campaign, 0, len(data))
	for _, c := range data {
		campaigns = append(campaigns, models.Campaign{
			ID:          c.ID,
			AccountID:   accountID,
			Name:        c.Name,
			Status:      c.Status,
			Objective:   c.Objective,
			UpdatedTime: parsePlatformTime(c.UpdatedTime),
		})
	}
	if err := db.UpsertCampaigns(e.db, campaigns); err != nil {
		return fmt.Errorf("store campaigns: %w", err)
	}
	log.Printf("📥 [%s] %d campaigns", logging.ShortID(logging.GetRunID(ctx)), len(campaigns))
	return nil
}

func (e *Engine) syncAdSets(ctx context.Context, accessToken, accountID string) error {
	data, err := e.client.GetAdSets(ctx, accessToken, accountID)
	if err != nil {
		return fmt.Errorf("fetch ad sets: %w", err)
	}
	adSets := make([]models.AdSet, 0, len(data))
	for _, s := range data {
		adSets = append(adSets, models.AdSet{
			ID:               s.ID,
			CampaignID:       s.CampaignID,
			AccountID:        accountID,
			Name:             s.Name,
			Status:           s.Status,
			DailyBudget:      s.DailyBudget,
			OptimizationGoal: s.OptimizationGoal,
			UpdatedTime:      parsePlatformTime(s.UpdatedTime),
		})
	}
	if err := db.UpsertAdSets(e.db, adSets); err != nil {
		return fmt.Errorf("store ad sets: %w", err)
	}
	log.Printf("📥 [%s] %d ad sets", logging.ShortID(logging.GetRunID(ctx)), len(adSets))
	return nil
}

// syncAds stores the ad list and returns the set of creative ids the
// ads reference.
func (e *Engine) syncAds(ctx context.Context, accessToken, accountID string) ([]string, error) {
	data, err := e.client.GetAds(ctx, accessToken, accountID)
	if err != nil {
		return nil, fmt.Errorf("fetch ads: %w", err)
	}
	ads := make([]models.Ad, 0, len(data))
	creativeSet := make(map[string]bool)
	for _, a := range data {
		ads = append(ads, models.Ad{
			ID:          a.ID,
			AdSetID:     a.AdSetID,
			AccountID:   accountID,
			Name:        a.Name,
			Status:      a.Status,
			CreativeID:  a.Creative.ID,
			UpdatedTime: parsePlatformTime(a.UpdatedTime),
		})
		if a.Creative.ID != "" {
			creativeSet[a.Creative.ID] = true
		}
	}
	if err := db.UpsertAds(e.db, ads); err != nil {
		return nil, fmt.Errorf("store ads: %w", err)
	}

	creativeIDs := make([]string, 0, len(creativeSet))
	for id := range creativeSet {
		creativeIDs = append(creativeIDs, id)
	}
	log.Printf("📥 [%s] %d ads referencing %d creatives", logging.ShortID(logging.GetRunID(ctx)), len(ads), len(creativeIDs))
	return creativeIDs, nil
}

// syncCreatives fetches details for creative ids not already stored, in
// bounded-concurrency chunks. Individual fetch failures are recovered:
// logged, excluded from the batch, never fatal to the run.
func (e *Engine) syncCreatives(ctx context.Context, accessToken string, creativeIDs []string) {
	tag := logging.ShortID(logging.GetRunID(ctx))

	existing, err := db.ExistingCreativeIDs(e.db, creativeIDs)
	if err != nil {
		log.Printf("⚠️ [%s] Creative dedup lookup failed, skipping creative sync: %v", tag, err)
		return
	}

	var missing []string
	for _, id := range creativeIDs {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}

	var mu sync.Mutex
	fetched := make([]models.AdCreative, 0, len(missing))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(creativeFetchConcurrency)
	for _, id := range missing {
		creativeID := id
		group.Go(func() error {
			detail, err := e.client.GetCreativeDetails(groupCtx, accessToken, creativeID)
			if err != nil {
				log.Printf("⚠️ [%s] Creative %s fetch failed, skipping: %v", tag, creativeID, err)
				return nil
			}
			mu.Lock()
			fetched = append(fetched, models.AdCreative{
				ID:               detail.ID,
				ObjectType:       detail.ObjectType,
				ThumbnailURL:     detail.ThumbnailURL,
				Title:            detail.Title,
				Body:             detail.Body,
				CallToActionType: detail.CallToActionType,
				ObjectURL:        detail.ObjectURL,
			})
			mu.Unlock()
			return nil
		})
	}
	group.Wait()

	if err := db.UpsertCreatives(e.db, fetched); err != nil {
		log.Printf("⚠️ [%s] Creative store failed, continuing: %v", tag, err)
		return
	}
	log.Printf("📥 [%s] %d/%d new creatives stored", tag, len(fetched), len(missing))
}

// syncInsights fetches daily metrics with a consent-gated field list and
// upserts them keyed (scope_id, date_start). Returns the row count.
func (e *Engine) syncInsights(ctx context.Context, accessToken string, params RunParams) (int, error) {
	consent := db.GetConsent(e.db, params.AccountID)
	fields := insightFields(consent)

	data, err := e.client.GetInsights(ctx, accessToken, params.AccountID, fields, params.DateStart, params.DateStop)
	if err != nil {
		return 0, fmt.Errorf("fetch insights: %w", err)
	}

	rows := make([]models.InsightDaily, 0, len(data))
	for _, r := range data {
		rows = append(rows, buildInsightRow(params.AccountID, r, consent))
	}
	if err := db.UpsertInsights(e.db, rows); err != nil {
		return 0, fmt.Errorf("store insights: %w", err)
	}
	return len(rows), nil
}

// insightFields computes the requested metric fields. Spend and
// conversion fields are appended only when the matching consent is
// granted; redaction happens at the request, not just at storage.
func insightFields(consent models.Consent) []string {
	fields := []string{"ad_id", "date_start", "date_stop", "impressions", "reach", "frequency", "clicks", "ctr"}
	if consent.AllowSpend {
		fields = append(fields, "spend", "cpc", "cpm")
	}
	if consent.AllowConversions {
		fields = append(fields, "actions")
	}
	return fields
}

func buildInsightRow(accountID string, r platform.InsightRow, consent models.Consent) models.InsightDaily {
	row := models.InsightDaily{
		ScopeID:     r.AdID,
		DateStart:   r.DateStart,
		ScopeLevel:  "ad",
		AccountID:   accountID,
		Impressions: parseInt(r.Impressions),
		Reach:       parseInt(r.Reach),
		Frequency:   parseFloat(r.Frequency),
		Clicks:      parseInt(r.Clicks),
		CTR:         parseFloat(r.CTR),
	}
	// Belt and braces: even if the provider returns unrequested fields,
	// unconsented values are never stored.
	if consent.AllowSpend {
		row.Spend = parseFloatPtr(r.Spend)
		row.CPC = parseFloatPtr(r.CPC)
		row.CPM = parseFloatPtr(r.CPM)
	}
	if consent.AllowConversions && len(r.Actions) > 0 {
		actions, _ := json.Marshal(r.Actions)
		row.Actions = string(actions)
	}
	return row
}

// DiscoverAccounts lists the user's ad accounts from the platform and
// upserts them, preserving local sync settings on existing rows. Called
// from the OAuth callback and the accounts refresh endpoint.
func (e *Engine) DiscoverAccounts(ctx context.Context, userID string) (int, error) {
	accessToken, err := e.tokens.GetAccessToken(userID)
	if err != nil {
		return 0, fmt.Errorf("resolve credential for user %s: %w", userID, err)
	}

	data, err := e.client.GetAdAccounts(ctx, accessToken)
	if err != nil {
		return 0, fmt.Errorf("list ad accounts: %w", err)
	}

	accounts := make([]models.AdAccount, 0, len(data))
	for _, a := range data {
		accounts = append(accounts, models.AdAccount{
			ID:          a.ID,
			UserID:      userID,
			Name:        a.Name,
			Currency:    a.Currency,
			Timezone:    a.TimezoneName,
			Status:      accountStatusName(a.AccountStatus),
			SyncEnabled: true,
		})
	}
	if err := db.UpsertAdAccounts(e.db, accounts); err != nil {
		return 0, fmt.Errorf("store ad accounts: %w", err)
	}
	log.Printf("📒 Discovered %d ad accounts for %s", len(accounts), userID)
	return len(accounts), nil
}

func accountStatusName(status int) string {
	switch status {
	case 1:
		return "ACTIVE"
	case 2:
		return "DISABLED"
	case 3:
		return "UNSETTLED"
	case 101:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// parsePlatformTime handles the provider's timestamp format, which omits
// the colon in the zone offset.
func parsePlatformTime(value string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseInt(value string) int64 {
	n, _ := strconv.ParseInt(value, 10, 64)
	return n
}

func parseFloat(value string) float64 {
	f, _ := strconv.ParseFloat(value, 64)
	return f
}

func parseFloatPtr(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
