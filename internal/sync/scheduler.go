package sync

import (
	"errors"
	"log"
	"time"

	"github.com/pranamyajainn/stratapilot-sub001/internal/db"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db/models"
	"gorm.io/gorm"
)

// Scheduler periodically scans for sync-enabled accounts whose data has
// gone stale and triggers SCHEDULED runs for them. One account failing
// never blocks the remaining candidates in the same tick.
type Scheduler struct {
	db     *gorm.DB
	engine *Engine

	interval  time.Duration
	staleness time.Duration
	// windowDays is the trailing window of each scheduled run, wide
	// enough to capture late-arriving attribution data.
	windowDays int

	done chan struct{}
}

// NewScheduler creates a scheduler over the engine.
func NewScheduler(database *gorm.DB, engine *Engine, interval, staleness time.Duration, windowDays int) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if staleness <= 0 {
		staleness = 24 * time.Hour
	}
	if windowDays <= 0 {
		windowDays = 3
	}
	return &Scheduler{
		db:         database,
		engine:     engine,
		interval:   interval,
		staleness:  staleness,
		windowDays: windowDays,
		done:       make(chan struct{}),
	}
}

// Start launches the background tick loop.
func (s *Scheduler) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunOnce()
			case <-s.done:
				return
			}
		}
	}()
	log.Printf("⏰ Scheduler started (interval: %s, staleness: %s, window: %dd)", s.interval, s.staleness, s.windowDays)
}

// Stop terminates the tick loop. In-flight sync runs are not interrupted.
func (s *Scheduler) Stop() {
	close(s.done)
}

// RunOnce performs a single scheduling pass. Exposed so tests and the
// trigger endpoint can force a pass without waiting for the ticker.
func (s *Scheduler) RunOnce() int {
	accounts, err := db.DueAccounts(s.db, s.staleness)
	if err != nil {
		log.Printf("⚠️ Scheduler scan failed: %v", err)
		return 0
	}
	if len(accounts) == 0 {
		return 0
	}

	now := time.Now()
	dateStop := now.Format(dateLayout)
	dateStart := now.AddDate(0, 0, -s.windowDays).Format(dateLayout)

	triggered := 0
	for _, account := range accounts {
		runID, err := s.engine.TriggerSync(account.UserID, account.ID, models.ModeScheduled, dateStart, dateStop)
		if err != nil {
			if errors.Is(err, ErrSyncInProgress) {
				log.Printf("⏭️ Scheduler: account %s already syncing, skipped", account.ID)
			} else {
				log.Printf("⚠️ Scheduler: trigger for account %s failed: %v", account.ID, err)
			}
			continue
		}
		triggered++
		log.Printf("⏰ Scheduler: triggered run %s for account %s", runID, account.ID)
	}
	return triggered
}
