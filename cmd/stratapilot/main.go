package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pranamyajainn/stratapilot-sub001/internal/api"
	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/meta"
	"github.com/pranamyajainn/stratapilot-sub001/internal/auth/token"
	"github.com/pranamyajainn/stratapilot-sub001/internal/config"
	"github.com/pranamyajainn/stratapilot-sub001/internal/db"
	"github.com/pranamyajainn/stratapilot-sub001/internal/platform"
	syncengine "github.com/pranamyajainn/stratapilot-sub001/internal/sync"
)

func main() {
	configPath := flag.String("config", "stratapilot.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if !meta.HasOAuthCredentials() {
		log.Printf("⚠️ META_APP_ID / META_APP_SECRET not set; the OAuth login flow will not work")
	}

	// Single service instances, passed by handle to the route layer and
	// the scheduler.
	platformClient := platform.NewClient()
	tokenManager := token.NewManager(database, meta.GetOAuthConfig(""))
	engine := syncengine.NewEngine(database, platformClient, tokenManager)

	scheduler := syncengine.NewScheduler(database, engine, cfg.SchedulerInterval, cfg.Staleness, cfg.WindowDays)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", api.HealthHandler())

	// OAuth flow. Login and callback are driven by the provider redirect
	// and carry no API key.
	r.Get("/auth/meta/login", meta.HandleLogin)
	r.Get("/auth/meta/callback", meta.HandleCallback(database, engine))

	// API routes (API key required)
	r.Route("/api", func(r chi.Router) {
		r.Use(api.APIKeyAuth(database))

		r.Get("/accounts", api.AccountsHandler(database))
		r.Post("/accounts/{id}/sync", api.TriggerSyncHandler(engine))
		r.Put("/accounts/{id}/consent", api.ConsentHandler(database))
		r.Put("/accounts/{id}/sync-enabled", api.SyncEnabledHandler(database))

		r.Get("/sync-runs/{id}", api.SyncRunHandler(engine))

		r.Post("/auth/disconnect", api.DisconnectHandler(tokenManager))
		r.Post("/config/apikey/regenerate", api.RegenerateAPIKeyHandler(database))
	})

	log.Printf("🚀 StrataPilot ad-sync starting on http://%s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
