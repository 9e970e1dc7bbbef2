package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cliprally/cliprally/internal/api/handlers"
	"github.com/cliprally/cliprally/internal/api/middleware"
	"github.com/cliprally/cliprally/internal/auth/tiktok"
	"github.com/cliprally/cliprally/internal/auth/token"
	"github.com/cliprally/cliprally/internal/config"
	"github.com/cliprally/cliprally/internal/db"
	"github.com/cliprally/cliprally/internal/media"
	"github.com/cliprally/cliprally/internal/storage"
	"github.com/cliprally/cliprally/internal/upstream"
	"github.com/cliprally/cliprally/internal/version"
)

func main() {
	configPath := flag.String("config", "cliprally.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Without platform credentials the exchange and metadata clients run
	// in mock mode so the rest of the stack stays developable.
	var exchanger tiktok.Exchanger
	var platformAPI upstream.API
	if cfg.TikTokConfigured() {
		exchanger = tiktok.NewClient(cfg.TikTok)
		platformAPI = upstream.NewClient()
	} else {
		log.Printf("⚠️ No TikTok credentials configured, running in mock mode")
		exchanger = tiktok.MockExchanger{}
		platformAPI = upstream.MockAPI{}
	}

	var store media.ObjectStore
	if cfg.StorageConfigured() {
		store = storage.NewS3Store(cfg.Storage)
	} else {
		log.Printf("⚠️ No object storage credentials configured, using in-memory store")
		// Keys already carry a media/ prefix, so the public URL base is
		// the server root.
		store = storage.NewMemoryStore("http://localhost:" + cfg.Port)
	}

	invoker := token.NewInvoker(database, exchanger)
	pipeline := media.NewPipeline(media.NewResolver(), media.NewDownloader(), store, database)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// OAuth flow
	r.Get("/auth/tiktok/login", tiktok.HandleLogin(cfg.TikTok))
	r.Get("/auth/tiktok/callback", tiktok.HandleCallback(database, exchanger, platformAPI))

	// API routes (API key required)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(database))

		r.Post("/submissions", handlers.SubmitHandler(pipeline))
		r.Get("/submissions/stats", handlers.SubmissionStatsHandler(database))

		// Account management
		r.Get("/accounts", handlers.ListAccountsHandler(database))
		r.Post("/accounts/{id}/promote", handlers.PromoteAccountHandler(database))
		r.Post("/accounts/{id}/refresh", handlers.RefreshAccountHandler(invoker))
		r.Delete("/accounts/{id}", handlers.DisconnectAccountHandler(database))
		r.Get("/accounts/{id}/videos", handlers.ListVideosHandler(invoker, platformAPI))

		// API Key management
		r.Get("/config/apikey", handlers.GetAPIKeyHandler(database))
		r.Post("/config/apikey/regenerate", handlers.RegenerateAPIKeyHandler(database))
	})

	// Dev-mode media serving when the in-memory store is active.
	if mem, ok := store.(*storage.MemoryStore); ok {
		r.Get("/media/*", func(w http.ResponseWriter, req *http.Request) {
			key := chi.URLParam(req, "*")
			data, found := mem.Get("media/" + key)
			if !found {
				http.NotFound(w, req)
				return
			}
			w.Header().Set("Content-Type", "video/mp4")
			w.Write(data)
		})
	}

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("🚀 ClipRally %s starting on http://%s", version.Version, addr)
	log.Printf("🔗 Link an account: http://%s/auth/tiktok/login", addr)
	log.Printf("📥 Submissions API: http://%s/api/submissions", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
