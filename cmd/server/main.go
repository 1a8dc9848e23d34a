package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skaldby/link-broker/internal/api"
	"github.com/skaldby/link-broker/internal/config"
	"github.com/skaldby/link-broker/internal/database"
	"github.com/skaldby/link-broker/internal/jobs"
	"github.com/skaldby/link-broker/internal/oauth"
	"github.com/skaldby/link-broker/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize credential store
	var st oauth.Store
	if cfg.Database.Type == "memory" {
		log.Println("Using in-memory store; links will not survive a restart")
		st = store.NewMemory()
	} else {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		// Get underlying SQL database for cleanup
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get database connection: %v", err)
		}
		defer sqlDB.Close()

		// Run migrations
		if err := database.RunMigrations(cfg.Database); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		st = store.NewPostgres(db)
	}

	// Initialize provider clients
	clients := oauth.NewClients(
		oauth.NewSpotify(cfg.OAuth.Spotify, oauth.Endpoints{}),
		oauth.NewGitHub(cfg.OAuth.GitHub, oauth.Endpoints{}),
	)
	for _, client := range clients {
		if !client.Configured() {
			log.Printf("Provider %s is not configured and will reject linking requests", client.Provider())
		}
	}

	// State ledger and flow orchestration
	ledger := oauth.NewStateLedger(time.Duration(cfg.StateTTLSeconds) * time.Second)
	linker := oauth.NewLinker(st, ledger, clients)
	tokens := oauth.NewTokenManager(st, clients)

	// Initialize job scheduler
	scheduler := jobs.NewScheduler(ledger)
	scheduler.Start()
	defer scheduler.Stop()

	// Setup API router
	router := api.NewRouter(cfg, st, linker, tokens, clients)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
