package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/untire/coach-server/internal/api"
	"github.com/untire/coach-server/internal/auth"
	"github.com/untire/coach-server/internal/coach"
	"github.com/untire/coach-server/internal/config"
	"github.com/untire/coach-server/internal/llm"
	"github.com/untire/coach-server/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for catalog seeding
	seedFlag := flag.Bool("seed", false, "Seed the tool catalogs and quiz questions and exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Handle catalog seeding if flag is set
	if *seedFlag {
		log.Println("Seeding tool catalogs...")
		if err := dbStore.Seed(); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding complete. Exiting.")
		os.Exit(0)
	}

	if err := ensureDefaultAdmin(dbStore); err != nil {
		log.Fatalf("Failed to ensure default admin account: %v", err)
	}

	// Initialize the model client
	llmClient, err := llm.NewClient(context.Background(), llm.ProviderConfig{
		Provider:     config.AppConfig.LLMProvider,
		OpenAIAPIKey: config.AppConfig.OpenAIAPIKey,
		GeminiAPIKey: config.AppConfig.GeminiAPIKey,
	})
	if err != nil {
		log.Fatalf("Failed to initialize model client: %v", err)
	}
	if closer, ok := llmClient.(io.Closer); ok {
		defer closer.Close()
	}

	// Wire up the turn pipeline
	resolver := coach.NewResolver(dbStore, dbStore)
	catalogs := coach.NewCatalogProvider(dbStore)
	updater := coach.NewProfileUpdater(dbStore, dbStore, dbStore, llmClient, config.AppConfig.UpdateQueueSize)
	updater.Start()
	defer updater.Stop()
	turnService := coach.NewTurnService(dbStore, resolver, catalogs, llmClient, updater)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(dbStore, dbStore, dbStore, dbStore, dbStore, dbStore, turnService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // Turn handling includes a model call
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

// ensureDefaultAdmin creates the admin account on first boot so the instance
// is never locked out of the admin API.
func ensureDefaultAdmin(dbStore *store.SQLiteStore) error {
	hasAdmin, err := dbStore.HasAdmin()
	if err != nil {
		return err
	}
	if hasAdmin {
		return nil
	}

	hash, err := auth.HashPassword(config.AppConfig.DefaultAdminPassword)
	if err != nil {
		return err
	}
	if _, err := dbStore.CreateUser("admin", hash, true); err != nil {
		return err
	}
	log.Println("Created default admin account (username: admin)")
	return nil
}
