package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/amdadul/brandstore-crm/internal/config"
	"github.com/amdadul/brandstore-crm/internal/fakeapi"
	"github.com/amdadul/brandstore-crm/internal/serverauth"
)

func main() {
	// env vars override .env
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.LoadFakeAPI()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	seed, err := fakeapi.LoadSeed(cfg.SeedFile)
	if err != nil {
		log.Fatalf("Failed to load seed: %v", err)
	}

	// Create context for startup operations
	ctx := context.Background()

	server, err := fakeapi.New(ctx, fakeapi.Options{
		DSN:          cfg.DSN,
		JWTSecret:    cfg.JWTSecret,
		OTPSalt:      cfg.OTPSalt,
		DevMode:      cfg.DevMode,
		Seed:         seed,
		AttemptDelay: serverauth.DefaultAttemptDelay,
	})
	if err != nil {
		log.Fatalf("Failed to start fake API: %v", err)
	}
	defer server.Close()

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Fake brand-store API listening on :%s (base URL http://localhost:%s/api, dev mode %v)", cfg.Port, cfg.Port, cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
