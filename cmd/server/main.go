// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iyunix/go-yasmin/internal/config"
	"github.com/iyunix/go-yasmin/internal/database"
	"github.com/iyunix/go-yasmin/internal/services"
)

func main() {
	cfg := config.Load()
	logger := services.NewLogger("yasmin", cfg.Environment, cfg.LogLevel)

	// "server migrate" creates the schema and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(cfg)
		return
	}

	app, err := NewApplication(cfg, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize application: %v", err)
	}
	defer app.Close()

	// --- Server Configuration ---
	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting",
		"port", port,
		"environment", cfg.Environment,
		"provider_order", cfg.ProviderOrder,
		"configured_providers", app.AIService.ConfiguredCount(),
	)
	if app.AIService.ConfiguredCount() == 0 {
		logger.Warn("no provider credentials configured, every reply will be an offline reply")
	}

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return
	}
	logger.Info("server stopped gracefully")
}

func runMigrate(cfg *config.Config) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}
	log.Println("Database schema is up to date")
}
