package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/config"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/db"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/logger"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/notification"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/server"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/tournament"
)

// @title BattleNest API
// @version 1.0
// @description API for the BattleNest esports tournament platform.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting BattleNest application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	notifier := notification.New(cfg.RedisAddr, notification.NewRepository(database))
	defer notifier.Close()
	logger.Info("Notification service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	srv := server.New(database, cfg, notifier)
	defer srv.Close()

	ticker, err := tournament.NewTicker(srv.Tournaments, time.Duration(cfg.LifecycleTickSeconds)*time.Second)
	if err != nil {
		logger.Fatalf("Failed to create lifecycle ticker: %v", err)
	}
	ticker.Start()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := ticker.Stop(); err != nil {
		logger.Errorf("Error stopping lifecycle ticker: %v", err)
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
