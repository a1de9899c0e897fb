package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jswenson/ritual/internal/database"
	"github.com/jswenson/ritual/internal/logging"
	"github.com/jswenson/ritual/internal/push"
	"github.com/jswenson/ritual/internal/server"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("RITUAL_LOG_LEVEL"), os.Getenv("RITUAL_LOG_FORMAT"))

	port := os.Getenv("RITUAL_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("RITUAL_DB_PATH")
	if dbPath == "" {
		dbPath = "ritual.db"
	}

	pushCfg := push.Config{
		PublicKey:  os.Getenv("RITUAL_VAPID_PUBLIC_KEY"),
		PrivateKey: os.Getenv("RITUAL_VAPID_PRIVATE_KEY"),
		Subject:    os.Getenv("RITUAL_VAPID_SUBJECT"),
	}
	if pushCfg.Subject == "" {
		pushCfg.Subject = "mailto:admin@localhost"
	}
	// Push signing is a startup precondition, not a per-request error.
	if err := pushCfg.Validate(); err != nil {
		logger.Error("invalid push configuration; run vapidgen to create a key pair", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.PushScheduler().Start(ctx)
	defer srv.PushScheduler().Stop()

	// Periodic cleanup of expired sessions and stale rate-limit entries.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("delete expired sessions", "error", err)
				} else if n > 0 {
					logger.Debug("deleted expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("ritual listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
