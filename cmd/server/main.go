package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/router"
	"venue-crm-backend/pkg/services"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	seedAdmin := flag.String("seed-admin", "", "create or promote this email to admin on startup")
	flag.Parse()

	cfg := config.GetCached()
	logger := config.GetLogger()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// The server owns one pool for its lifetime; database/sql redials dropped connections.
	db, err := database.NewDatabase(database.ConfigFromApp(cfg))
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.AutoMigrate(db.DB(ctx)); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}
	if *migrateOnly {
		logger.Info("migrations applied")
		return
	}

	if *seedAdmin != "" {
		user, err := services.NewUserService(db, cfg.IsAdminEmail).SeedAdmin(ctx, *seedAdmin)
		if err != nil {
			logger.WithError(err).Fatal("failed to seed admin")
		}
		logger.WithField("email", user.Email).Info("admin seeded")
	}

	deps, err := router.NewDeps(ctx, cfg, db)
	if err != nil {
		logger.WithError(err).Fatal("failed to build dependencies")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("server stopped")
}
