package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bluewhale-protocol/api-go/cache"
	"github.com/bluewhale-protocol/api-go/config"
	"github.com/bluewhale-protocol/api-go/logger"
	"github.com/bluewhale-protocol/api-go/notify"
	"github.com/bluewhale-protocol/api-go/routes"
	"github.com/bluewhale-protocol/api-go/storage"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Environment: cfg.Env})
	log.Info().Str("env", cfg.Env).Msg("Starting Blue Whale Protocol API")

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.Database.AutoMigrate {
		if err := config.RunMigrations(db, cfg.Database.MigrationsPath, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	stores := store.New(db)
	responseCache := newCache(cfg.Redis, log)
	if closer, ok := responseCache.(*cache.RedisCache); ok {
		defer closer.Close()
	}

	notifier, err := notify.New(cfg.Broker, notify.NewStoreSink(stores.Notifications, responseCache, log), log)
	if err != nil {
		log.Fatal().Err(err).Str("broker", cfg.Broker.Kind).Msg("Failed to start notification dispatcher")
	}
	defer notifier.Close()

	files, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize file storage")
	}

	deps := routes.Dependencies{
		Config:   cfg,
		Stores:   stores,
		Tokens:   utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		Cache:    responseCache,
		Notifier: notifier,
		Files:    files,
		Log:      log,
	}
	// Leave the interface nil when Google is not configured.
	if google := config.NewGoogleConfig(cfg.Google); google != nil {
		deps.Google = google
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routes.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

// newCache connects to Redis when configured and falls back to a no-op
// cache otherwise, so a Redis outage at boot never blocks startup.
func newCache(cfg config.RedisConfig, log zerolog.Logger) cache.Cache {
	if !cfg.Enabled() {
		log.Info().Msg("Redis not configured, response caching disabled")
		return cache.Nop{}
	}

	client, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, response caching disabled")
		return cache.Nop{}
	}

	log.Info().Str("addr", cfg.Addr).Msg("Redis cache connected")
	return cache.NewRedisCache(client)
}
